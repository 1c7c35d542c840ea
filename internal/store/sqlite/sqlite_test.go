package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/rhymednick/inw-radio-log/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		c, err := New(filepath.Join(t.TempDir(), "radiolog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	})
}
