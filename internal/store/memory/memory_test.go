package memory

import (
	"testing"

	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/rhymednick/inw-radio-log/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store {
		return New()
	})
}
