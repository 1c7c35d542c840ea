// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh backend returned by newStore against the store.Store contract.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("missing collection reads as empty", func(t *testing.T) {
		s := newStore(t)
		snap, err := s.Read(context.Background(), "radios")
		require.NoError(t, err)
		assert.False(t, snap.Exists)
		assert.Zero(t, snap.Version)
		assert.Empty(t, snap.Data)
	})

	t.Run("create then read", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		v, err := s.Write(ctx, "radios", []byte(`[{"ID":"1"}]`), 0)
		require.NoError(t, err)
		assert.NotZero(t, v)

		snap, err := s.Read(ctx, "radios")
		require.NoError(t, err)
		assert.True(t, snap.Exists)
		assert.Equal(t, v, snap.Version)
		assert.JSONEq(t, `[{"ID":"1"}]`, string(snap.Data))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		v1, err := s.Write(ctx, "users", []byte(`[]`), 0)
		require.NoError(t, err)
		_, err = s.Write(ctx, "users", []byte(`[{"id":"a"}]`), v1)
		require.NoError(t, err)

		_, err = s.Write(ctx, "users", []byte(`[{"id":"b"}]`), v1)
		require.ErrorIs(t, err, store.ErrStaleVersion)

		snap, err := s.Read(ctx, "users")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"a"}]`, string(snap.Data))
	})

	t.Run("create over existing is rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Write(ctx, "checkout-log", []byte(`[]`), 0)
		require.NoError(t, err)
		_, err = s.Write(ctx, "checkout-log", []byte(`[]`), 0)
		require.ErrorIs(t, err, store.ErrStaleVersion)
	})

	t.Run("list by prefix", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, name := range []string{"users", "backups/users-backup-b", "backups/users-backup-a", "checkout-log"} {
			_, err := s.Write(ctx, name, []byte(`[]`), 0)
			require.NoError(t, err)
		}
		names, err := s.List(ctx, "backups/")
		require.NoError(t, err)
		assert.Equal(t, []string{"backups/users-backup-a", "backups/users-backup-b"}, names)
	})

	t.Run("invalid names", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, name := range []string{"", "/etc/passwd", "../escape", "a//b", "a/./b"} {
			_, err := s.Write(ctx, name, []byte(`[]`), 0)
			assert.ErrorIs(t, err, store.ErrInvalidName, name)
		}
	})
}
