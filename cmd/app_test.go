package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rhymednick/inw-radio-log/internal/config"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver config.StoreDriver) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := dir
	if driver == config.StoreDriverSQLite {
		path = filepath.Join(dir, "radiolog.db")
	}
	return &config.Config{
		Listen:  "127.0.0.1:0",
		DataDir: dir,
		Store:   &config.StoreConfig{Driver: driver, Path: path},
		Photos: &config.PhotosConfig{
			Driver:           config.PhotoDriverFS,
			Dir:              filepath.Join(dir, "profile-images"),
			MaxWidth:         64,
			MaxHeight:        64,
			Quality:          80,
			CompactThreshold: 1024,
		},
		Cache:       &config.CacheConfig{Type: config.CacheTypeMemory},
		Inventory:   &config.InventoryConfig{DefaultCount: 4, DefaultName: "ICOM"},
		Maintenance: &config.MaintenanceConfig{},
	}
}

func TestNewApp(t *testing.T) {
	for _, driver := range []config.StoreDriver{config.StoreDriverFile, config.StoreDriverSQLite} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			a, err := newApp(ctx, testConfig(t, driver))
			require.NoError(t, err)
			t.Cleanup(func() { _ = a.Close() })

			created, err := a.maintainer.InitializeInventory(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, created)

			res, err := a.users.Create(ctx, "Jane", nil)
			require.NoError(t, err)
			_, err = a.inventory.CheckOut(ctx, "1", res.User.ID, false)
			require.NoError(t, err)

			entries, err := a.ledger.Query(ctx, ledger.Filter{RadioID: "1"})
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := openStore("postgres", t.TempDir())
	require.Error(t, err)
}

func TestOpenPhotos_UnknownDriver(t *testing.T) {
	_, err := openPhotos(context.Background(), &config.PhotosConfig{Driver: "ftp"})
	require.Error(t, err)
}

func TestSetLogLevel(t *testing.T) {
	assert.NotPanics(t, func() {
		for _, level := range []string{"debug", "info", "warn", "error", "", "verbose"} {
			setLogLevel(level)
		}
	})
}
