package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/rhymednick/inw-radio-log/internal/archive"
	"github.com/rhymednick/inw-radio-log/internal/cache"
	"github.com/rhymednick/inw-radio-log/internal/config"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/rhymednick/inw-radio-log/internal/photo/s3"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/rhymednick/inw-radio-log/internal/store/file"
	"github.com/rhymednick/inw-radio-log/internal/store/sqlite"
	"github.com/rhymednick/inw-radio-log/internal/users"
)

// app holds the components shared by the server and the maintenance commands.
type app struct {
	cfg        *config.Config
	store      store.Store
	photos     photo.Store
	users      *users.Registry
	inventory  *inventory.Inventory
	ledger     *ledger.Ledger
	maintainer *archive.Maintainer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	s, err := openStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	photos, err := openPhotos(ctx, cfg.Photos)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	registry := users.New(s, photos, cache.NewUserCache(cfg.Cache))
	l := ledger.New(s)
	inv := inventory.New(s, l)
	m := archive.New(s, registry, inv, l, photos, archive.Options{
		ImportDir:         cfg.Maintenance.ImportDir,
		DefaultRadioCount: cfg.Inventory.DefaultCount,
		DefaultRadioName:  cfg.Inventory.DefaultName,
		CompactThreshold:  cfg.Photos.CompactThreshold,
	})

	return &app{
		cfg:        cfg,
		store:      s,
		photos:     photos,
		users:      registry,
		inventory:  inv,
		ledger:     l,
		maintainer: m,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func openStore(driver config.StoreDriver, path string) (store.Store, error) {
	switch driver {
	case config.StoreDriverFile:
		s, err := file.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		log.Debug("using file store", "dir", path)
		return s, nil
	case config.StoreDriverSQLite:
		s, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Debug("using sqlite store", "path", path)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func openPhotos(ctx context.Context, cfg *config.PhotosConfig) (photo.Store, error) {
	opts := photo.Options{
		MaxWidth:  cfg.MaxWidth,
		MaxHeight: cfg.MaxHeight,
		Quality:   cfg.Quality,
	}
	switch cfg.Driver {
	case config.PhotoDriverFS:
		photos, err := photo.NewFS(cfg.Dir, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open photo directory: %w", err)
		}
		return photos, nil
	case config.PhotoDriverS3:
		photos, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 photo store: %w", err)
		}
		return photos, nil
	default:
		return nil, fmt.Errorf("unknown photo driver %q", cfg.Driver)
	}
}

// loadApp loads the configuration and builds the app for a command.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(ctx, cfg)
}
