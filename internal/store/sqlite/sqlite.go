// Package sqlite stores collections as rows of a single SQLite table.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ store.Store = (*Client)(nil)

// Collection is one stored collection.
type Collection struct {
	Name      string `gorm:"primaryKey"`
	Data      []byte `gorm:"not null"`
	Version   int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New opens the database and performs migrations.
func New(dbpath string) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(dbpath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&Collection{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Read implements store.Store.
func (c *Client) Read(ctx context.Context, name string) (store.Snapshot, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Snapshot{}, err
	}
	var row Collection
	if err := c.db.WithContext(ctx).First(&row, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.Snapshot{}, nil
		}
		return store.Snapshot{}, err
	}
	return store.Snapshot{Data: row.Data, Version: row.Version, Exists: true}, nil
}

// Write implements store.Store.
func (c *Client) Write(ctx context.Context, name string, data []byte, baseVersion int64) (int64, error) {
	if err := store.ValidateName(name); err != nil {
		return 0, err
	}
	newVersion := baseVersion + 1
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Collection
		err := tx.Select("name", "version").First(&current, "name = ?", name).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if baseVersion != 0 {
				return store.ErrStaleVersion
			}
			return tx.Create(&Collection{Name: name, Data: data, Version: newVersion}).Error
		case err != nil:
			return err
		case current.Version != baseVersion:
			return store.ErrStaleVersion
		}

		result := tx.Model(&Collection{}).
			Where("name = ? AND version = ?", name, baseVersion).
			Updates(map[string]any{"data": data, "version": newVersion})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrStaleVersion
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// List implements store.Store.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	if err := c.db.WithContext(ctx).Model(&Collection{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return lo.Filter(names, func(name string, _ int) bool {
		return strings.HasPrefix(name, prefix)
	}), nil
}

// Close implements store.Store.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
