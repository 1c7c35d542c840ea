package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rhymednick/inw-radio-log/internal/models"
)

// Collection is a typed view of one named collection in a Store.
// All writers of a Collection are serialized; the Store's version check
// additionally rejects writes based on a state another process replaced.
type Collection[T any] struct {
	store Store
	name  string
	mu    sync.Mutex
}

// NewCollection returns a Collection of T stored under name.
func NewCollection[T any](s Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns all records in stored order. A missing or empty resource
// yields an empty slice.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	records, _, err := c.load(ctx)
	return records, err
}

// Save replaces the whole collection with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	return c.Update(ctx, func([]T) ([]T, error) {
		return records, nil
	})
}

// Update loads the collection, passes it to fn and stores what fn returns.
// If fn returns an error nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, version, err := c.load(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return c.write(ctx, c.name, updated, version)
}

// CopyTo writes the current records to dst, which must not exist yet, and
// returns the number of records copied.
func (c *Collection[T]) CopyTo(ctx context.Context, dst string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, _, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.write(ctx, dst, records, 0); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Rotate copies the current records to dst and then empties the collection.
// No write to the collection can land between the copy and the truncation.
func (c *Collection[T]) Rotate(ctx context.Context, dst string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, version, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.write(ctx, dst, records, 0); err != nil {
		return 0, err
	}
	if err := c.write(ctx, c.name, []T{}, version); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, int64, error) {
	snap, err := c.store.Read(ctx, c.name)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read %s: %w", models.ErrStorage, c.name, err)
	}
	records, err := decode[T](snap.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to decode %s: %w", models.ErrStorage, c.name, err)
	}
	return records, snap.Version, nil
}

func (c *Collection[T]) write(ctx context.Context, name string, records []T, base int64) error {
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", models.ErrStorage, name, err)
	}
	if _, err := c.store.Write(ctx, name, data, base); err != nil {
		if errors.Is(err, ErrStaleVersion) {
			return fmt.Errorf("%w: %s was modified concurrently, retry the operation", models.ErrConflict, name)
		}
		return fmt.Errorf("%w: failed to write %s: %w", models.ErrStorage, name, err)
	}
	return nil
}

func decode[T any](data []byte) ([]T, error) {
	records := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	return json.MarshalIndent(records, "", "  ")
}
