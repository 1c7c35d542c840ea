// Package store persists named, array-shaped collections of records.
//
// A Store works on raw bytes and knows nothing about the records it holds.
// Collection layers JSON encoding, a per-collection writer lock and
// compare-and-swap saves on top of it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrStaleVersion is returned by Store.Write when the stored version no longer
// matches the version the caller read.
var ErrStaleVersion = errors.New("stale collection version")

// ErrInvalidName is returned for collection names that could escape the store root.
var ErrInvalidName = errors.New("invalid collection name")

// Snapshot is the stored state of one collection.
type Snapshot struct {
	// Data is the raw encoded collection. It is empty for a missing resource.
	Data []byte
	// Version identifies this state for compare-and-swap. Zero means the
	// resource does not exist.
	Version int64
	// Exists is false when nothing has ever been written under the name.
	Exists bool
}

// Store is a durable backend for whole-collection reads and writes.
type Store interface {
	// Read returns the current snapshot of name. A missing resource is not an error.
	Read(ctx context.Context, name string) (Snapshot, error)
	// Write replaces name with data if its current version equals baseVersion,
	// and returns the new version. A baseVersion of zero means "must not exist yet".
	Write(ctx context.Context, name string, data []byte, baseVersion int64) (int64, error)
	// List returns the sorted names of all collections starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases the backend.
	Close() error
}

// ValidateName rejects empty names, absolute names and names containing
// parent directory references.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
