// Package file stores collections as JSON files below a data directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rhymednick/inw-radio-log/internal/store"
)

const (
	ext        = ".json"
	tempPrefix = ".tmp-"
)

var _ store.Store = (*Store)(nil)

// Store keeps every collection in <dir>/<name>.json. Collection names may
// contain slashes, which map to sub-directories.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates the data directory if needed and returns a Store rooted at it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) (string, error) {
	if err := store.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)+ext), nil
}

// Read implements store.Store.
func (s *Store) Read(_ context.Context, name string) (store.Snapshot, error) {
	p, err := s.path(name)
	if err != nil {
		return store.Snapshot{}, err
	}
	return read(p)
}

// Write implements store.Store. The data is written to a temporary file in the
// same directory and renamed over the target.
func (s *Store) Write(_ context.Context, name string, data []byte, baseVersion int64) (int64, error) {
	p, err := s.path(name)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := read(p)
	if err != nil {
		return 0, err
	}
	if current.Version != baseVersion {
		return 0, store.ErrStaleVersion
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(p)+"-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return 0, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return 0, fmt.Errorf("failed to move temp file: %w", err)
	}

	log.Debug("wrote collection", "name", name, "bytes", len(data))
	return version(data), nil
}

// List implements store.Store.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ext)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

func read(p string) (store.Snapshot, error) {
	data, err := os.ReadFile(p) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.Snapshot{}, nil
		}
		return store.Snapshot{}, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return store.Snapshot{Data: data, Version: version(data), Exists: true}, nil
}

// version derives the compare-and-swap token from the file content, so the
// plain JSON array on disk needs no extra metadata.
func version(data []byte) int64 {
	h := fnv.New64a()
	h.Write(data) //nolint:errcheck
	v := int64(h.Sum64() & 0x7fffffffffffffff)
	if v == 0 {
		v = 1
	}
	return v
}
