// Package memory is an in-process store backend, mostly useful for tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rhymednick/inw-radio-log/internal/store"
)

var _ store.Store = (*Store)(nil)

type entry struct {
	data    []byte
	version int64
}

// Store keeps collections in a map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	next    int64

	// ReadError and WriteError, when set, are returned by every Read and Write.
	ReadError  error
	WriteError error
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Read implements store.Store.
func (s *Store) Read(_ context.Context, name string) (store.Snapshot, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ReadError != nil {
		return store.Snapshot{}, s.ReadError
	}
	e, ok := s.entries[name]
	if !ok {
		return store.Snapshot{}, nil
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return store.Snapshot{Data: data, Version: e.version, Exists: true}, nil
}

// Write implements store.Store.
func (s *Store) Write(_ context.Context, name string, data []byte, baseVersion int64) (int64, error) {
	if err := store.ValidateName(name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteError != nil {
		return 0, s.WriteError
	}
	if s.entries[name].version != baseVersion {
		return 0, store.ErrStaleVersion
	}
	s.next++
	stored := make([]byte, len(data))
	copy(stored, data)
	s.entries[name] = entry{data: stored, version: s.next}
	return s.next, nil
}

// List implements store.Store.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.entries {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}
