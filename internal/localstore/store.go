// Package localstore provides the local durable store: a file-backed
// key-value store that survives process restarts, plus a typed snapshot
// adapter bound to a fixed key per collection.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrKeyNotFound is returned by Get when no value has been stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// Store is a key-value store persisting each key as a file under a directory.
// It is shared between collections; each collection owns a distinct key.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates the store directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the value stored under key.
// Returns ErrKeyNotFound if the key has never been written.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return data, nil
}

// Set writes the value under key. The write goes through a temporary file and
// a rename so a crash mid-write never leaves a truncated value behind.
func (s *Store) Set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to commit key %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
