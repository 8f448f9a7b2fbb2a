package localstore

import (
	"encoding/json"
	"errors"
	"log/slog"
)

// KV abstracts the underlying key-value store, allowing tests to substitute
// a failing or in-memory implementation.
type KV interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set writes the value under key.
	Set(key string, data []byte) error
}

// Snapshot persists a full collection snapshot as JSON under a fixed key.
// Durability is best-effort: read and write failures are logged and absorbed
// here so collection mutations never fail on persistence problems.
type Snapshot[T any] struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// NewSnapshot creates a snapshot adapter bound to the given key.
func NewSnapshot[T any](kv KV, key string, logger *slog.Logger) *Snapshot[T] {
	return &Snapshot[T]{
		kv:     kv,
		key:    key,
		logger: logger.With("component", "localstore", "key", key),
	}
}

// Load returns the previously saved snapshot. An absent key, an unreadable
// store or a corrupted value all yield an empty snapshot: prior state that
// cannot be recovered is treated as no prior state.
func (s *Snapshot[T]) Load() []T {
	data, err := s.kv.Get(s.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to load snapshot, starting empty", "error", err)
		}
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("corrupted snapshot, starting empty", "error", err)
		return []T{}
	}
	return items
}

// Save serializes and writes the snapshot. Errors are logged, never
// propagated: the in-memory collection stays authoritative and the session
// merely risks losing state on restart.
func (s *Snapshot[T]) Save(items []T) {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to serialize snapshot", "error", err)
		return
	}
	if err := s.kv.Set(s.key, data); err != nil {
		s.logger.Error("failed to persist snapshot", "error", err)
	}
}
