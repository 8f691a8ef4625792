// Package persistence provides a durable string-keyed store for chat state,
// backed by a local Pebble database.
//
// The exported Save/Load surface never propagates storage failures: a failed
// write is logged and dropped, a missing or corrupt entry reads as absent.
// Callers that need the underlying error use the unexported result-style
// helpers through this boundary only.
package persistence

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/Horizontal-Labs/ArminApp/internal/infrastructure/logging"
)

// Store is a durable key-value store for serializable values.
type Store struct {
	db  *pebble.DB
	log *logging.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save serializes value and writes it under key. Failures are logged and
// swallowed; the caller's state remains authoritative either way.
func (s *Store) Save(key string, value any) {
	if err := s.put(key, value); err != nil {
		s.log.Error("persist_failed", zap.String("key", key), zap.Error(err))
	}
}

// Load reads and deserializes the value under key into out. Returns false
// when the key is absent or the stored bytes cannot be decoded; out is left
// untouched in that case.
func (s *Store) Load(key string, out any) bool {
	ok, err := s.get(key, out)
	if err != nil {
		s.log.Warn("load_failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		s.log.Error("delete_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) put(key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(key string, out any) (bool, error) {
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	defer closer.Close()

	if err := sonic.Unmarshal(v, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
