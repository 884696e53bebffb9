// Package memstore is an in-memory store.Store, used by unit tests and by
// the demo binary when no external database is configured. It follows the
// same narrow, mutex-guarded shape the teacher pack's Redis/Valkey
// backends use, minus the network round trip.
package memstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/kailas-cloud/lexidex/internal/store"
)

// Store is a mutex-guarded in-memory implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

var _ store.Store = (*Store)(nil)

// Ping always succeeds; memstore has no network dependency to check.
func (s *Store) Ping(_ context.Context) error { return nil }

// Get implements store.Store.
func (s *Store) Get(_ context.Context, key []byte) (store.Status, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[string(key)]
	if !ok {
		return store.NotFound, nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return store.Found, out, nil
}

// Insert implements store.Store.
func (s *Store) Insert(_ context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

// Remove implements store.Store.
func (s *Store) Remove(_ context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, string(key))
	return nil
}

// Increment implements store.Store.
func (s *Store) Increment(_ context.Context, key []byte, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur int64
	if v, ok := s.data[string(key)]; ok {
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, err
		}
		cur = n
	}
	cur += delta
	s.data[string(key)] = []byte(strconv.FormatInt(cur, 10))
	return cur, nil
}
