package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lexidex/internal/store"
)

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key []byte) (store.Status, []byte, error) {
	cmd := s.b().Get().Key(string(key)).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return store.NotFound, nil, nil
		}
		return store.Error, nil, fmt.Errorf("get: %w", err)
	}
	return store.Found, data, nil
}

// Insert implements store.Store.
func (s *Store) Insert(ctx context.Context, key, value []byte) error {
	cmd := s.b().Set().Key(string(key)).Value(string(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Remove implements store.Store.
func (s *Store) Remove(ctx context.Context, key []byte) error {
	cmd := s.b().Del().Key(string(key)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Increment implements store.Store.
func (s *Store) Increment(ctx context.Context, key []byte, delta int64) (int64, error) {
	cmd := s.b().Incrby().Key(string(key)).Increment(delta).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("increment: %w", err)
	}
	return n, nil
}
