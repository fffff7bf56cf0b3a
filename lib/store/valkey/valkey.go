// Package valkey is a storage backend speaking the redis protocol, for
// deployments where several sortcha replicas share one token space. Expiry is
// delegated to the server's native TTL support.
package valkey

import (
	"context"
	"fmt"
	"time"

	valkey "github.com/redis/go-redis/v9"
	"github.com/sortcha/sortcha/lib/store"
)

type Store struct {
	rdb    *valkey.Client
	prefix string
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.rdb.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("can't delete from valkey: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if valkey.HasErrorPrefix(err, "redis: nil") {
			return nil, fmt.Errorf("%w: %w", store.ErrNotFound, err)
		}

		return nil, fmt.Errorf("can't fetch from valkey: %w", err)
	}

	return result, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, expiry time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(key), value, expiry).Err(); err != nil {
		return fmt.Errorf("can't set %q in valkey: %w", key, err)
	}

	return nil
}
