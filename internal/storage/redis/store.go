// Package redis provides a Redis-backed implementation of storage.Store, for
// deployments that keep shopper session state off the local disk.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jcmexdev/seafood-miniapp/internal/storage"
)

// Store is the Redis implementation of storage.Store. Keys are namespaced
// with a prefix so several storefront deployments can share one instance.
type Store struct {
	client *redis.Client
	prefix string
}

func New(addr, prefix string) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ storage.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	// No TTL: the cart should survive until the shopper clears it or orders.
	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis: remove %q: %w", key, err)
	}
	return nil
}

func (s *Store) namespaced(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
