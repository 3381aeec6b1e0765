package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

// Store is a durable key-value store backed by Redis.
// Key format: <namespace>:<key>
type Store struct {
	client    redis.UniversalClient
	namespace string
}

// NewStore wraps client; keys are isolated under namespace so several
// storefront clients can share one Redis.
func NewStore(client redis.UniversalClient, namespace string) *Store {
	return &Store{client: client, namespace: namespace}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value without expiry; session expiry is enforced by the lifecycle monitor.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}
