package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/ports"
)

// RedisStore is a Redis implementation of the Record Store.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{
		client: client,
		prefix: "admission:",
	}
}

// Get retrieves a record by key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrRecordNotFound
		}
		return "", fmt.Errorf("%w: get %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return value, nil
}

// Put stores a record with an expiration.
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Delete removes a record and reports whether one was removed. Redis DEL
// returns the number of keys deleted, which gives exactly one of any set of
// concurrent deleters a true result.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: delete %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return n > 0, nil
}
