package session

import (
	"context"
	"fmt"
	"time"
)

type redisStore interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Key(parts ...string) string
}

// RedisEntries keeps session entries in Redis under the client's namespace.
type RedisEntries struct {
	store redisStore
}

// NewRedisEntries wraps a redis client.
func NewRedisEntries(store redisStore) (*RedisEntries, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisEntries{store: store}, nil
}

func (r *RedisEntries) Lookup(ctx context.Context, key string) (string, bool, error) {
	return r.store.Lookup(ctx, r.store.Key(key))
}

func (r *RedisEntries) Set(ctx context.Context, key, value string) error {
	return r.store.Set(ctx, r.store.Key(key), value, 0)
}

func (r *RedisEntries) Delete(ctx context.Context, key string) error {
	return r.store.Del(ctx, r.store.Key(key))
}
