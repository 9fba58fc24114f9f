// Package cache provides the TTL key-value store used for user-context
// read-through, CRM result caching and the frequent-query promotion cache.
// The Redis adapter degrades to an in-memory cache when the server is
// unreachable; a cache failure is never fatal to message processing.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

const connectTimeout = 3 * time.Second

// RedisCache adapts a Redis client to the Cache interface
type RedisCache struct {
	client *redis.Client
}

var _ interfaces.Cache = (*RedisCache)(nil)

// NewRedis connects to Redis at addr. When the server does not answer a
// ping, it logs a warning and returns an in-memory cache instead, so the
// service keeps running without a cache backend.
func NewRedis(ctx context.Context, addr, password string, db int) interfaces.Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf(ctx, "redis unreachable at %s, falling back to in-memory cache: %v", addr, err)
		_ = client.Close()
		return NewMemory()
	}

	logger.Info(ctx, "connected to redis at %s", addr)
	return &RedisCache{client: client}
}

// NewRedisWithClient wraps an existing client, for tests
func NewRedisWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value for key, or types.ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", types.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key for ttl
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Increment adds 1 to the counter at key and returns the new value
func (c *RedisCache) Increment(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Expire sets the TTL of an existing key
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// Delete removes key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists reports whether key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
