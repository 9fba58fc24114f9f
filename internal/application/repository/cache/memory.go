package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

type memoryItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryCache is a process-local TTL cache. It backs the service when
// Redis is unreachable and doubles as the cache fake in tests.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemory creates an empty in-memory cache
func NewMemory() *MemoryCache {
	return &MemoryCache{items: map[string]memoryItem{}}
}

var _ interfaces.Cache = (*MemoryCache)(nil)

// Get returns the value for key, or types.ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || it.expired(time.Now()) {
		return "", types.ErrCacheMiss
	}
	return it.value, nil
}

// Set stores value under key for ttl
func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = memoryItem{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

// Increment adds 1 to the counter at key and returns the new value.
// An absent or expired counter restarts from zero as a fresh key with no
// expiry, matching Redis INCR.
func (c *MemoryCache) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || it.expired(time.Now()) {
		it = memoryItem{}
	}

	count, _ := strconv.ParseInt(it.value, 10, 64)
	count++
	it.value = strconv.FormatInt(count, 10)
	c.items[key] = it
	return count, nil
}

// Expire sets the TTL of an existing key. Expired leftovers are dropped.
func (c *MemoryCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil
	}
	if it.expired(time.Now()) {
		delete(c.items, key)
		return nil
	}
	it.expiresAt = time.Now().Add(ttl)
	c.items[key] = it
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether key is present and unexpired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	return ok && !it.expired(time.Now()), nil
}
