package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/types"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrCacheMiss)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryIncrement(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.Increment(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryIncrementRestartsAfterExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, err := c.Increment(ctx, "counter")
	require.NoError(t, err)
	require.NoError(t, c.Expire(ctx, "counter", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	// The restarted counter is a fresh key: it counts up again and its
	// new TTL holds, same as Redis INCR after expiry
	got, err := c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	require.NoError(t, c.Expire(ctx, "counter", time.Hour))

	got, err = c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = c.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestMemoryExpireDropsExpiredKey(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	// Re-arming an already expired key must not revive it
	require.NoError(t, c.Expire(ctx, "k", time.Hour))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrCacheMiss)
}

func TestMemoryDelete(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrCacheMiss)
}
