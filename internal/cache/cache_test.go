// ===============================
// FILE: internal/cache/cache_test.go
// ===============================

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, maxKeys int) Cache {
	t.Helper()
	cfg := DefaultConfig()
	if maxKeys > 0 {
		cfg.MaxKeys = maxKeys
	}
	c := NewMemoryCache(cfg, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "badge:42", 7, time.Minute))

	value, ok := c.Get(ctx, "badge:42")
	require.True(t, ok)
	assert.Equal(t, 7, value)

	require.NoError(t, c.Delete(ctx, "badge:42"))
	_, ok = c.Get(ctx, "badge:42")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ephemeral", "x", -time.Second))

	_, ok := c.Get(ctx, "ephemeral")
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestMemoryCacheIncrementCreatesCounter(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()

	count, err := c.Increment(ctx, "counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "first increment seeds the counter")

	count, err = c.Increment(ctx, "counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, c.Set(ctx, "text", "not a number", time.Minute))
	_, err = c.Increment(ctx, "text", 1)
	assert.Error(t, err)
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := newTestCache(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Set(ctx, "c", 3, time.Minute))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Keys, "capacity is enforced by eviction")
}
