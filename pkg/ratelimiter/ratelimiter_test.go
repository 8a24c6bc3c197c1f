package ratelimiter_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{name: "zero capacity", cfg: ratelimiter.Config{RefillRate: 1, RefillInterval: time.Second}},
		{name: "zero rate", cfg: ratelimiter.Config{Capacity: 1, RefillInterval: time.Second}},
		{name: "zero interval", cfg: ratelimiter.Config{Capacity: 1, RefillRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}

	assert.Panics(t, func() { _, _ = ratelimiter.NewBucket(nil, testConfig) })
}

// exerciseStore runs the same scenario against any Store.
func exerciseStore(t *testing.T, store ratelimiter.Store, key string) {
	t.Helper()

	ctx := context.Background()
	clk := newClock()
	b, err := ratelimiter.NewBucket(store, testConfig, ratelimiter.WithClock(clk.Now))
	require.NoError(t, err)
	require.NoError(t, b.Reset(ctx, key))
	t.Cleanup(func() { _ = b.Reset(ctx, key) })

	for i := range 3 {
		res, err := b.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed(), "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Second, res.RetryAfter(clk.Now()))

	// Denied requests consume nothing, so one refill admits exactly one.
	clk.Advance(time.Second)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	// Partial intervals carry over.
	clk.Advance(1500 * time.Millisecond)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	clk.Advance(500 * time.Millisecond)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed())

	// Long idle refills to capacity, not beyond.
	clk.Advance(time.Hour)
	res, err = b.AllowN(ctx, key, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)

	require.NoError(t, b.Reset(ctx, key))
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)

	_, err = b.AllowN(ctx, key, 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore()
	t.Cleanup(store.Close)
	exerciseStore(t, store, "1.2.3.4:qr-1")

	store.Close()
	store.Close()
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	res, err := b.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	res, err = b.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	res, err = b.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "hot")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { ratelimiter.NewRedisStore(nil, "rl:") })

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()

		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		t.Cleanup(func() { _ = client.Close() })

		b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client, "rl:"), testConfig)
		require.NoError(t, err)
		_, err = b.Allow(context.Background(), "k")
		assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
	})

	t.Run("integration", func(t *testing.T) {
		t.Parallel()

		url := os.Getenv("MENUKIT_TEST_REDIS_URL")
		if url == "" {
			t.Skip("MENUKIT_TEST_REDIS_URL not set")
		}
		opts, err := redis.ParseURL(url)
		require.NoError(t, err)
		client := redis.NewClient(opts)
		t.Cleanup(func() { _ = client.Close() })

		exerciseStore(t, ratelimiter.NewRedisStore(client, "menukit:test:rl:"), t.Name())
	})
}
