package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "shipping:fo-1:v3", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "shipping:fo-1:v3", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew, "second delivery of the same notice is a duplicate")

	isNew, err = store.MarkProcessed(ctx, "delivery:fo-1:v4", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	clock.Advance(time.Hour)
	isNew, err = store.MarkProcessed(ctx, "shipping:fo-1:v3", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "expired key can be recorded again")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "issue:fo-2:v2")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "issue:fo-2:v2", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "issue:fo-2:v2")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(2 * time.Minute)
	processed, err = store.IsProcessed(ctx, "issue:fo-2:v2")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store, clock := newClockedStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	clock.Advance(time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	store, _ := newClockedStore(t)
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(ctx, "delivery:fo-9:v5", time.Hour); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore(WithCleanupInterval(10 * time.Millisecond))

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Fulfillment.IdempotencyBackend = config.IdempotencyBackendMemory

		store, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Fulfillment.IdempotencyBackend = config.IdempotencyBackendRedis
		cfg.Redis.Host = "127.0.0.1"
		cfg.Redis.Port = 1

		store, err := NewIdempotencyStoreFactory(cfg, WithInMemoryFallback(true)).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis without fallback", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.App.Env = "production"
		cfg.Fulfillment.IdempotencyBackend = config.IdempotencyBackendRedis
		cfg.Redis.Host = "127.0.0.1"
		cfg.Redis.Port = 1

		_, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis idempotency store unavailable")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Fulfillment.IdempotencyBackend = "memcached"

		_, err := NewIdempotencyStoreFactory(cfg).CreateStore(ctx)
		assert.EqualError(t, err, fmt.Sprintf("unknown idempotency backend %q", "memcached"))
	})
}
