package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbparse/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	products := []domain.StoredProduct{{ID: 1, NmID: 42, Name: "Кружка", Price: 250}}
	require.NoError(t, cache.Set(ctx, "products:all", products, time.Minute))

	got, err := cache.Get(ctx, "products:all")
	require.NoError(t, err)
	assert.Equal(t, products, got.([]domain.StoredProduct), "values keep their concrete type")
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "value", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := cache.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache(0)

	_, err := cache.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "delete-test", "value", time.Minute))
	require.NoError(t, cache.Delete(ctx, "delete-test"))

	_, err := cache.Get(ctx, "delete-test")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, "exists-test", 1, time.Minute))

	exists, err = cache.Exists(ctx, "exists-test")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "old", 1, time.Millisecond))
	require.NoError(t, cache.Set(ctx, "fresh", 2, time.Hour))

	cache.removeExpired(time.Now().Add(time.Second))

	assert.Equal(t, 1, cache.Size())
	exists, _ := cache.Exists(ctx, "fresh")
	assert.True(t, exists)
}

func TestMemoryCache_SizeAndClear(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Set(ctx, string(rune('a'+i)), i, time.Minute))
	}
	assert.Equal(t, 5, cache.Size())

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.Equal(t, 4, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache(time.Millisecond)
	cache.Close()
	assert.NotPanics(t, cache.Close)
}
