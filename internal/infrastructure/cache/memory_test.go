package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorlens/backend/internal/domain"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value interface{}
		want  interface{}
	}{
		{
			name:  "generated image name",
			key:   "generation:abc_modern_bedroom_offline",
			value: "offline_5f0c.png",
			want:  "offline_5f0c.png",
		},
		{
			name:  "numbers come back as float64",
			key:   "count",
			value: 42,
			want:  float64(42),
		},
		{
			name:  "structs come back as maps",
			key:   "item",
			value: domain.CatalogItem{ID: "sofa_001", Category: "sofa", Price: 18000},
			want: map[string]interface{}{
				"id": "sofa_001", "category": "sofa", "name": "", "price": float64(18000), "vendor": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value, time.Minute))

			got, err := cache.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "value", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	exists, err := cache.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "forever", "value", 0))
	cache.removeExpired(time.Now().Add(365 * 24 * time.Hour))

	got, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestMemoryCache_Miss(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))

	exists, err := cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "key"))

	exists, err = cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_SetRejectsUnencodableValue(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()

	err := cache.Set(context.Background(), "bad", make(chan int), time.Minute)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_Sweep(t *testing.T) {
	cache := NewMemoryCache(5 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "expired", "v", time.Millisecond))
	require.NoError(t, cache.Set(ctx, "live", "v", time.Hour))

	assert.Eventually(t, func() bool { return cache.Size() == 1 }, time.Second, 5*time.Millisecond)

	_, err := cache.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	assert.NotPanics(t, func() {
		cache.Close()
		cache.Close()
	})
}

func TestMemoryCache_Concurrency(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%10)
			_ = cache.Set(ctx, key, i, time.Minute)
			_, _ = cache.Get(ctx, key)
			_, _ = cache.Exists(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Size())
}
