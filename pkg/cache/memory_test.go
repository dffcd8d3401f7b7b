package cache_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/styledoc/pkg/cache"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func entry(v string) cache.Entry {
	return cache.NewEntry([]byte(v), time.Minute, epoch)
}

func mustGet(t *testing.T, tier cache.Tier, key string) (string, bool) {
	t.Helper()
	e, found, err := tier.Get(context.Background(), key)
	require.NoError(t, err)
	return string(e.Value), found
}

func TestMemoryTier_Basic(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		m := cache.NewMemoryTier(3)
		require.NoError(t, m.Set(ctx, "a", entry("1")))
		require.NoError(t, m.Set(ctx, "b", entry("2")))

		v, ok := mustGet(t, m, "a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)

		n, err := m.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, "memory", m.Name())
	})

	t.Run("get non-existent", func(t *testing.T) {
		m := cache.NewMemoryTier(3)
		_, ok := mustGet(t, m, "missing")
		assert.False(t, ok)
	})

	t.Run("set replaces", func(t *testing.T) {
		m := cache.NewMemoryTier(3)
		require.NoError(t, m.Set(ctx, "a", entry("1")))
		require.NoError(t, m.Set(ctx, "a", entry("2")))

		v, ok := mustGet(t, m, "a")
		assert.True(t, ok)
		assert.Equal(t, "2", v)

		n, _ := m.Len(ctx)
		assert.Equal(t, 1, n)
	})

	t.Run("non-positive capacity means default", func(t *testing.T) {
		m := cache.NewMemoryTier(0)
		for i := range 20 {
			require.NoError(t, m.Set(ctx, strconv.Itoa(i), entry("v")))
		}
		n, _ := m.Len(ctx)
		assert.Equal(t, 20, n)
	})
}

func TestMemoryTier_Eviction(t *testing.T) {
	ctx := context.Background()

	t.Run("evict least recently used", func(t *testing.T) {
		m := cache.NewMemoryTier(3)
		for _, k := range []string{"a", "b", "c", "d"} {
			require.NoError(t, m.Set(ctx, k, entry(k)))
		}

		_, ok := mustGet(t, m, "a")
		assert.False(t, ok, "a should have been evicted")
		for _, k := range []string{"b", "c", "d"} {
			_, ok := mustGet(t, m, k)
			assert.True(t, ok, k)
		}
	})

	t.Run("get updates recency", func(t *testing.T) {
		m := cache.NewMemoryTier(3)
		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, m.Set(ctx, k, entry(k)))
		}
		mustGet(t, m, "a")
		require.NoError(t, m.Set(ctx, "d", entry("d")))

		_, ok := mustGet(t, m, "b")
		assert.False(t, ok, "b should have been evicted")
		_, ok = mustGet(t, m, "a")
		assert.True(t, ok)
	})

	t.Run("callback sees evicted entries only", func(t *testing.T) {
		m := cache.NewMemoryTier(2)
		evicted := map[string]string{}
		m.SetEvictCallback(func(key string, e cache.Entry) {
			evicted[key] = string(e.Value)
		})

		require.NoError(t, m.Set(ctx, "a", entry("1")))
		require.NoError(t, m.Set(ctx, "b", entry("2")))
		require.NoError(t, m.Set(ctx, "c", entry("3")))
		assert.Equal(t, map[string]string{"a": "1"}, evicted)

		require.NoError(t, m.Delete(ctx, "b"))
		require.NoError(t, m.Clear(ctx))
		assert.Equal(t, map[string]string{"a": "1"}, evicted)
	})
}

func TestMemoryTier_Delete(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemoryTier(3)
	require.NoError(t, m.Set(ctx, "a", entry("1")))

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "a"))
	_, ok := mustGet(t, m, "a")
	assert.False(t, ok)
}

func TestMemoryTier_CompareAndDelete(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemoryTier(3)

	old := cache.NewEntry([]byte("old"), time.Second, epoch)
	fresh := cache.NewEntry([]byte("fresh"), time.Second, epoch.Add(time.Minute))
	require.NoError(t, m.Set(ctx, "k", fresh))

	assert.False(t, m.CompareAndDelete("k", old.CreatedAt), "a replaced entry must survive")
	v, ok := mustGet(t, m, "k")
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)

	assert.True(t, m.CompareAndDelete("k", fresh.CreatedAt))
	assert.False(t, m.CompareAndDelete("missing", epoch))
}

func TestMemoryTier_RemoveExpired(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemoryTier(10)
	require.NoError(t, m.Set(ctx, "short", cache.NewEntry([]byte("1"), time.Second, epoch)))
	require.NoError(t, m.Set(ctx, "long", cache.NewEntry([]byte("2"), time.Hour, epoch)))

	n, err := m.RemoveExpired(ctx, epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := mustGet(t, m, "short")
	assert.False(t, ok)
	_, ok = mustGet(t, m, "long")
	assert.True(t, ok)
}

func TestMemoryTier_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemoryTier(100)

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(3)
		go func(k string) {
			defer wg.Done()
			_ = m.Set(ctx, k, entry(k))
		}(strconv.Itoa(i))
		go func(k string) {
			defer wg.Done()
			_, _, _ = m.Get(ctx, k)
		}(strconv.Itoa(i))
		go func(k string) {
			defer wg.Done()
			_ = m.Delete(ctx, k)
		}(strconv.Itoa(i % 50))
	}
	wg.Wait()

	n, err := m.Len(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 100)
}

func BenchmarkMemoryTier_Set(b *testing.B) {
	ctx := context.Background()
	m := cache.NewMemoryTier(1000)
	e := entry("v")

	b.ResetTimer()
	for i := range b.N {
		_ = m.Set(ctx, strconv.Itoa(i%2000), e)
	}
}

func BenchmarkMemoryTier_Get(b *testing.B) {
	ctx := context.Background()
	m := cache.NewMemoryTier(1000)
	for i := range 1000 {
		_ = m.Set(ctx, strconv.Itoa(i), entry("v"))
	}

	b.ResetTimer()
	for i := range b.N {
		_, _, _ = m.Get(ctx, strconv.Itoa(i%1000))
	}
}
