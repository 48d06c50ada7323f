package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seen(t *testing.T, s Store, key string) bool {
	t.Helper()
	ok, err := s.IsSeen(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func mark(t *testing.T, s Store, key string) {
	t.Helper()
	require.NoError(t, s.MarkSeen(context.Background(), key))
}

func TestCacheSeenDuplicate(t *testing.T) {
	cache := NewCache(10, time.Minute)
	require.False(t, seen(t, cache, "alpha"))
	mark(t, cache, "alpha")
	require.True(t, seen(t, cache, "alpha"))
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(10, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	mark(t, cache, "beta")
	require.True(t, seen(t, cache, "beta"))

	clock = clock.Add(2 * time.Minute)
	require.False(t, seen(t, cache, "beta"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := NewCache(1, time.Minute)
	mark(t, cache, "first")
	mark(t, cache, "second")

	require.False(t, seen(t, cache, "first"))
	require.True(t, seen(t, cache, "second"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheRemarkKeepsKey(t *testing.T) {
	cache := NewCache(2, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	mark(t, cache, "a")
	mark(t, cache, "b")
	mark(t, cache, "a")
	mark(t, cache, "c")

	require.True(t, seen(t, cache, "a"))
	require.True(t, seen(t, cache, "c"))
	require.False(t, seen(t, cache, "b"))
}

func TestNewCacheDefaults(t *testing.T) {
	cache := NewCache(0, 0)
	require.Equal(t, 1, cache.capacity)
	require.Equal(t, time.Hour, cache.ttl)
}
