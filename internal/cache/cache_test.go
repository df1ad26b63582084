package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revenue-radar/internal/config"
)

func TestKey_Deterministic(t *testing.T) {
	k1 := Key(39.4143, -77.4105, 8046.72, "roofing", "roofing")
	k2 := Key(39.4143, -77.4105, 8046.72, "roofing", "roofing")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // SHA-256 hex is 64 chars
}

func TestKey_RoundsCoordinates(t *testing.T) {
	// A few meters apart rounds to the same key.
	assert.Equal(t,
		Key(39.41431, -77.41049, 8046.72, "roofing", ""),
		Key(39.41433, -77.41051, 8046.72, "roofing", ""),
	)
	// A different industry never shares a key.
	assert.NotEqual(t,
		Key(39.4143, -77.4105, 8046.72, "roofing", ""),
		Key(39.4143, -77.4105, 8046.72, "solar", ""),
	)
}

func TestCounterKey(t *testing.T) {
	day := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "org:org-7:2026-08-31", CounterKey("org-7", day))
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, config.StoreConfig{Driver: "cassandra"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestMemoryStore_GetSetExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("payload"), time.Hour))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	now = now.Add(2 * time.Hour)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should miss")
}

func TestMemoryStore_Counters(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := s.IncrCounter(ctx, "org:a:2026-08-31", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.IncrCounter(ctx, "org:a:2026-08-31", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.GetCounter(ctx, "org:a:2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// A fresh day resets the count.
	now = now.Add(25 * time.Hour)
	n, err = s.IncrCounter(ctx, "org:a:2026-08-31", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_SweepAndStats(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "fresh", []byte("a"), time.Hour))
	require.NoError(t, s.Set(ctx, "stale", []byte("b"), time.Minute))
	_, err := s.IncrCounter(ctx, "org:a:2026-08-31", time.Hour)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Entries)
	assert.Equal(t, int64(1), st.Counters)
}

func TestMemoryStore_PurgePrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "aaa1", []byte("x"), time.Hour))
	require.NoError(t, s.Set(ctx, "aaa2", []byte("y"), time.Hour))
	require.NoError(t, s.Set(ctx, "bbb1", []byte("z"), time.Hour))

	assert.Equal(t, 2, s.PurgePrefix("aaa"))

	_, ok, err := s.Get(ctx, "bbb1")
	require.NoError(t, err)
	assert.True(t, ok)
}
