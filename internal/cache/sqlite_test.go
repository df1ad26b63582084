package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteFixture(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetSet(t *testing.T) {
	s := newSQLiteFixture(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("payload"), time.Hour))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	// Overwrite wins.
	require.NoError(t, s.Set(ctx, "k", []byte("newer"), time.Hour))
	got, _, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("newer"), got)

	// An already-expired entry reads as a miss.
	require.NoError(t, s.Set(ctx, "old", []byte("x"), -time.Hour))
	_, ok, err = s.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_Counters(t *testing.T) {
	s := newSQLiteFixture(t)
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

	n, err = s.GetCounter(ctx, "org:b:2026-08-31")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_SweepAndStats(t *testing.T) {
	s := newSQLiteFixture(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "fresh", []byte("a"), time.Hour))
	require.NoError(t, s.Set(ctx, "stale", []byte("b"), -time.Minute))

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Entries)
	assert.Zero(t, st.Counters)
}
