package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T, maxSize int, ttl time.Duration) (*MemoryStore, *clock) {
	t.Helper()
	s := NewMemoryStore(config.CacheConfig{MaxSize: maxSize, TTL: ttl})
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.now = c.now
	t.Cleanup(func() { _ = s.Close() })
	return s, c
}

func TestMemoryStore_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t, 10, time.Hour)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// 回傳的是副本
	got[0] = 'x'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), again)

	stats := s.Stats()
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 1, stats["size"])
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, c := newTestStore(t, 10, time.Minute)

	require.NoError(t, s.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, s.Set(ctx, "default", []byte("2"), 0))

	c.t = c.t.Add(2 * time.Second)
	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.Get(ctx, "default")
	assert.NoError(t, err)

	c.t = c.t.Add(time.Minute)
	_, err = s.Get(ctx, "default")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_EvictsLeastUsed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, c := newTestStore(t, 2, time.Hour)

	require.NoError(t, s.Set(ctx, "a", []byte("a"), 0))
	c.t = c.t.Add(time.Second)
	require.NoError(t, s.Set(ctx, "b", []byte("b"), 0))

	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "c", []byte("c"), 0))

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStore_ExpiredEntriesFreeSpaceFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, c := newTestStore(t, 2, time.Hour)

	require.NoError(t, s.Set(ctx, "old", []byte("1"), time.Second))
	require.NoError(t, s.Set(ctx, "keep", []byte("2"), 0))
	c.t = c.t.Add(time.Minute)

	require.NoError(t, s.Set(ctx, "new", []byte("3"), 0))
	_, err := s.Get(ctx, "keep")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t, 1, time.Hour)

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "a", []byte("2"), 0))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestStore(t, 10, time.Hour)

	type payload struct {
		Cuisine string  `json:"cuisine"`
		Score   float64 `json:"score"`
	}

	_, ok := GetJSON[payload](ctx, s, "p")
	assert.False(t, ok)

	SetJSON(ctx, s, "p", payload{Cuisine: "thai", Score: 0.9}, 0)
	got, ok := GetJSON[payload](ctx, s, "p")
	require.True(t, ok)
	assert.Equal(t, payload{Cuisine: "thai", Score: 0.9}, got)

	require.NoError(t, s.Set(ctx, "bad", []byte("{not json"), 0))
	_, ok = GetJSON[payload](ctx, s, "bad")
	assert.False(t, ok)

	_, ok = GetJSON[payload](ctx, nil, "p")
	assert.False(t, ok)
	SetJSON(ctx, nil, "p", payload{}, 0)
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	disabled, err := New(ctx, &config.Config{Cache: config.CacheConfig{Enabled: false}})
	require.NoError(t, err)
	assert.Nil(t, disabled)

	mem, err := New(ctx, &config.Config{Cache: config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: 5, TTL: time.Minute}})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, mem)
	_ = mem.Close()

	_, err = New(ctx, &config.Config{Cache: config.CacheConfig{Enabled: true, Backend: "bogus"}})
	assert.Error(t, err)
}

func TestErrMissMatchesCommonCode(t *testing.T) {
	t.Parallel()

	wrapped := common.ErrCacheMiss.Wrap(nil)
	assert.ErrorIs(t, wrapped, ErrMiss)
}
