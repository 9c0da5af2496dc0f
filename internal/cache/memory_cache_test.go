package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "chunk:1:0:0", []byte("payload"), 0))

	val, err := c.Get(ctx, "chunk:1:0:0")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	_, err = c.Get(ctx, "chunk:1:0:1")
	assert.True(t, IsCacheMiss(err), "отсутствующий ключ должен давать промах")
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err), "протухшая запись должна давать промах")
}

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	c := NewMemoryCache(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, err := c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err), "самая старая запись должна быть вытеснена")

	_, err = c.Get(ctx, "b")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCache_EmptyKeyRejected(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	err := c.Set(context.Background(), "", []byte("v"), 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryCache_Metrics(t *testing.T) {
	c := NewMemoryCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	m := c.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
	assert.Equal(t, int64(1), m.TotalKeys)
}

func TestChunkKey(t *testing.T) {
	assert.Equal(t, "chunk:12345:-3:7", ChunkKey(12345, -3, 7))
}
