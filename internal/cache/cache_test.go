package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSet(t *testing.T) {
	c := NewMemoryClient(100)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	val, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
}

func TestMemoryClient_Expiry(t *testing.T) {
	c := NewMemoryClient(100)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	c := NewMemoryClient(100)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u:100:profile", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "u:100:query", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "u:200:profile", []byte("c"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "u:100:"))

	_, err := c.Get(ctx, "u:100:profile")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "u:100:query")
	assert.ErrorIs(t, err, ErrCacheMiss)

	val, err := c.Get(ctx, "u:200:profile")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), val)
}

func TestMemoryClient_Eviction(t *testing.T) {
	c := NewMemoryClient(2)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	// Entry closest to expiry is evicted first.
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), time.Minute))

	val, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	require.NoError(t, c.Delete(ctx, "k1"))
	_, err = c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_DeleteByPrefix(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u:1:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "u:1:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "u:2:a", []byte("3"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "u:1:"))

	_, err = c.Get(ctx, "u:1:a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	val, err := c.Get(ctx, "u:2:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "a:b:c", CacheKey("a", "b", "c"))
	assert.Equal(t, "u:42:profile", UserCacheKey("42", "profile"))
	assert.Equal(t, "u:42:q:abcd:results", QueryCacheKey("42", "abcd", "results"))
}
