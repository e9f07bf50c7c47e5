package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	data, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	data, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestMemoryCache_Health(t *testing.T) {
	c := NewMemoryCache()
	assert.NoError(t, c.Health(context.Background()))
	assert.NoError(t, c.Close())
}

func TestCacheError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &CacheError{Operation: "get", Key: "snapshot", Err: cause}

	assert.Equal(t, "cache get failed for key 'snapshot': connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
