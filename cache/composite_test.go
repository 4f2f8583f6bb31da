package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeSimple(t *testing.T) {
	ctx := context.Background()
	c := NewComposite(NewInMemory(ctx), NewInMemory(ctx))
	assert.NoError(t, c.Close())
}

func TestCompositePanicOnEmpty(t *testing.T) {
	assert.Panics(t, func() {
		NewComposite()
	})
}

func TestCompositeGetOrder(t *testing.T) {
	ctx := context.Background()
	l1 := NewInMemory(ctx)
	l2 := NewInMemory(ctx)
	c := NewComposite(l1, l2)
	defer c.Close()

	expires := time.Now().Add(time.Minute)
	assert.NoError(t, l1.Set(ctx, "key", "from-l1", expires))
	assert.NoError(t, l2.Set(ctx, "key", "from-l2", expires))

	found, val, err := c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "from-l1", val)

	assert.NoError(t, l2.Set(ctx, "only-l2", "from-l2", expires))
	found, val, err = c.Get(ctx, "only-l2")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "from-l2", val)
}

func TestCompositeSetAll(t *testing.T) {
	ctx := context.Background()
	l1 := NewInMemory(ctx)
	l2 := NewInMemory(ctx)
	c := NewComposite(l1, l2)
	defer c.Close()

	assert.NoError(t, c.Set(ctx, "key", "shared", time.Now().Add(time.Minute)))

	for _, l := range []Store{l1, l2} {
		found, val, err := l.Get(ctx, "key")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "shared", val)
	}
}

func TestCompositeAddUsesLastTier(t *testing.T) {
	ctx := context.Background()
	l1 := NewInMemory(ctx)
	l2 := NewInMemory(ctx)
	c := NewComposite(l1, l2)
	defer c.Close()

	expires := time.Now().Add(time.Minute)
	stored, err := c.Add(ctx, "key", "first", expires)
	assert.NoError(t, err)
	assert.True(t, stored)

	found, val, _ := l1.Get(ctx, "key")
	assert.True(t, found)
	assert.Equal(t, "first", val)

	// l1 losing the entry does not make the key absent.
	_, _ = l1.Remove(ctx, "key")
	stored, err = c.Add(ctx, "key", "second", expires)
	assert.NoError(t, err)
	assert.False(t, stored)

	found, _, _ = l1.Get(ctx, "key")
	assert.False(t, found)
	_, val, _ = c.Get(ctx, "key")
	assert.Equal(t, "first", val)
}

func TestCompositeAddKeepsLiveFrontEntry(t *testing.T) {
	ctx := context.Background()
	l1 := NewInMemory(ctx)
	l2 := NewInMemory(ctx)
	c := NewComposite(l1, l2)
	defer c.Close()

	expires := time.Now().Add(time.Minute)
	stored, err := c.Add(ctx, "key", "first", expires)
	require.NoError(t, err)
	require.True(t, stored)

	// The last tier losing its copy must not let a second Add replace what Get still sees.
	_, _ = l2.Remove(ctx, "key")
	stored, err = c.Add(ctx, "key", "second", expires)
	assert.NoError(t, err)
	assert.False(t, stored)

	_, val, _ := c.Get(ctx, "key")
	assert.Equal(t, "first", val)
	found, _, _ := l2.Get(ctx, "key")
	assert.False(t, found)
}

func TestCompositeAddAfterRedisFlush(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewComposite(NewInMemory(ctx), NewRedis(client))
	defer c.Close()

	expires := time.Now().Add(time.Minute)
	stored, err := c.Add(ctx, "key", "v1", expires)
	require.NoError(t, err)
	require.True(t, stored)

	mr.FlushAll()
	stored, err = c.Add(ctx, "key", "v2", expires)
	assert.NoError(t, err)
	assert.False(t, stored)

	ok, val, err := GetContext[string](ctx, c, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", val)
}

func TestCompositeRemoveAll(t *testing.T) {
	ctx := context.Background()
	l1 := NewInMemory(ctx)
	l2 := NewInMemory(ctx)
	c := NewComposite(l1, l2)
	defer c.Close()

	assert.NoError(t, c.Set(ctx, "key", "value", time.Now().Add(time.Minute)))

	found, err := c.Remove(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	for _, l := range []Store{l1, l2} {
		found, _, err = l.Get(ctx, "key")
		assert.NoError(t, err)
		assert.False(t, found)
	}

	found, err = c.Remove(ctx, "nope")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCompositeMemoryOverRedis(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	l1 := NewInMemory(ctx)
	l2 := NewRedis(client, WithPrefix("composite"))
	c := NewComposite(l1, l2)
	defer c.Close()

	assert.NoError(t, l2.Set(ctx, "key", "redis-value", time.Now().Add(time.Minute)))

	ok, val, err := GetContext[string](ctx, c, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "redis-value", val)

	found, v, err := c.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}
