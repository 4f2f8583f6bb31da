package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimpleStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewInMemory(ctx, WithExpiryCheck(time.Second))
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
	cancel()
}

func TestSetGetStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx, WithExpiryCheck(time.Minute))
	defer store.Close()

	found, val, err := store.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, store.Set(ctx, "test", "value", time.Now().Add(10*time.Millisecond)))
	found, val, err = store.Get(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)

	time.Sleep(15 * time.Millisecond)
	found, val, err = store.Get(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestInMemoryStoresReference(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx)
	defer store.Close()

	rows := []int{1, 2, 3}
	assert.NoError(t, store.Set(ctx, "rows", rows, time.Now().Add(time.Minute)))
	_, val, err := store.Get(ctx, "rows")
	assert.NoError(t, err)
	got := val.([]int)
	got[0] = 42
	assert.Equal(t, 42, rows[0], "in-memory store must hand back the same slice")
}

func TestInMemoryAddKeepsLiveEntry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx)
	defer store.Close()

	stored, err := store.Add(ctx, "key", "first", time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.True(t, stored)

	stored, err = store.Add(ctx, "key", "second", time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.False(t, stored)

	_, val, err := store.Get(ctx, "key")
	assert.NoError(t, err)
	assert.Equal(t, "first", val)
}

func TestInMemoryAddReplacesExpiredEntry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx)
	defer store.Close()

	assert.NoError(t, store.Set(ctx, "key", "stale", time.Now().Add(5*time.Millisecond)))
	time.Sleep(10 * time.Millisecond)

	stored, err := store.Add(ctx, "key", "fresh", time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.True(t, stored)

	_, val, err := store.Get(ctx, "key")
	assert.NoError(t, err)
	assert.Equal(t, "fresh", val)
}

func TestStoreBackgroundExpire(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx, WithExpiryCheck(time.Millisecond*100))
	defer store.Close()

	assert.NoError(t, store.Set(ctx, "test", "value", time.Now().Add(90*time.Millisecond)))
	found, val, err := store.Get(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)

	time.Sleep(time.Millisecond * 250)
	c := store.(*inMemoryStore)
	c.mutex.Lock()
	assert.Empty(t, c.cache)
	c.mutex.Unlock()
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx, WithExpiryCheck(time.Millisecond*100))
	defer store.Close()

	assert.NoError(t, store.Set(ctx, "test", "value", time.Now().Add(time.Minute)))
	found, err := store.Remove(ctx, "test")
	assert.NoError(t, err)
	assert.True(t, found)

	found, err = store.Remove(ctx, "test")
	assert.NoError(t, err)
	assert.False(t, found)

	c := store.(*inMemoryStore)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	assert.Empty(t, c.cache)
}

func TestInMemoryMaxEntries(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx, WithMaxEntries(2))
	defer store.Close()

	now := time.Now()
	assert.NoError(t, store.Set(ctx, "soon", 1, now.Add(time.Minute)))
	assert.NoError(t, store.Set(ctx, "later", 2, now.Add(time.Hour)))
	assert.NoError(t, store.Set(ctx, "latest", 3, now.Add(2*time.Hour)))

	found, _, err := store.Get(ctx, "soon")
	assert.NoError(t, err)
	assert.False(t, found, "entry closest to expiry should be evicted")

	found, _, _ = store.Get(ctx, "later")
	assert.True(t, found)
	found, _, _ = store.Get(ctx, "latest")
	assert.True(t, found)

	// Overwriting an existing key never evicts.
	assert.NoError(t, store.Set(ctx, "later", 20, now.Add(time.Hour)))
	found, _, _ = store.Get(ctx, "latest")
	assert.True(t, found)
}

func TestInMemoryGranularity(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx, WithGranularity(time.Hour))
	defer store.Close()

	requested := time.Now().Add(time.Millisecond)
	assert.NoError(t, store.Set(ctx, "key", "value", requested))

	c := store.(*inMemoryStore)
	c.mutex.Lock()
	expires := c.cache["key"].expires
	c.mutex.Unlock()
	assert.False(t, expires.Before(requested))
	assert.Equal(t, expires, expires.Truncate(time.Hour))
}
