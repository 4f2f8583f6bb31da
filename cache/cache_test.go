package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInProcessValue(t *testing.T) {
	val, err := Decode[int](42)
	assert.NoError(t, err)
	assert.Equal(t, 42, val)

	_, err = Decode[string](42)
	assert.Error(t, err)
}

func TestDecodeNil(t *testing.T) {
	val, err := Decode[any](nil)
	assert.NoError(t, err)
	assert.Nil(t, val)

	ptr, err := Decode[*int](nil)
	assert.NoError(t, err)
	assert.Nil(t, ptr)

	ctx := context.Background()
	store := NewInMemory(ctx)
	defer store.Close()
	require.NoError(t, store.Set(ctx, "nil", nil, time.Now().Add(time.Minute)))
	found, got, err := GetContext[any](ctx, store, "nil")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, got)
}

func TestDecodeEncodedBytes(t *testing.T) {
	data, err := encode([]byte("raw"))
	require.NoError(t, err)

	// A []byte payload must be unmarshalled, not handed back still encoded.
	val, err := Decode[[]byte](data)
	assert.NoError(t, err)
	assert.Equal(t, []byte("raw"), val)
}

func TestGetContextHelper(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(ctx)
	defer store.Close()

	found, val, err := GetContext[string](ctx, store, "missing")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	assert.NoError(t, store.Set(ctx, "key", "value", time.Now().Add(time.Minute)))
	found, val, err = GetContext[string](ctx, store, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)

	found, _, err = GetContext[int](ctx, store, "key")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestDeadlineGranularity(t *testing.T) {
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	cfg := config{granularity: time.Minute}
	assert.Equal(t, base, cfg.deadline(base))
	assert.Equal(t, base.Add(time.Minute), cfg.deadline(base.Add(time.Second)))

	cfg.granularity = 0
	assert.Equal(t, base.Add(time.Second), cfg.deadline(base.Add(time.Second)))
}
