package cache

import (
	"context"
	"time"
)

type compositeStore struct {
	stores []Store
}

var _ Store = (*compositeStore)(nil)

// NewComposite returns a Store that chains multiple stores together.
// Get checks stores in order and returns the first hit.
// Set writes to all stores.
// Add fails if any front store holds a live entry; otherwise it is decided by
// the last store, which is treated as authoritative, and the value is then
// mirrored into the stores in front of it.
// At least one store must be provided; panics if empty.
func NewComposite(stores ...Store) Store {
	if len(stores) == 0 {
		panic("cache: NewComposite requires at least one store")
	}
	return &compositeStore{stores: stores}
}

func (c *compositeStore) Get(ctx context.Context, key string) (bool, any, error) {
	for _, store := range c.stores {
		found, val, err := store.Get(ctx, key)
		if err != nil {
			return false, nil, err
		}
		if found {
			return true, val, nil
		}
	}
	return false, nil, nil
}

func (c *compositeStore) Set(ctx context.Context, key string, val any, expiresAt time.Time) error {
	var firstErr error
	for _, store := range c.stores {
		if err := store.Set(ctx, key, val, expiresAt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *compositeStore) Add(ctx context.Context, key string, val any, expiresAt time.Time) (bool, error) {
	last := len(c.stores) - 1
	// A live entry in a front tier is visible to Get, so it blocks the Add even
	// when the last tier has lost its copy.
	for _, store := range c.stores[:last] {
		found, _, err := store.Get(ctx, key)
		if err != nil {
			return false, err
		}
		if found {
			return false, nil
		}
	}
	stored, err := c.stores[last].Add(ctx, key, val, expiresAt)
	if err != nil || !stored {
		return false, err
	}
	var firstErr error
	for _, store := range c.stores[:last] {
		if err := store.Set(ctx, key, val, expiresAt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return true, firstErr
}

func (c *compositeStore) Remove(ctx context.Context, key string) (bool, error) {
	anyFound := false
	for _, store := range c.stores {
		found, err := store.Remove(ctx, key)
		if err != nil {
			return anyFound, err
		}
		if found {
			anyFound = true
		}
	}
	return anyFound, nil
}

func (c *compositeStore) Close() error {
	var firstErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
