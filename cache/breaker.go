package cache

import (
	"context"
	"time"

	"github.com/agentuity/go-resultcache/resilience"
)

type breakerStore struct {
	store   Store
	breaker *resilience.CircuitBreaker
}

var _ Store = (*breakerStore)(nil)

// NewBreaker wraps store so that its calls go through a circuit breaker.
// While the circuit is open every call fails fast with
// resilience.ErrCircuitBreakerOpen instead of waiting on a dead backend.
func NewBreaker(store Store, cfg resilience.CircuitBreakerConfig) Store {
	return &breakerStore{
		store:   store,
		breaker: resilience.NewCircuitBreaker(cfg),
	}
}

// Breaker returns the circuit breaker guarding a store built by NewBreaker.
func Breaker(s Store) (*resilience.CircuitBreaker, bool) {
	if b, ok := s.(*breakerStore); ok {
		return b.breaker, true
	}
	return nil, false
}

func (b *breakerStore) Get(ctx context.Context, key string) (bool, any, error) {
	var found bool
	var val any
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, val, err = b.store.Get(ctx, key)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return found, val, nil
}

func (b *breakerStore) Set(ctx context.Context, key string, val any, expiresAt time.Time) error {
	return b.breaker.Execute(ctx, func(ctx context.Context) error {
		return b.store.Set(ctx, key, val, expiresAt)
	})
}

func (b *breakerStore) Add(ctx context.Context, key string, val any, expiresAt time.Time) (bool, error) {
	var stored bool
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		stored, err = b.store.Add(ctx, key, val, expiresAt)
		return err
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}

func (b *breakerStore) Remove(ctx context.Context, key string) (bool, error) {
	var found bool
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		found, err = b.store.Remove(ctx, key)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (b *breakerStore) Close() error {
	return b.store.Close()
}
