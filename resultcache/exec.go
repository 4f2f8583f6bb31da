package resultcache

import (
	"context"
	"time"
)

// Invoker runs the query behind a cache entry. The bool reports whether a
// result was found; a not-found result is never cached.
type Invoker[V any] func(ctx context.Context) (V, bool, error)

// Exec is a read-through helper. On a hit it returns the cached value without
// calling invoke. On a miss it calls invoke and, when invoke finds a result,
// adds it under key for duration before returning it. Errors from invoke are
// returned as-is and nothing is cached.
func Exec[K comparable, V any](ctx context.Context, c *ResultCache[K, V], key K, duration time.Duration, invoke Invoker[V]) (bool, V, error) {
	if val, ok := c.Get(key); ok {
		return true, val, nil
	}
	var zero V
	result, found, err := invoke(ctx)
	if err != nil {
		return false, zero, err
	}
	if !found {
		return false, zero, nil
	}
	c.Add(key, result, duration)
	return true, result, nil
}
