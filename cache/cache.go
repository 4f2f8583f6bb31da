package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is the storage primitive a result cache sits on. Every method must be
// safe for concurrent use; callers add no locking of their own.
type Store interface {
	// Set stores val under key until expiresAt, replacing any existing entry.
	Set(ctx context.Context, key string, val any, expiresAt time.Time) error
	// Add stores val under key until expiresAt only if no live entry exists.
	// It reports whether the value was stored. An existing live entry is left
	// untouched and is not an error.
	Add(ctx context.Context, key string, val any, expiresAt time.Time) (bool, error)
	// Get returns the live entry for key. Expired entries are reported as not found.
	Get(ctx context.Context, key string) (bool, any, error)
	// Remove deletes the entry for key and reports whether one existed.
	Remove(ctx context.Context, key string) (bool, error)
	// Close shuts down the store.
	Close() error
}

// Encoded is a msgpack payload returned by stores that serialize values
// (SQLite, Redis). Use Decode to turn it back into a typed value.
type Encoded []byte

// Decode converts a value returned by Store.Get into T.
// In-process values are type asserted, Encoded values are unmarshalled with msgpack.
func Decode[T any](val any) (T, error) {
	var zero T
	if data, ok := val.(Encoded); ok {
		var result T
		if err := msgpack.Unmarshal(data, &result); err != nil {
			return zero, fmt.Errorf("cache: failed to unmarshal value: %w", err)
		}
		return result, nil
	}
	if val == nil {
		// A nil stored under an interface type comes back as an untyped nil.
		return zero, nil
	}
	if typed, ok := val.(T); ok {
		return typed, nil
	}
	return zero, fmt.Errorf("cache: cannot convert value of type %T to %T", val, zero)
}

// GetContext retrieves a typed value from the store.
func GetContext[T any](ctx context.Context, s Store, key string) (bool, T, error) {
	found, val, err := s.Get(ctx, key)
	if !found || err != nil {
		var zero T
		return false, zero, err
	}
	typed, err := Decode[T](val)
	if err != nil {
		return false, typed, err
	}
	return true, typed, nil
}

func encode(val any) (Encoded, error) {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to marshal value: %w", err)
	}
	return Encoded(data), nil
}

// DefaultQueryTimeout is the per-operation timeout for stores that perform
// I/O (SQLite, Redis).
const DefaultQueryTimeout = 5 * time.Second

// DefaultExpiryCheck is how often the background reaper of the in-memory and
// SQLite stores removes expired entries.
const DefaultExpiryCheck = time.Minute

// config holds the resolved configuration for a Store implementation.
type config struct {
	queryTimeout time.Duration
	expiryCheck  time.Duration
	prefix       string
	maxEntries   int
	granularity  time.Duration
}

// Option configures a Store implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		queryTimeout: DefaultQueryTimeout,
		expiryCheck:  DefaultExpiryCheck,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.expiryCheck <= 0 {
		cfg.expiryCheck = DefaultExpiryCheck
	}
	if cfg.queryTimeout <= 0 {
		cfg.queryTimeout = DefaultQueryTimeout
	}
	return cfg
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed stores
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithExpiryCheck sets the interval for background expired entry cleanup.
// Applies to InMemory and SQLite stores. Defaults to 1 minute.
func WithExpiryCheck(d time.Duration) Option {
	return func(c *config) { c.expiryCheck = d }
}

// WithPrefix sets the key prefix for namespacing keys.
// Applies to the Redis store. Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithMaxEntries caps the number of entries held by the InMemory store.
// Zero means unlimited.
func WithMaxEntries(n int) Option {
	return func(c *config) { c.maxEntries = n }
}

// WithGranularity rounds every expiration deadline up to a multiple of d.
// Applies to InMemory and SQLite stores. Zero keeps deadlines exact.
func WithGranularity(d time.Duration) Option {
	return func(c *config) { c.granularity = d }
}

func (c config) deadline(t time.Time) time.Time {
	if c.granularity <= 0 {
		return t
	}
	r := t.Truncate(c.granularity)
	if r.Before(t) {
		r = r.Add(c.granularity)
	}
	return r
}
