package resultcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "@agentuity/go-resultcache"

// ResultCache maps query fingerprints of type K to materialized results of
// type V. It is safe for concurrent use.
type ResultCache[K comparable, V any] struct {
	name    string
	ctx     context.Context
	cancel  context.CancelFunc
	store   cache.Store
	release func() error
	policy  ExpirationPolicy
	logger  logger.Logger
	tracer  trace.Tracer
	once    sync.Once

	// tokens is append-only: a fingerprint keeps its token for the lifetime
	// of the cache, across purges and expirations.
	tokens   map[K]string
	tokensMu sync.RWMutex

	hits, misses, stored, skipped, purged, failures atomic.Uint64
}

// New builds a ResultCache named name. The name prefixes every key handed to
// the store and tags log lines and spans. The returned error matches
// ErrConfiguration when the store cannot be built from cfg.
func New[K comparable, V any](name string, cfg Config) (*ResultCache[K, V], error) {
	if name == "" {
		name = "resultcache"
	}
	ctx, cancel := context.WithCancel(context.Background())
	store, release, err := cfg.buildStore(ctx)
	if err != nil {
		cancel()
		return nil, wrapConfigError(err, "resultcache %q", name)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewConsoleLogger(logger.GetLevelFromEnvOr(logger.LevelWarn))
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	policy := cfg.Policy
	if policy == nil {
		policy = AbsolutePolicy{}
	}
	c := &ResultCache[K, V]{
		name:    name,
		ctx:     ctx,
		cancel:  cancel,
		store:   store,
		release: release,
		policy:  policy,
		logger:  log.WithPrefix("[" + name + "]"),
		tracer:  tp.Tracer(instrumentationName),
		tokens:  make(map[K]string),
	}
	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}
	c.logger.Debug("result cache created with %s backend", backend)
	return c, nil
}

// Name returns the name the cache was created with.
func (c *ResultCache[K, V]) Name() string {
	return c.name
}

// lookup returns the token already assigned to key, if any.
func (c *ResultCache[K, V]) lookup(key K) (string, bool) {
	c.tokensMu.RLock()
	token, ok := c.tokens[key]
	c.tokensMu.RUnlock()
	return token, ok
}

// resolve returns the token for key, assigning a new one on first use. The
// check and the assignment happen under one lock so concurrent first uses of
// the same fingerprint agree on a single token.
func (c *ResultCache[K, V]) resolve(key K) string {
	if token, ok := c.lookup(key); ok {
		return token
	}
	c.tokensMu.Lock()
	defer c.tokensMu.Unlock()
	if token, ok := c.tokens[key]; ok {
		return token
	}
	token := c.name + ":" + uuid.New().String()
	c.tokens[key] = token
	if c.logger.IsLevelEnabled(logger.LevelTrace) {
		c.logger.Trace("assigned token %s", token)
	}
	return token
}

func (c *ResultCache[K, V]) startSpan(op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("resultcache.name", c.name))
	return c.tracer.Start(c.ctx, op, trace.WithAttributes(attrs...))
}

func (c *ResultCache[K, V]) storeFailed(span trace.Span, op string, err error) {
	c.failures.Add(1)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Warn("%s failed: %s", op, err)
}

// Add caches value under key for duration. If a live entry already exists
// under key the call does nothing: the existing entry is kept as-is and no
// error is reported.
func (c *ResultCache[K, V]) Add(key K, value V, duration time.Duration) {
	c.AddOrReplace(key, value, duration, false)
}

// AddOrReplace caches value under key for duration. With overwrite set any
// existing entry is replaced; otherwise it behaves like Add. The entry is
// visible to Get as soon as the call returns and until duration has elapsed,
// so a zero or negative duration leaves nothing visible.
func (c *ResultCache[K, V]) AddOrReplace(key K, value V, duration time.Duration, overwrite bool) {
	ctx, span := c.startSpan("resultcache.AddOrReplace", attribute.Bool("resultcache.overwrite", overwrite))
	defer span.End()

	token := c.resolve(key)
	expiresAt := c.policy.ExpiresAt(time.Now(), duration)

	if overwrite {
		if err := c.store.Set(ctx, token, value, expiresAt); err != nil {
			c.storeFailed(span, "replace", err)
			return
		}
		c.stored.Add(1)
		span.SetAttributes(attribute.Bool("resultcache.stored", true))
		return
	}
	ok, err := c.store.Add(ctx, token, value, expiresAt)
	if err != nil {
		c.storeFailed(span, "add", err)
		return
	}
	if ok {
		c.stored.Add(1)
	} else {
		c.skipped.Add(1)
	}
	span.SetAttributes(attribute.Bool("resultcache.stored", ok))
}

// Get returns the live value cached under key. A key that was never added,
// has expired or was purged reports false.
func (c *ResultCache[K, V]) Get(key K) (V, bool) {
	var zero V
	ctx, span := c.startSpan("resultcache.Get")
	defer span.End()

	token, ok := c.lookup(key)
	if !ok {
		c.misses.Add(1)
		span.SetAttributes(attribute.Bool("resultcache.hit", false))
		return zero, false
	}
	found, raw, err := c.store.Get(ctx, token)
	if err != nil {
		c.misses.Add(1)
		c.storeFailed(span, "get", err)
		return zero, false
	}
	if !found {
		c.misses.Add(1)
		span.SetAttributes(attribute.Bool("resultcache.hit", false))
		return zero, false
	}
	val, err := cache.Decode[V](raw)
	if err != nil {
		c.misses.Add(1)
		c.storeFailed(span, "decode", err)
		return zero, false
	}
	c.hits.Add(1)
	span.SetAttributes(attribute.Bool("resultcache.hit", true))
	return val, true
}

// Purge removes the entry cached under key, if any. The key keeps its store
// token, so adding it again later reuses the same slot.
func (c *ResultCache[K, V]) Purge(key K) {
	ctx, span := c.startSpan("resultcache.Purge")
	defer span.End()

	token, ok := c.lookup(key)
	if !ok {
		return
	}
	found, err := c.store.Remove(ctx, token)
	if err != nil {
		c.storeFailed(span, "purge", err)
		return
	}
	if found {
		c.purged.Add(1)
	}
	span.SetAttributes(attribute.Bool("resultcache.found", found))
}

// Close releases the store. The cache must not be used afterwards.
func (c *ResultCache[K, V]) Close() error {
	var err error
	c.once.Do(func() {
		err = c.store.Close()
		if rerr := c.release(); err == nil {
			err = rerr
		}
		c.cancel()
		c.logger.Debug("result cache closed")
	})
	return err
}

// Stats is a point-in-time snapshot of a cache's counters.
type Stats struct {
	// Hits and Misses count Get calls.
	Hits   uint64
	Misses uint64
	// Stored counts values written to the store, Skipped counts Add calls
	// that found a live entry.
	Stored  uint64
	Skipped uint64
	// Purged counts Purge calls that removed an entry.
	Purged uint64
	// Failures counts store errors that were absorbed.
	Failures uint64
	// Keys is the number of fingerprints that have a token.
	Keys int
}

// Stats returns the current counters.
func (c *ResultCache[K, V]) Stats() Stats {
	c.tokensMu.RLock()
	keys := len(c.tokens)
	c.tokensMu.RUnlock()
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Stored:   c.stored.Load(),
		Skipped:  c.skipped.Load(),
		Purged:   c.purged.Load(),
		Failures: c.failures.Load(),
		Keys:     keys,
	}
}
