package resultcache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentuity/go-resultcache/cache"
	"github.com/agentuity/go-resultcache/logger"
	"github.com/agentuity/go-resultcache/resilience"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/redis/go-redis/v9"
	"github.com/xhit/go-str2duration/v2"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

// Backend selects the store a ResultCache keeps its entries in.
type Backend string

const (
	// BackendMemory keeps entries in a process-local map. This is the default.
	BackendMemory Backend = "memory"
	// BackendSQLite keeps msgpack-encoded entries in a SQLite database.
	BackendSQLite Backend = "sqlite"
	// BackendRedis keeps msgpack-encoded entries in Redis.
	BackendRedis Backend = "redis"
	// BackendTiered puts a process-local map in front of Redis.
	BackendTiered Backend = "tiered"
)

// Duration is a time.Duration that reads "90s", "15m" or "1d12h" from config files.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := str2duration.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(str2duration.String(time.Duration(d))), nil
}

// SQLiteConfig configures BackendSQLite.
type SQLiteConfig struct {
	// Path of the database file. Empty or ":memory:" keeps it in memory.
	Path string `yaml:"path" toml:"path"`
}

// RedisConfig configures BackendRedis and the second tier of BackendTiered.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	// Prefix namespaces keys in a shared Redis instance.
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// BreakerConfig puts a circuit breaker in front of an I/O-backed store. It is
// the file form of resilience.CircuitBreakerConfig; zero fields keep the
// resilience defaults.
type BreakerConfig struct {
	MaxFailures           int      `yaml:"max_failures" toml:"max_failures"`
	Timeout               Duration `yaml:"timeout" toml:"timeout"`
	MaxConcurrentRequests int      `yaml:"max_concurrent_requests" toml:"max_concurrent_requests"`
	SuccessThreshold      int      `yaml:"success_threshold" toml:"success_threshold"`
	RequestTimeout        Duration `yaml:"request_timeout" toml:"request_timeout"`
}

func (b BreakerConfig) circuitBreakerConfig() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	if b.MaxFailures > 0 {
		cfg.MaxFailures = b.MaxFailures
	}
	if b.Timeout > 0 {
		cfg.Timeout = time.Duration(b.Timeout)
	}
	if b.MaxConcurrentRequests > 0 {
		cfg.MaxConcurrentRequests = b.MaxConcurrentRequests
	}
	if b.SuccessThreshold > 0 {
		cfg.SuccessThreshold = b.SuccessThreshold
	}
	if b.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(b.RequestTimeout)
	}
	return cfg
}

// Config holds the options a ResultCache is built with. Apart from the
// runtime hooks, every option is handed to the store.
// The zero value is a valid in-memory configuration.
type Config struct {
	// Backend selects the store. Defaults to BackendMemory.
	Backend Backend `yaml:"backend" toml:"backend"`
	// ExpiryCheck is how often expired entries are swept by stores that poll.
	ExpiryCheck Duration `yaml:"expiry_check" toml:"expiry_check"`
	// MaxEntries limits the in-memory store. Zero means unlimited.
	MaxEntries int `yaml:"max_entries" toml:"max_entries"`
	// Granularity rounds expiration deadlines up to a multiple of itself.
	Granularity Duration `yaml:"granularity" toml:"granularity"`
	// QueryTimeout bounds each I/O-backed store operation.
	QueryTimeout Duration `yaml:"query_timeout" toml:"query_timeout"`

	SQLite  SQLiteConfig   `yaml:"sqlite" toml:"sqlite"`
	Redis   RedisConfig    `yaml:"redis" toml:"redis"`
	Breaker *BreakerConfig `yaml:"breaker" toml:"breaker"`

	// Logger receives diagnostics. Defaults to a console logger at WARN,
	// overridable with RESULTCACHE_LOG_LEVEL.
	Logger logger.Logger `yaml:"-" toml:"-"`
	// TracerProvider supplies the tracer for operation spans. Defaults to the
	// global OpenTelemetry provider.
	TracerProvider trace.TracerProvider `yaml:"-" toml:"-"`
	// Policy computes entry deadlines. Defaults to AbsolutePolicy.
	Policy ExpirationPolicy `yaml:"-" toml:"-"`
	// RedisClient is used instead of dialing Redis.Addr. The caller keeps
	// ownership of it.
	RedisClient redis.UniversalClient `yaml:"-" toml:"-"`
	// Store bypasses Backend entirely and is used as-is. The ResultCache
	// closes it on Close.
	Store cache.Store `yaml:"-" toml:"-"`
}

func (c Config) validate() error {
	switch c.Backend {
	case "", BackendMemory, BackendSQLite, BackendRedis, BackendTiered:
	default:
		return configErrorf("unknown backend %q", c.Backend)
	}
	if c.MaxEntries < 0 {
		return configErrorf("max_entries must not be negative, got %d", c.MaxEntries)
	}
	for name, d := range map[string]Duration{
		"expiry_check":  c.ExpiryCheck,
		"granularity":   c.Granularity,
		"query_timeout": c.QueryTimeout,
	} {
		if d < 0 {
			return configErrorf("%s must not be negative, got %s", name, time.Duration(d))
		}
	}
	return nil
}

func (c Config) storeOptions() []cache.Option {
	opts := []cache.Option{
		cache.WithExpiryCheck(time.Duration(c.ExpiryCheck)),
		cache.WithQueryTimeout(time.Duration(c.QueryTimeout)),
		cache.WithGranularity(time.Duration(c.Granularity)),
		cache.WithMaxEntries(c.MaxEntries),
	}
	if c.Redis.Prefix != "" {
		opts = append(opts, cache.WithPrefix(c.Redis.Prefix))
	}
	return opts
}

// buildStore constructs the configured store. The returned cleanup releases
// resources owned by the store builder (a dialed Redis client) and is never nil.
func (c Config) buildStore(ctx context.Context) (cache.Store, func() error, error) {
	noop := func() error { return nil }
	if err := c.validate(); err != nil {
		return nil, noop, err
	}
	if c.Store != nil {
		return c.Store, noop, nil
	}
	opts := c.storeOptions()
	var store cache.Store
	cleanup := noop
	switch c.Backend {
	case "", BackendMemory:
		return cache.NewInMemory(ctx, opts...), noop, nil
	case BackendSQLite:
		s, err := cache.NewSQLite(ctx, c.SQLite.Path, opts...)
		if err != nil {
			return nil, noop, wrapConfigError(err, "opening sqlite store %q", c.SQLite.Path)
		}
		store = s
	case BackendRedis, BackendTiered:
		client, release, err := c.redisClient(ctx)
		if err != nil {
			return nil, noop, err
		}
		cleanup = release
		store = cache.NewRedis(client, opts...)
	}
	if c.Breaker != nil {
		store = cache.NewBreaker(store, c.Breaker.circuitBreakerConfig())
	}
	if c.Backend == BackendTiered {
		store = cache.NewComposite(cache.NewInMemory(ctx, opts...), store)
	}
	return store, cleanup, nil
}

func (c Config) redisClient(ctx context.Context) (redis.UniversalClient, func() error, error) {
	client := c.RedisClient
	release := func() error { return nil }
	if client == nil {
		if c.Redis.Addr == "" {
			return nil, release, configErrorf("backend %q requires redis.addr", c.Backend)
		}
		dialed := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		client = dialed
		release = dialed.Close
	}
	timeout := time.Duration(c.QueryTimeout)
	if timeout <= 0 {
		timeout = cache.DefaultQueryTimeout
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = release()
		return nil, release, wrapConfigError(err, "connecting to redis at %q", c.Redis.Addr)
	}
	return client, release, nil
}

// LoadConfig reads a Config from a YAML (.yaml, .yml) or TOML (.toml) file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, wrapConfigError(err, "reading config %q", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(buf, &cfg)
	case ".toml":
		err = toml.Unmarshal(buf, &cfg)
	default:
		return cfg, configErrorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return cfg, wrapConfigError(err, "parsing config %q", path)
	}
	return cfg, cfg.validate()
}
