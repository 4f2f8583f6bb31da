package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client redis.UniversalClient
	cfg    config
}

var _ Store = (*redisStore)(nil)

// NewRedis returns a new Store backed by Redis. Expiry uses native Redis TTLs,
// so no background goroutine is started.
// The caller owns the client; Close leaves it open.
func NewRedis(client redis.UniversalClient, opts ...Option) Store {
	cfg := applyOptions(opts)
	return &redisStore{
		client: client,
		cfg:    cfg,
	}
}

func (c *redisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.cfg.queryTimeout)
}

func (c *redisStore) prefixKey(key string) string {
	if c.cfg.prefix == "" {
		return key
	}
	return c.cfg.prefix + ":" + key
}

func (c *redisStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	data, err := c.client.Get(qctx, c.prefixKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, Encoded(data), nil
}

func (c *redisStore) Set(ctx context.Context, key string, val any, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < time.Millisecond {
		// A zero TTL means "no expiry" to Redis; an already expired entry is simply absent.
		_, err := c.Remove(ctx, key)
		return err
	}
	data, err := encode(val)
	if err != nil {
		return err
	}
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	return c.client.Set(qctx, c.prefixKey(key), []byte(data), ttl).Err()
}

func (c *redisStore) Add(ctx context.Context, key string, val any, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Millisecond {
		return false, nil
	}
	data, err := encode(val)
	if err != nil {
		return false, err
	}
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	return c.client.SetNX(qctx, c.prefixKey(key), []byte(data), ttl).Result()
}

func (c *redisStore) Remove(ctx context.Context, key string) (bool, error) {
	qctx, cancel := c.queryCtx(ctx)
	defer cancel()
	result, err := c.client.Del(qctx, c.prefixKey(key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// Close is a no-op, the caller owns the redis client.
func (c *redisStore) Close() error {
	return nil
}
