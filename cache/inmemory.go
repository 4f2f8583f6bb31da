package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	object  any
	expires time.Time
}

func (e *entry) live(now time.Time) bool {
	return now.Before(e.expires)
}

type inMemoryStore struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cache     map[string]*entry
	mutex     sync.Mutex
	waitGroup sync.WaitGroup
	once      sync.Once
	cfg       config
}

var _ Store = (*inMemoryStore)(nil)

func (c *inMemoryStore) Get(_ context.Context, key string) (bool, any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	val, ok := c.cache[key]
	if !ok {
		return false, nil, nil
	}
	if !val.live(time.Now()) {
		delete(c.cache, key)
		return false, nil, nil
	}
	return true, val.object, nil
}

func (c *inMemoryStore) Set(_ context.Context, key string, val any, expiresAt time.Time) error {
	expiresAt = c.cfg.deadline(expiresAt)
	c.mutex.Lock()
	if v, ok := c.cache[key]; ok {
		v.expires = expiresAt
		v.object = val
	} else {
		c.makeRoom(time.Now())
		c.cache[key] = &entry{val, expiresAt}
	}
	c.mutex.Unlock()
	return nil
}

func (c *inMemoryStore) Add(_ context.Context, key string, val any, expiresAt time.Time) (bool, error) {
	expiresAt = c.cfg.deadline(expiresAt)
	now := time.Now()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if v, ok := c.cache[key]; ok {
		if v.live(now) {
			return false, nil
		}
		v.expires = expiresAt
		v.object = val
		return true, nil
	}
	c.makeRoom(now)
	c.cache[key] = &entry{val, expiresAt}
	return true, nil
}

func (c *inMemoryStore) Remove(_ context.Context, key string) (bool, error) {
	c.mutex.Lock()
	_, ok := c.cache[key]
	if ok {
		delete(c.cache, key)
	}
	c.mutex.Unlock()
	return ok, nil
}

func (c *inMemoryStore) Close() error {
	c.once.Do(func() {
		c.cancel()
		c.waitGroup.Wait()
		c.mutex.Lock()
		clear(c.cache)
		c.mutex.Unlock()
	})
	return nil
}

// makeRoom must be called with the mutex held, before inserting a new key.
func (c *inMemoryStore) makeRoom(now time.Time) {
	if c.cfg.maxEntries <= 0 || len(c.cache) < c.cfg.maxEntries {
		return
	}
	c.sweep(now)
	if len(c.cache) < c.cfg.maxEntries {
		return
	}
	var victim string
	var earliest time.Time
	for key, val := range c.cache {
		if victim == "" || val.expires.Before(earliest) {
			victim = key
			earliest = val.expires
		}
	}
	delete(c.cache, victim)
}

func (c *inMemoryStore) sweep(now time.Time) {
	for key, val := range c.cache {
		if !val.live(now) {
			delete(c.cache, key)
		}
	}
}

func (c *inMemoryStore) run() {
	defer c.waitGroup.Done()
	ticker := time.NewTicker(c.cfg.expiryCheck)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			c.mutex.Lock()
			c.sweep(now)
			c.mutex.Unlock()
		}
	}
}

// NewInMemory returns a new in-memory Store. Values are kept as-is, without copying.
func NewInMemory(parent context.Context, opts ...Option) Store {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)
	c := &inMemoryStore{
		ctx:    ctx,
		cancel: cancel,
		cache:  make(map[string]*entry),
		cfg:    cfg,
	}
	c.waitGroup.Add(1)
	go c.run()
	return c
}
