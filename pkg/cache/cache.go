package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options controls cache behavior.
type Options struct {
	TTL time.Duration
}

// Hooks allows callers to observe cache activity, typically for metrics.
type Hooks struct {
	OnHit   func(key string)
	OnMiss  func(key string)
	OnStore func(key string)
	OnError func(key string)
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a TTL cache with singleflight loading. Concurrent callers racing
// an expired entry trigger exactly one load; the last successful load wins.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*entry
	opts  Options
	hooks Hooks
	sf    singleflight.Group
}

// Loader fetches the value for a key on miss. A false ok means the value
// could not be loaded and nothing is cached.
type Loader func(ctx context.Context, key string) (interface{}, bool, error)

func New(opts Options, hooks Hooks) *Cache {
	return &Cache{
		items: make(map[string]*entry),
		opts:  opts,
		hooks: hooks,
	}
}

type loadResult struct {
	val interface{}
	ok  bool
	err error
}

// Get returns the cached value for key, loading it via loader when absent
// or expired.
func (c *Cache) Get(ctx context.Context, key string, loader Loader) (interface{}, bool, error) {
	now := time.Now()
	c.mu.RLock()
	if e, ok := c.items[key]; ok && now.Before(e.expiresAt) {
		c.mu.RUnlock()
		if c.hooks.OnHit != nil {
			c.hooks.OnHit(key)
		}
		return e.value, true, nil
	}
	c.mu.RUnlock()

	if c.hooks.OnMiss != nil {
		c.hooks.OnMiss(key)
	}
	result, _, _ := c.sf.Do(key, func() (interface{}, error) {
		val, ok, err := loader(ctx, key)
		if ok {
			c.Set(key, val)
		} else if c.hooks.OnError != nil {
			c.hooks.OnError(key)
		}
		return loadResult{val: val, ok: ok, err: err}, nil
	})
	res := result.(loadResult)
	if !res.ok {
		return nil, false, res.err
	}
	return res.val, true, nil
}

// Set stores a value with the cache's configured TTL.
func (c *Cache) Set(key string, val interface{}) {
	c.mu.Lock()
	c.items[key] = &entry{value: val, expiresAt: time.Now().Add(c.opts.TTL)}
	c.mu.Unlock()
	if c.hooks.OnStore != nil {
		c.hooks.OnStore(key)
	}
}

// Peek returns a cached value without triggering a load.
func (c *Cache) Peek(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Delete removes a key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
