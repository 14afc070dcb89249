// Package cache keeps short-lived aggregates that are costly to recompute.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache holds values of one type for a fixed TTL. Concurrent misses on a key
// share one load, and a load that overlaps an Invalidate is not stored.
type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]item[V]
	gen   map[string]uint64

	loads singleflight.Group
}

type item[V any] struct {
	val     V
	expires time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache[V]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]item[V]),
		gen:   make(map[string]uint64),
	}
}

// WithClock replaces the time source, for tests.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || c.now().After(it.expires) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return it.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.items[key] = item[V]{val: val, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops key. Loads already running for it finish unseen by later callers.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.gen[key]++
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load. Load errors are not cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	startGen := c.gen[key]
	c.mu.Unlock()

	// one flight per generation: callers after an Invalidate never join an older load
	flight := key + "#" + strconv.FormatUint(startGen, 10)
	v, err, _ := c.loads.Do(flight, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		c.mu.Lock()
		if c.gen[key] == startGen {
			c.items[key] = item[V]{val: val, expires: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
