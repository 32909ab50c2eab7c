package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/okian/catalyst/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL cache whose concurrent misses for the same key share one
// load. Failed loads are not cached.
type Cache[V any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	group   singleflight.Group
}

// NewCache creates a cache; name labels its hit/miss metrics.
func NewCache[V any](name string, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for one TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers of key. The load runs detached from any single caller's
// cancellation; a caller whose ctx ends stops waiting.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		metrics.RecordCacheHit(c.name)
		return v, nil
	}
	metrics.RecordCacheMiss(c.name)

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero V
			return zero, r.Err
		}
		return r.Val.(V), nil
	}
}
