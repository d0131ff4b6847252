package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/pkg/circuitbreaker"
)

// GroupCache implements group.Cache on top of Cache.
// With a breaker attached, calls fail fast with circuitbreaker.ErrCircuitOpen
// while Redis keeps failing.
type GroupCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
}

// GroupCacheOption configures a GroupCache.
type GroupCacheOption func(*GroupCache)

// WithBreaker guards every Redis call with cb.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) GroupCacheOption {
	return func(c *GroupCache) {
		c.breaker = cb
	}
}

// NewGroupCache creates a new GroupCache.
func NewGroupCache(cache *Cache, opts ...GroupCacheOption) *GroupCache {
	c := &GroupCache{cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a cached group. A miss is reported as (nil, nil).
func (c *GroupCache) Get(ctx context.Context, id int64) (*group.Group, error) {
	var (
		g   group.Group
		hit bool
	)
	err := c.guard(ctx, func(ctx context.Context) error {
		err := c.cache.getJSON(ctx, c.cache.groupKey(id), &g)
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		hit = err == nil
		return err
	})
	if err != nil || !hit {
		return nil, err
	}
	return &g, nil
}

// Set caches a group for ttl. A non-positive ttl uses TTLGroupCache.
func (c *GroupCache) Set(ctx context.Context, g *group.Group, ttl time.Duration) error {
	if g == nil {
		return ErrCacheNilValue
	}
	if ttl <= 0 {
		ttl = TTLGroupCache
	}
	return c.guard(ctx, func(ctx context.Context) error {
		return c.cache.setJSON(ctx, c.cache.groupKey(g.ID), g, ttl)
	})
}

// Invalidate drops a cached group.
func (c *GroupCache) Invalidate(ctx context.Context, id int64) error {
	return c.guard(ctx, func(ctx context.Context) error {
		return c.cache.client.Del(ctx, c.cache.groupKey(id)).Err()
	})
}

// Ping reports the cache down while the breaker is open, so /health agrees
// with what group lookups currently see.
func (c *GroupCache) Ping(ctx context.Context) error {
	if c.breaker != nil && c.breaker.State() == circuitbreaker.StateOpen {
		return fmt.Errorf("%s: %w", c.breaker.Name(), circuitbreaker.ErrCircuitOpen)
	}
	return c.cache.Ping(ctx)
}

func (c *GroupCache) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}
