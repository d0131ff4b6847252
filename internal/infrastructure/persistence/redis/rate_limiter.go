package redis

import (
	"context"
	"time"
)

// RateLimiter is a fixed-window limiter keyed by client identity.
// Counters live in Redis so every instance shares the same budget.
type RateLimiter struct {
	cache  *Cache
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(cache *Cache, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		cache:  cache,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter for identifier and reports whether the
// request fits into the current window.
func (l *RateLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, errEmptyIdentifier
	}

	slot := l.now().UnixNano() / int64(l.window)
	key := l.cache.rateLimitKey(identifier, slot)

	pipe := l.cache.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(l.limit), nil
}
