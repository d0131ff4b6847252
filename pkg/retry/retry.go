// Package retry re-runs an operation with capped exponential backoff.
// The server uses it to wait for PostgreSQL and Redis during startup.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Retrier runs an operation until it succeeds, the attempts run out,
// the error is classified as final, or the context ends.
type Retrier struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	jitter    float64
	retryIf   func(error) bool
	onRetry   func(attempt int, err error, delay time.Duration)
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts caps the number of calls, the first one included.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBackoff sets the first delay and the ceiling every later delay is clamped to.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(r *Retrier) {
		if base > 0 {
			r.baseDelay = base
		}
		if ceiling >= r.baseDelay {
			r.maxDelay = ceiling
		}
	}
}

// WithRetryIf replaces the default Transient classifier.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) {
		if fn != nil {
			r.retryIf = fn
		}
	}
}

// WithOnRetry registers a hook called before every sleep.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// New builds a Retrier: 3 attempts, 100ms doubling to 30s, 10% jitter.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		attempts:  3,
		baseDelay: 100 * time.Millisecond,
		maxDelay:  30 * time.Second,
		jitter:    0.1,
		retryIf:   Transient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls op until it returns nil or the Retrier gives up, and returns
// the last error op produced. If ctx is done before the first call, ctx.Err()
// is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= r.attempts || !r.retryIf(lastErr) {
			return lastErr
		}

		delay := r.delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
}

// delay is base * 2^(attempt-1), clamped to maxDelay, then jittered by ±jitter.
func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.baseDelay)
	for i := 1; i < attempt && d < float64(r.maxDelay); i++ {
		d *= 2
	}
	d = min(d, float64(r.maxDelay))

	if r.jitter > 0 {
		d += d * r.jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(max(d, 0))
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// Transient treats every error as retryable except context cancellation.
func Transient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// DatabaseRetrier waits for the database. A freshly started container may
// take several seconds to accept connections. Extra options are applied last.
func DatabaseRetrier(onRetry func(attempt int, err error, delay time.Duration), opts ...Option) *Retrier {
	return New(append([]Option{
		WithMaxAttempts(8),
		WithBackoff(250*time.Millisecond, 5*time.Second),
		WithOnRetry(onRetry),
	}, opts...)...)
}

// CacheRetrier waits for Redis. The cache is optional, so it gives up sooner.
func CacheRetrier(onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(3),
		WithBackoff(200*time.Millisecond, time.Second),
		WithOnRetry(onRetry),
	)
}
