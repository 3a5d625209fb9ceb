// Package ratelimiter throttles the rate at which the acceptor admits new
// connections, bounding worker spawn churn under connection floods.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket: tokens accrue at a sustained per-second
// rate, each admitted connection consumes one, and the burst capacity allows
// short spikes above the sustained rate. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter admitting acceptsPerSecond sustained with the
// given burst capacity. acceptsPerSecond of 0 disables limiting.
func New(acceptsPerSecond, burst uint) *RateLimiter {
	if acceptsPerSecond == 0 {
		// Effectively unlimited. rate.Inf has awkward burst semantics,
		// so use a very large finite rate instead.
		acceptsPerSecond = 1_000_000_000
		burst = acceptsPerSecond
	}
	if burst == 0 {
		// A zero-capacity bucket would never admit anything.
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(acceptsPerSecond), int(burst)),
	}
}

// Allow reports whether one connection may be admitted right now, consuming
// a token when it may.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
