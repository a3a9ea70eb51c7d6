package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given client identity should be allowed.
	Allow(ctx context.Context, identity string) (allowed bool, err error)
}

// SlidingWindowLimiter admits at most limit requests per identity within any
// trailing window. It is a soft limit: concurrent requests from one identity
// may race past the threshold.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	return l.store.Admit(ctx, identity, l.limit, l.window)
}

// Limit returns the number of requests admitted per window.
func (l *SlidingWindowLimiter) Limit() int64 {
	return l.limit
}

// Window returns the trailing window length.
func (l *SlidingWindowLimiter) Window() time.Duration {
	return l.window
}
