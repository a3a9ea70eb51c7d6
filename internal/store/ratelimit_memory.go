package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/clock"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Every call sweeps identities whose windows have emptied, so memory stays
// bounded without a background timer at the cost of O(identities) per call.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	clock    clock.Clock
	requests map[string][]time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore(clk clock.Clock) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		clock:    clk,
		requests: make(map[string][]time.Time),
	}
}

func (s *RateLimitMemoryStore) Admit(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	cutoff := now.Add(-window)

	for k, timestamps := range s.requests {
		valid := prune(timestamps, cutoff)
		if len(valid) == 0 {
			delete(s.requests, k)

			continue
		}

		s.requests[k] = valid
	}

	timestamps := s.requests[key]
	if int64(len(timestamps)) >= limit {
		return false, nil
	}

	s.requests[key] = append(timestamps, now)

	return true, nil
}

// Tracked returns the number of identities with at least one live timestamp.
func (s *RateLimitMemoryStore) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// order, so everything after the first live one is live too.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range timestamps {
		if ts.After(cutoff) {
			return timestamps[i:]
		}
	}

	return nil
}
