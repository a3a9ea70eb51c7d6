package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for rate limit data storage.
type Store interface {
	// Admit prunes timestamps for key older than window and, if fewer than
	// limit remain, records the current time and reports true. A rejected
	// request is not recorded.
	Admit(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, err error)
}
