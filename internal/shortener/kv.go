package shortener

import (
	"context"
	"time"
)

// KV is the key-value capability links are persisted in. Implementations
// return ErrNotFound from Get for missing or expired keys, treat a
// non-positive ttl as "never expires", and make Delete of a missing key a
// no-op. List returns every live key; callers filter by namespace.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// ConditionalPutter is implemented by stores that can write a key only when
// no live entry holds it. LinkStore uses it to close the check-then-write race.
type ConditionalPutter interface {
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
