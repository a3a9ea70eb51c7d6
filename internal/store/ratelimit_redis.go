package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/clock"
)

// admitScript prunes the sorted set, then adds the request only while the
// count is under the limit. Running it as one script keeps the check and
// the write together.
var admitScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RateLimitRedisStore is a Redis sorted-set implementation of ratelimit.Store,
// for deployments that run several server processes behind one limit.
type RateLimitRedisStore struct {
	client *redis.Client
	clock  clock.Clock
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client, clk clock.Clock) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		clock:  clk,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Admit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	now := s.clock.Now()
	cutoff := now.Add(-window).UnixMicro()

	res, err := admitScript.Run(ctx, s.client, []string{s.prefix + key},
		strconv.FormatInt(cutoff, 10),
		now.UnixMicro(),
		limit,
		uuid.NewString(),
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}
