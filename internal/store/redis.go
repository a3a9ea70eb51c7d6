package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

const scanBatch = 200

// RedisKV is a Redis implementation of shortener.KV. Every key is stored
// under prefix so List can enumerate the service's keys with SCAN.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV creates a new Redis-backed key-value store.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	return &RedisKV{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return value, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, redisTTL(ttl)).Err()
}

// PutIfAbsent uses SET NX so concurrent writers of one key cannot both win.
func (r *RedisKV) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, value, redisTTL(ttl)).Result()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisKV) List(ctx context.Context) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// Ping checks Redis connectivity.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func redisTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}

	return ttl
}

var (
	_ shortener.KV                = (*RedisKV)(nil)
	_ shortener.ConditionalPutter = (*RedisKV)(nil)
)
