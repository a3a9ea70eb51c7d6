package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// TTLGetter is implemented by stores that can report how long an entry has
// left. A zero ttl means the entry never expires.
type TTLGetter interface {
	GetWithTTL(ctx context.Context, key string) (value []byte, ttl time.Duration, err error)
}

// CachedKV wraps a shortener.KV with a Redis read-through cache. Writes and
// deletes go to the backing store first and then update the cache. When the
// backing store is a TTLGetter a cached value never outlives its entry.
type CachedKV struct {
	store  shortener.KV
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCachedKV creates a new Redis-cached key-value decorator.
func NewCachedKV(store shortener.KV, client *redis.Client, ttl time.Duration) *CachedKV {
	return &CachedKV{
		store:  store,
		client: client,
		prefix: "kvcache:",
		ttl:    ttl,
	}
}

// Get checks the cache first and populates it on a miss.
func (c *CachedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := c.client.Get(ctx, c.prefix+key).Bytes(); err == nil {
		return value, nil
	}

	value, ttl, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}

	c.cache(ctx, key, value, ttl)

	return value, nil
}

// load reads the backing store along with the entry's remaining lifetime,
// or zero when the store cannot tell.
func (c *CachedKV) load(ctx context.Context, key string) ([]byte, time.Duration, error) {
	if tg, ok := c.store.(TTLGetter); ok {
		return tg.GetWithTTL(ctx, key)
	}

	value, err := c.store.Get(ctx, key)

	return value, 0, err
}

func (c *CachedKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.store.Put(ctx, key, value, ttl); err != nil {
		return err
	}

	c.cache(ctx, key, value, ttl)

	return nil
}

func (c *CachedKV) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	created, err := c.putIfAbsent(ctx, key, value, ttl)
	if err != nil || !created {
		return created, err
	}

	c.cache(ctx, key, value, ttl)

	return true, nil
}

func (c *CachedKV) putIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if cp, ok := c.store.(shortener.ConditionalPutter); ok {
		return cp.PutIfAbsent(ctx, key, value, ttl)
	}

	_, err := c.store.Get(ctx, key)
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shortener.ErrNotFound) {
		return false, err
	}

	return true, c.store.Put(ctx, key, value, ttl)
}

func (c *CachedKV) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return err
	}

	return c.client.Del(ctx, c.prefix+key).Err()
}

// List always reads the backing store.
func (c *CachedKV) List(ctx context.Context) ([]string, error) {
	return c.store.List(ctx)
}

// cache is best effort: a failed cache write only costs a later miss.
func (c *CachedKV) cache(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = c.client.Set(ctx, c.prefix+key, value, cacheExpiry(c.ttl, ttl)).Err()
}

// cacheExpiry caps the cache ttl by the entry's lifetime; a non-positive
// lifetime means the entry never expires.
func cacheExpiry(cacheTTL, entryTTL time.Duration) time.Duration {
	if entryTTL > 0 && entryTTL < cacheTTL {
		return entryTTL
	}

	return cacheTTL
}

var (
	_ shortener.KV                = (*CachedKV)(nil)
	_ shortener.ConditionalPutter = (*CachedKV)(nil)
)
