package store

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryKV is an in-process implementation of shortener.KV backed by go-cache.
// Expired entries are invisible to reads and swept by the cache janitor.
type MemoryKV struct {
	cache *cache.Cache
}

// NewMemoryKV creates a MemoryKV whose janitor runs every cleanupInterval.
func NewMemoryKV(cleanupInterval time.Duration) *MemoryKV {
	return &MemoryKV{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, shortener.ErrNotFound
	}

	value, _ := v.([]byte)

	return clone(value), nil
}

// GetWithTTL returns the value and its remaining lifetime, zero if it never
// expires.
func (m *MemoryKV) GetWithTTL(_ context.Context, key string) ([]byte, time.Duration, error) {
	v, expiresAt, ok := m.cache.GetWithExpiration(key)
	if !ok {
		return nil, 0, shortener.ErrNotFound
	}

	value, _ := v.([]byte)

	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = max(time.Until(expiresAt), time.Millisecond)
	}

	return clone(value), ttl, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, clone(value), expiration(ttl))

	return nil
}

// PutIfAbsent writes key only if no live entry holds it.
func (m *MemoryKV) PutIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.cache.Add(key, clone(value), expiration(ttl)); err != nil {
		return false, nil
	}

	return true, nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)

	return nil
}

func (m *MemoryKV) List(_ context.Context) ([]string, error) {
	items := m.cache.Items()

	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.NoExpiration
	}

	return ttl
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

var (
	_ shortener.KV                = (*MemoryKV)(nil)
	_ shortener.ConditionalPutter = (*MemoryKV)(nil)
	_ TTLGetter                   = (*MemoryKV)(nil)
)
