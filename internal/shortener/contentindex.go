package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ContentIndex maps the digest of a target URL to the short key that already
// represents it. Entries share the link key space under the hash namespace.
type ContentIndex struct {
	kv  KV
	ttl time.Duration
}

// NewContentIndex creates an index whose entries live as long as links do.
func NewContentIndex(kv KV, ttl time.Duration) *ContentIndex {
	return &ContentIndex{kv: kv, ttl: ttl}
}

// Lookup returns the key recorded for hash, or ErrNotFound.
func (i *ContentIndex) Lookup(ctx context.Context, hash string) (Key, error) {
	value, err := i.kv.Get(ctx, hashKey(hash))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("lookup content hash: %w", err)
	}

	return Key(value), nil
}

// Record points hash at key, replacing any previous entry.
func (i *ContentIndex) Record(ctx context.Context, hash string, key Key) error {
	if err := i.kv.Put(ctx, hashKey(hash), []byte(key), i.ttl); err != nil {
		return fmt.Errorf("record content hash for %q: %w", key, err)
	}

	return nil
}

// Forget drops the entry for hash if it still points at key.
func (i *ContentIndex) Forget(ctx context.Context, hash string, key Key) error {
	current, err := i.Lookup(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}

		return err
	}

	if current != key {
		return nil
	}

	if err = i.kv.Delete(ctx, hashKey(hash)); err != nil {
		return fmt.Errorf("forget content hash for %q: %w", key, err)
	}

	return nil
}
