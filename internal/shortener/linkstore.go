package shortener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LinkStore owns the primary key->URL mapping and the metadata entry stored
// beside it. The two entries are separate writes: a link counts as created
// only once both exist, and as removed only once both are gone.
type LinkStore struct {
	kv  KV
	ttl time.Duration
}

// NewLinkStore creates a LinkStore writing every entry with the given ttl.
func NewLinkStore(kv KV, ttl time.Duration) *LinkStore {
	return &LinkStore{kv: kv, ttl: ttl}
}

// TTL returns the lifetime applied to new entries.
func (s *LinkStore) TTL() time.Duration {
	return s.ttl
}

// Create writes the primary mapping and then the metadata entry. It returns
// ErrKeyTaken if a live link already holds the key. If the metadata write
// fails the primary entry is deleted again; if that compensation also fails
// a *PartialWriteError names the orphaned primary key.
func (s *LinkStore) Create(ctx context.Context, link *Link) error {
	meta, err := encodeRecord(link)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err = s.putPrimary(ctx, link); err != nil {
		return err
	}

	if err = s.kv.Put(ctx, metaKey(link.Key), meta, s.ttl); err != nil {
		if delErr := s.kv.Delete(ctx, string(link.Key)); delErr != nil {
			return &PartialWriteError{
				Op:      "create",
				Key:     link.Key,
				Orphans: []string{string(link.Key)},
				Err:     errors.Join(err, delErr),
			}
		}

		return fmt.Errorf("write metadata for %q: %w", link.Key, err)
	}

	return nil
}

func (s *LinkStore) putPrimary(ctx context.Context, link *Link) error {
	if cp, ok := s.kv.(ConditionalPutter); ok {
		created, err := cp.PutIfAbsent(ctx, string(link.Key), []byte(link.URL), s.ttl)
		if err != nil {
			return fmt.Errorf("write link %q: %w", link.Key, err)
		}

		if !created {
			return ErrKeyTaken
		}

		return nil
	}

	exists, err := s.Exists(ctx, link.Key)
	if err != nil {
		return err
	}

	if exists {
		return ErrKeyTaken
	}

	if err = s.kv.Put(ctx, string(link.Key), []byte(link.URL), s.ttl); err != nil {
		return fmt.Errorf("write link %q: %w", link.Key, err)
	}

	return nil
}

// Get returns the target URL for key.
func (s *LinkStore) Get(ctx context.Context, key Key) (string, error) {
	if reserved(string(key)) {
		return "", ErrNotFound
	}

	value, err := s.kv.Get(ctx, string(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("read link %q: %w", key, err)
	}

	return string(value), nil
}

// Exists reports whether a live primary entry holds key.
func (s *LinkStore) Exists(ctx context.Context, key Key) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return false, err
}

// GetMetadata returns the metadata record stored for key.
func (s *LinkStore) GetMetadata(ctx context.Context, key Key) (*Link, error) {
	value, err := s.kv.Get(ctx, metaKey(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read metadata for %q: %w", key, err)
	}

	return decodeRecord(key, value)
}

// Delete removes the primary entry and then the metadata entry. A failure
// after the primary is gone yields a *PartialWriteError naming the metadata key.
func (s *LinkStore) Delete(ctx context.Context, key Key) error {
	if err := s.kv.Delete(ctx, string(key)); err != nil {
		return fmt.Errorf("delete link %q: %w", key, err)
	}

	if err := s.kv.Delete(ctx, metaKey(key)); err != nil {
		return &PartialWriteError{
			Op:      "delete",
			Key:     key,
			Orphans: []string{metaKey(key)},
			Err:     err,
		}
	}

	return nil
}

// List returns the keys of every link that has a live metadata entry.
func (s *LinkStore) List(ctx context.Context) ([]Key, error) {
	raw, err := s.kv.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	keys := make([]Key, 0, len(raw))

	for _, k := range raw {
		if name, ok := strings.CutPrefix(k, metaPrefix); ok {
			keys = append(keys, Key(name))
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys, nil
}

// Repair deletes raw keys left behind by a *PartialWriteError. An orphan is
// only removed while its partner entry is still absent, so a link that was
// completed or recreated in the meantime is left alone. It returns the
// number of keys deleted.
func (s *LinkStore) Repair(ctx context.Context, orphans []string) (int, error) {
	removed := 0

	for _, raw := range orphans {
		partner := metaPrefix + raw
		if name, ok := strings.CutPrefix(raw, metaPrefix); ok {
			partner = name
		} else if strings.HasPrefix(raw, hashPrefix) {
			continue
		}

		if _, err := s.kv.Get(ctx, partner); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return removed, fmt.Errorf("check partner of %q: %w", raw, err)
		}

		if err := s.kv.Delete(ctx, raw); err != nil {
			return removed, fmt.Errorf("delete orphan %q: %w", raw, err)
		}

		removed++
	}

	return removed, nil
}
