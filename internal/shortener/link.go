package shortener

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Key is the path segment that identifies a short link.
type Key string

// Key namespaces inside the shared key-value space. Primary entries are
// stored under the bare short key.
const (
	metaPrefix = "meta_"
	hashPrefix = "hash_"
)

// Link is a short key mapped to its target URL.
type Link struct {
	Key       Key
	URL       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// KeyGenerator mints candidate short keys.
type KeyGenerator func() string

// HashURL returns the hex SHA-512 digest of the exact URL bytes. No
// normalization is applied.
func HashURL(rawURL string) string {
	sum := sha512.Sum512([]byte(rawURL))

	return hex.EncodeToString(sum[:])
}

// reserved reports whether key falls inside one of the internal namespaces.
func reserved(key string) bool {
	return strings.HasPrefix(key, metaPrefix) || strings.HasPrefix(key, hashPrefix)
}

func metaKey(key Key) string {
	return metaPrefix + string(key)
}

func hashKey(hash string) string {
	return hashPrefix + hash
}

// record is the metadata entry persisted next to every primary mapping.
type record struct {
	URL     string `json:"url"`
	Created string `json:"created"`
	Short   string `json:"short"`
	Expires string `json:"expires,omitempty"`
}

func encodeRecord(link *Link) ([]byte, error) {
	rec := record{
		URL:     link.URL,
		Created: link.CreatedAt.UTC().Format(time.RFC3339Nano),
		Short:   string(link.Key),
	}

	if !link.ExpiresAt.IsZero() {
		rec.Expires = link.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}

	return json.Marshal(rec)
}

// decodeRecord parses a metadata entry. A missing or unparsable creation
// time leaves CreatedAt zero rather than failing.
func decodeRecord(key Key, data []byte) (*Link, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode metadata for %q: %w", key, err)
	}

	link := &Link{Key: key, URL: rec.URL}

	if rec.Short != "" {
		link.Key = Key(rec.Short)
	}

	if t, err := time.Parse(time.RFC3339Nano, rec.Created); err == nil {
		link.CreatedAt = t
	}

	if t, err := time.Parse(time.RFC3339Nano, rec.Expires); err == nil {
		link.ExpiresAt = t
	}

	return link, nil
}
