package shortener

import (
	"fmt"
	"regexp"
)

// DefaultMaxCustomKeyLength bounds custom keys when no limit is configured.
const DefaultMaxCustomKeyLength = 20

var (
	urlPattern       = regexp.MustCompile(`^https?://([\w-]+\.)+[\w-]+(/[\w\- ./?%&=]*)?$`)
	customKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateURL checks that rawURL has an http(s) URL shape.
func ValidateURL(rawURL string) error {
	if !urlPattern.MatchString(rawURL) {
		return ErrInvalidURL
	}

	return nil
}

// ValidateCustomKey checks the character set and length of a custom key and
// keeps it out of the internal metadata and content-hash namespaces.
func ValidateCustomKey(key string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxCustomKeyLength
	}

	if len(key) > maxLength || !customKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: only letters, numbers, underscores and hyphens are allowed, max %d characters",
			ErrInvalidCustomKey, maxLength)
	}

	if reserved(key) {
		return fmt.Errorf("%w: keys starting with %q or %q are reserved", ErrInvalidCustomKey, metaPrefix, hashPrefix)
	}

	return nil
}
