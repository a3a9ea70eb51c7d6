package shortener

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a key has no live entry.
	ErrNotFound = errors.New("not found")

	// ErrInvalidURL is returned for targets that are not http(s) URLs.
	ErrInvalidURL = errors.New("invalid url format")

	// ErrInvalidCustomKey is returned when a custom key fails validation.
	ErrInvalidCustomKey = errors.New("invalid custom key")

	// ErrCustomKeysDisabled is returned when a custom key is requested but the
	// policy does not allow them.
	ErrCustomKeysDisabled = errors.New("custom keys are disabled")

	// ErrKeyTaken is returned when a custom key already maps to a live link.
	ErrKeyTaken = errors.New("short key already exists")

	// ErrKeySpaceExhausted is returned when minting gives up after the
	// configured number of colliding attempts.
	ErrKeySpaceExhausted = errors.New("could not mint an unused short key")
)

// PartialWriteError reports a two-step write or delete that stopped half way.
// Orphans lists the raw store keys that were left behind and need cleanup.
type PartialWriteError struct {
	Op      string
	Key     Key
	Orphans []string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial %s of %q, orphaned [%s]: %v",
		e.Op, e.Key, strings.Join(e.Orphans, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
