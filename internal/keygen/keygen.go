// Package keygen mints random short keys that are easy to read aloud and retype.
package keygen

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Alphabet leaves out glyphs that are easily confused with one another:
// 0 O o, 1 I l L, 9 g q, U u, V v.
const Alphabet = "ABCDEFGHJKMNPQRSTWXYZabcdefhijkmnprstwxyz2345678"

// DefaultLength is the key length used when none is configured.
const DefaultLength = 6

// New returns a generator producing keys of the given length, each character
// drawn independently and uniformly from Alphabet. Keys are not guaranteed to
// be unique; callers check the store and retry.
func New(length int) (func() string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create key generator: %w", err)
	}

	return gen, nil
}
