// Package hash provides the hash implementation used across the object
// database: SHA-1 with collision detection.
package hash

import (
	"crypto"
	"errors"
	"fmt"
	"hash"

	"github.com/pjbgf/sha1cd"
)

const (
	SHA1Size    = 20
	SHA1HexSize = SHA1Size * 2
)

var ErrUnsupportedHashFunction = errors.New("unsupported hash function")

// algos is a map of hash algorithms.
var algos = map[crypto.Hash]func() hash.Hash{}

func init() {
	reset()
}

// reset resets the default algos value. Used by tests that register new
// algorithms to avoid side effects.
func reset() {
	algos[crypto.SHA1] = sha1cd.New
}

// RegisterHash allows the hash algorithm used to be overridden. This ensures
// the hash selection must be explicit when overriding the default value.
func RegisterHash(h crypto.Hash, f func() hash.Hash) error {
	if f == nil {
		return fmt.Errorf("cannot register hash: f is nil")
	}

	if h != crypto.SHA1 {
		return fmt.Errorf("%w: %v", ErrUnsupportedHashFunction, h)
	}

	algos[h] = f
	return nil
}

// Hash is the same as hash.Hash. This allows consumers to not have to
// import this package alongside "hash".
type Hash interface {
	hash.Hash
}

// New returns a new Hash for the given hash function. It panics if the hash
// function is not registered.
func New(h crypto.Hash) Hash {
	hh, ok := algos[h]
	if !ok {
		panic(fmt.Sprintf("hash algorithm not registered: %v", h))
	}
	return hh()
}
