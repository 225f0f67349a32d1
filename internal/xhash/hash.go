// Package xhash provides the default 64-bit key hashers shared by the
// hashmap and lru packages. It wraps github.com/dolthub/maphash, which
// already solves "hash an arbitrary comparable Go value without reflection"
// via the runtime's own hashing primitives, exactly the "known
// non-cryptographic 64-bit mixer" spec.md §4.1 asks for over the raw bytes
// of a comparable key's in-memory representation.
package xhash

import (
	"hash/maphash"

	dolt "github.com/dolthub/maphash"
)

// Comparable returns a hasher for comparable key types K. Each call builds
// one dolthub/maphash Hasher with its own random seed, and the returned
// function reuses that Hasher for every hash (constructing one per hash
// would give the same key a different hash each time).
func Comparable[K comparable]() func(K) uint64 {
	h := dolt.NewHasher[K]()
	return h.Hash
}

var byteSeed = maphash.MakeSeed()

// Bytes hashes a byte-string key, matching spec.md §4.1's rule that
// byte-string keys hash over their byte contents rather than their
// in-memory representation.
func Bytes(b []byte) uint64 {
	return maphash.Bytes(byteSeed, b)
}

// String hashes a string key the same way Bytes hashes a []byte key.
func String(s string) uint64 {
	return maphash.String(byteSeed, s)
}
