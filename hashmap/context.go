package hashmap

import (
	"bytes"

	"github.com/coreds/containers/internal/xhash"
)

// ComparableContext is the default Context for ordinary comparable key
// types: hashing goes through github.com/dolthub/maphash's generic runtime
// hasher, equality is Go's built-in ==, exactly spec.md §4.1's "no custom
// context is provided" default.
type ComparableContext[K comparable] struct {
	hash func(K) uint64
}

// NewComparableContext builds the default Context for comparable key type
// K.
func NewComparableContext[K comparable]() ComparableContext[K] {
	return ComparableContext[K]{hash: xhash.Comparable[K]()}
}

func (c ComparableContext[K]) Hash(k K) uint64   { return c.hash(k) }
func (c ComparableContext[K]) Equal(a, b K) bool { return a == b }

// BytesContext hashes/compares []byte keys over their contents, matching
// spec.md §4.1's byte-string rule ("hash over byte contents ... equality
// uses byte-wise comparison for byte-strings").
type BytesContext struct{}

func (BytesContext) Hash(k []byte) uint64   { return xhash.Bytes(k) }
func (BytesContext) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

// StringContext is BytesContext's string-keyed counterpart.
type StringContext struct{}

func (StringContext) Hash(k string) uint64   { return xhash.String(k) }
func (StringContext) Equal(a, b string) bool { return a == b }
