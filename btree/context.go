package btree

import (
	"bytes"
	"cmp"
)

// OrderedContext is the default Context for any cmp.Ordered key type.
type OrderedContext[K cmp.Ordered] struct{}

// Compare implements Context.
func (OrderedContext[K]) Compare(a, b K) int { return cmp.Compare(a, b) }

// BytesContext orders []byte keys lexicographically.
type BytesContext struct{}

// Compare implements Context.
func (BytesContext) Compare(a, b []byte) int { return bytes.Compare(a, b) }
