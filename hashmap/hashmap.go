// Package hashmap implements HMAP: a SwissTable-style open-addressed hash
// table with 16-wide metadata scans, tombstoned deletes, and in-place
// rehashing. Callers provide external synchronisation; Map is not safe for
// concurrent use.
//
// Layout follows spec.md §9's documented fallback for targets without raw
// pointer arithmetic over untyped bytes: metadata, keys and values live in
// three separately allocated slices rather than one shared block. The
// metadata slice still carries the 15-byte clone region so every probe
// step can take an unaligned 16-byte window without wraparound logic.
package hashmap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/coreds/containers/internal/simdbyte"
)

// Metadata byte states (spec.md §3 "HMAP").
const (
	metaEmpty    byte = 0x80
	metaDeleted  byte = 0xFE
	metaSentinel byte = 0xFF
)

const (
	minCapacity           = 8
	cloneRegion           = 15
	defaultMaxLoadPercent = 80
)

// ErrAllocation is returned by any operation that may grow storage and
// fails to do so (spec.md §7, "AllocationFailure").
var ErrAllocation = errors.New("hashmap: allocation failure")

// Context supplies the hash and equality functions HMAP needs for key type
// K (spec.md §6: "context type Ctx supplying hash(key)->u64 and
// eql(a,b)->bool"). Implementations should be cheap to copy; Map stores
// one by value.
type Context[K any] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

// Entry is a pointer pair into the table's live key/value storage, valid
// until the next mutating operation on the Map.
type Entry[K any, V any] struct {
	Key   *K
	Value *V
}

// Map implements HMAP over key type K and value type V.
type Map[K any, V any] struct {
	ctx            Context[K]
	meta           []byte // len == capacity+15 when allocated, else nil
	keys           []K
	vals           []V
	capacity       int
	count          int
	available      int // EMPTY slots left before a rehash is required
	maxLoadPercent uint8
	iterLocked     bool
}

// New constructs an empty Map with the default 80% max load factor.
func New[K any, V any](ctx Context[K]) *Map[K, V] {
	return &Map[K, V]{ctx: ctx, maxLoadPercent: defaultMaxLoadPercent}
}

// NewWithLoadFactor is like New but with an explicit max load percentage
// in (0, 100), matching spec.md §4.1's "compile-time parameter" — expressed
// in Go as a construction-time value rather than a true compile-time
// constant (see DESIGN.md for this Open Question resolution).
func NewWithLoadFactor[K any, V any](ctx Context[K], maxLoadPercent uint8) *Map[K, V] {
	if maxLoadPercent == 0 || maxLoadPercent >= 100 {
		panic("hashmap: max load percentage must be in (0, 100)")
	}
	return &Map[K, V]{ctx: ctx, maxLoadPercent: maxLoadPercent}
}

// Count returns the number of live entries.
func (m *Map[K, V]) Count() int { return m.count }

// Capacity returns the current backing capacity (a power of two, or 0 if
// storage has never been allocated).
func (m *Map[K, V]) Capacity() int { return m.capacity }

func isFull(b byte) bool { return b&0x80 == 0 }

func nextPow2(n int) int {
	p := minCapacity
	for p < n {
		p <<= 1
	}
	return p
}

// capacityForSize returns the smallest power-of-two capacity, clamped
// below by minCapacity, that keeps size entries within maxLoadPercent.
func capacityForSize(size int, maxLoadPercent uint8) int {
	need := size*100/int(maxLoadPercent) + 1
	return nextPow2(need)
}

func (m *Map[K, V]) h1h2(k K) (h1 int, h2 byte) {
	h := m.ctx.Hash(k)
	h1 = int(h & uint64(m.capacity-1)) // capacity is always a power of two
	h2 = byte((h >> 57) & 0x7F)
	return
}

func (m *Map[K, V]) setMeta(idx int, b byte) {
	m.meta[idx] = b
	if idx < cloneRegion {
		m.meta[m.capacity+idx] = b
	}
}

// allocate installs fresh storage of the given capacity, all slots EMPTY.
func (m *Map[K, V]) allocate(capacity int) error {
	meta, keys, vals, err := m.tryAlloc(capacity)
	if err != nil {
		return err
	}
	m.meta, m.keys, m.vals = meta, keys, vals
	m.capacity = capacity
	m.available = capacity * int(m.maxLoadPercent) / 100
	return nil
}

// tryAlloc performs the three slice allocations, converting a panic raised
// while allocating (such as make's length-out-of-range panic) into
// ErrAllocation. Go has no fallible allocation API, and a fatal
// out-of-memory error cannot be recovered; this is the idiomatic
// translation of spec.md §7's "AllocationFailure ... surfaced to the
// caller" contract.
func (m *Map[K, V]) tryAlloc(capacity int) (meta []byte, keys []K, vals []V, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta, keys, vals = nil, nil, nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	meta = make([]byte, capacity+cloneRegion)
	for i := range meta {
		meta[i] = metaEmpty
	}
	keys = make([]K, capacity)
	vals = make([]V, capacity)
	return meta, keys, vals, nil
}

// probe runs the lookup/insert scan described in spec.md §4.1: starting at
// H1(k), scan 16-byte metadata windows for an H2 match (verified by key
// equality) or an EMPTY terminator, recording the first DELETED slot seen
// along the way for reuse by callers that want to insert.
func (m *Map[K, V]) probe(k K) (idx int, found bool, insertAt int) {
	h1, h2 := m.h1h2(k)
	insertAt = -1
	i := h1
	for {
		window := m.meta[i : i+16]
		matchMask := simdbyte.Match16(window, h2)
		for matchMask != 0 {
			off := bits.TrailingZeros16(matchMask)
			slot := (i + off) % m.capacity
			if m.ctx.Equal(m.keys[slot], k) {
				return slot, true, insertAt
			}
			matchMask &= matchMask - 1
		}
		if insertAt < 0 {
			if delMask := simdbyte.Match16(window, metaDeleted); delMask != 0 {
				insertAt = (i + bits.TrailingZeros16(delMask)) % m.capacity
			}
		}
		emptyMask := simdbyte.Match16(window, metaEmpty)
		if emptyMask != 0 {
			if insertAt < 0 {
				insertAt = (i + bits.TrailingZeros16(emptyMask)) % m.capacity
			}
			return -1, false, insertAt
		}
		i = (i + 16) % m.capacity
	}
}

func (m *Map[K, V]) lookup(k K) (idx int, found bool) {
	if m.capacity == 0 {
		return 0, false
	}
	idx, found, _ = m.probe(k)
	return
}

// Get returns the value stored for k, if any.
func (m *Map[K, V]) Get(k K) (V, bool) {
	idx, found := m.lookup(k)
	if !found {
		var zero V
		return zero, false
	}
	return m.vals[idx], true
}

// GetPtr returns a pointer to the stored value for k, or nil on a miss.
// The pointer is valid until the next mutating operation.
func (m *Map[K, V]) GetPtr(k K) *V {
	idx, found := m.lookup(k)
	if !found {
		return nil
	}
	return &m.vals[idx]
}

// GetEntry returns pointers to both the stored key and value for k.
func (m *Map[K, V]) GetEntry(k K) (Entry[K, V], bool) {
	idx, found := m.lookup(k)
	if !found {
		return Entry[K, V]{}, false
	}
	return Entry[K, V]{Key: &m.keys[idx], Value: &m.vals[idx]}, true
}

// GetOrPut returns the entry for k, inserting a zero-valued entry first if
// absent. found reports whether k was already present.
func (m *Map[K, V]) GetOrPut(k K) (entry Entry[K, V], found bool, err error) {
	if m.iterLocked {
		panic("hashmap: mutation while an iterator holds the pointer-stability lock")
	}
	if m.capacity == 0 {
		if err := m.allocate(minCapacity); err != nil {
			return Entry[K, V]{}, false, err
		}
	}
	idx, found, insertAt := m.probe(k)
	if found {
		return Entry[K, V]{Key: &m.keys[idx], Value: &m.vals[idx]}, true, nil
	}
	if m.available == 0 {
		if err := m.rehash(capacityForSize(m.count+1, m.maxLoadPercent)); err != nil {
			return Entry[K, V]{}, false, err
		}
		idx, found, insertAt = m.probe(k)
		if found {
			// cannot happen for a key that was absent pre-rehash, but
			// guards against a caller-supplied Context with a bug.
			return Entry[K, V]{Key: &m.keys[idx], Value: &m.vals[idx]}, true, nil
		}
	}
	consumedEmpty := m.meta[insertAt] == metaEmpty
	_, h2 := m.h1h2(k)
	m.setMeta(insertAt, h2)
	m.keys[insertAt] = k
	m.count++
	if consumedEmpty {
		m.available--
	}
	return Entry[K, V]{Key: &m.keys[insertAt], Value: &m.vals[insertAt]}, false, nil
}

// Put inserts or overwrites the value for k.
func (m *Map[K, V]) Put(k K, v V) error {
	entry, _, err := m.GetOrPut(k)
	if err != nil {
		return err
	}
	*entry.Value = v
	return nil
}

// Remove deletes k if present, reporting whether it was found. The
// metadata slot is tombstoned (DELETED); the available-slot budget is
// unaffected since tombstones still cost probe steps (spec.md §4.1).
func (m *Map[K, V]) Remove(k K) bool {
	if m.iterLocked {
		panic("hashmap: mutation while an iterator holds the pointer-stability lock")
	}
	idx, found := m.lookup(k)
	if !found {
		return false
	}
	m.setMeta(idx, metaDeleted)
	m.count--
	var zk K
	var zv V
	m.keys[idx] = zk
	m.vals[idx] = zv
	return true
}

// insertNoClobber places a known-unique key during rehash: it scans only
// for the first EMPTY slot, skipping the equality check and DELETED
// bookkeeping that a general probe needs.
func (m *Map[K, V]) insertNoClobber(k K, v V) {
	h1, h2 := m.h1h2(k)
	i := h1
	for {
		window := m.meta[i : i+16]
		emptyMask := simdbyte.Match16(window, metaEmpty)
		if emptyMask != 0 {
			slot := (i + bits.TrailingZeros16(emptyMask)) % m.capacity
			m.setMeta(slot, h2)
			m.keys[slot] = k
			m.vals[slot] = v
			m.available--
			return
		}
		i = (i + 16) % m.capacity
	}
}

// rehash grows (or simply refreshes) the table to newCapacity, rebuilding
// all storage before touching m so a failed allocation leaves m in its
// valid pre-operation state (spec.md §7's strong-exception-safety
// requirement for HMAP rehash).
func (m *Map[K, V]) rehash(newCapacity int) error {
	if m.iterLocked {
		panic("hashmap: rehash while an iterator holds the pointer-stability lock")
	}
	if newCapacity < minCapacity {
		newCapacity = minCapacity
	}
	next := &Map[K, V]{ctx: m.ctx, maxLoadPercent: m.maxLoadPercent}
	if err := next.allocate(newCapacity); err != nil {
		return err
	}
	for i := 0; i < m.capacity; i++ {
		if isFull(m.meta[i]) {
			next.insertNoClobber(m.keys[i], m.vals[i])
		}
	}
	next.count = m.count
	*m = *next
	return nil
}

// EnsureTotalCapacity grows the table, if needed, so it can hold at least
// n live entries without a further rehash.
func (m *Map[K, V]) EnsureTotalCapacity(n int) error {
	target := capacityForSize(n, m.maxLoadPercent)
	if m.capacity == 0 {
		return m.allocate(target)
	}
	if target > m.capacity {
		return m.rehash(target)
	}
	return nil
}

// Clone returns a deep, independent copy of m.
func (m *Map[K, V]) Clone() (*Map[K, V], error) {
	out := &Map[K, V]{ctx: m.ctx, maxLoadPercent: m.maxLoadPercent}
	if m.capacity == 0 {
		return out, nil
	}
	meta, keys, vals, err := out.tryAlloc(m.capacity)
	if err != nil {
		return nil, err
	}
	copy(meta, m.meta)
	copy(keys, m.keys)
	copy(vals, m.vals)
	out.meta, out.keys, out.vals = meta, keys, vals
	out.capacity = m.capacity
	out.count = m.count
	out.available = m.available
	return out, nil
}

// Clear empties the table without releasing its backing storage.
func (m *Map[K, V]) Clear() {
	if m.iterLocked {
		panic("hashmap: mutation while an iterator holds the pointer-stability lock")
	}
	if m.capacity == 0 {
		return
	}
	for i := range m.meta {
		m.meta[i] = metaEmpty
	}
	var zk K
	var zv V
	for i := range m.keys {
		m.keys[i] = zk
		m.vals[i] = zv
	}
	m.count = 0
	m.available = m.capacity * int(m.maxLoadPercent) / 100
}

// Destroy releases the table's backing storage. The Map keeps its Context
// and load factor, so a destroyed Map can still be used (and will
// reallocate on the next insertion).
func (m *Map[K, V]) Destroy() {
	m.meta, m.keys, m.vals = nil, nil, nil
	m.capacity, m.count, m.available = 0, 0, 0
}
