package ordermap

import (
	"math/rand"
	"sort"
	"testing"
)

func newIntMap() *Map[int, int] {
	return New[int, int](OrderedContext[int]{})
}

func TestScenarioOrderedIteration(t *testing.T) {
	m := newIntMap()
	for _, k := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6} {
		m.Put(k, k*10)
	}
	var got []int
	it := m.Iterator()
	for it.Next() {
		got = append(got, it.Key())
	}
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v; want %v", got, want)
		}
	}
}

func TestReverseIterator(t *testing.T) {
	m := newIntMap()
	for i := 0; i < 20; i++ {
		m.Put(i, i)
	}
	var got []int
	it := m.ReverseIterator()
	for it.Next() {
		got = append(got, it.Key())
	}
	if len(got) != 20 {
		t.Fatalf("len(got) = %d; want 20", len(got))
	}
	for i, v := range got {
		if v != 19-i {
			t.Fatalf("got[%d] = %d; want %d", i, v, 19-i)
		}
	}
}

func TestPutOverwritesOnEqualKey(t *testing.T) {
	m := newIntMap()
	m.Put(1, 100)
	m.Put(1, 200)
	if m.Count() != 1 {
		t.Fatalf("Count() = %d; want 1", m.Count())
	}
	v, ok := m.Get(1)
	if !ok || v != 200 {
		t.Fatalf("Get(1) = %v, %v; want 200, true", v, ok)
	}
}

func TestRemoveAllOrdersPreserved(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := newIntMap()
	present := map[int]bool{}
	for i := 0; i < 400; i++ {
		k := rng.Intn(200)
		m.Put(k, k)
		present[k] = true
	}
	keys := make([]int, 0, len(present))
	for k := range present {
		keys = append(keys, k)
	}
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for idx, k := range keys {
		if !m.Remove(k) {
			t.Fatalf("Remove(%d) = false", k)
		}
		delete(present, k)
		if m.Count() != len(present) {
			t.Fatalf("after removing %d keys: Count() = %d; want %d", idx+1, m.Count(), len(present))
		}
		var got []int
		it := m.Iterator()
		for it.Next() {
			got = append(got, it.Key())
		}
		if !sort.IntsAreSorted(got) {
			t.Fatalf("iteration order broken after removing key %d: %v", k, got)
		}
		if len(got) != len(present) {
			t.Fatalf("iterator length %d != remaining count %d", len(got), len(present))
		}
	}
}

func TestRankAndSelectAreInverses(t *testing.T) {
	m := newIntMap()
	vals := []int{40, 10, 30, 20, 50}
	for _, v := range vals {
		m.Put(v, v)
	}
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	for i, k := range sorted {
		if r := m.Rank(k); r != i {
			t.Fatalf("Rank(%d) = %d; want %d", k, r, i)
		}
		sk, _, ok := m.Select(i)
		if !ok || sk != k {
			t.Fatalf("Select(%d) = %v, %v; want %d, true", i, sk, ok, k)
		}
	}
}

func TestFloorCeiling(t *testing.T) {
	m := newIntMap()
	for _, v := range []int{10, 20, 30, 40} {
		m.Put(v, v)
	}
	if k, _, ok := m.Floor(25); !ok || k != 20 {
		t.Fatalf("Floor(25) = %v, %v; want 20, true", k, ok)
	}
	if k, _, ok := m.Ceiling(25); !ok || k != 30 {
		t.Fatalf("Ceiling(25) = %v, %v; want 30, true", k, ok)
	}
	if k, _, ok := m.Floor(5); ok {
		t.Fatalf("Floor(5) = %v, %v; want not found", k, ok)
	}
	if k, _, ok := m.Ceiling(45); ok {
		t.Fatalf("Ceiling(45) = %v, %v; want not found", k, ok)
	}
	if k, _, ok := m.Floor(10); !ok || k != 10 {
		t.Fatalf("Floor(10) = %v, %v; want 10, true (exact match)", k, ok)
	}
}

// Scenario 3 from spec.md §8: range queries over {2,6,7,8,10,13,22,26}.
func TestScenarioRangeQueries(t *testing.T) {
	m := newIntMap()
	for _, v := range []int{2, 6, 7, 8, 10, 13, 22, 26} {
		m.Put(v, v)
	}
	check := func(name string, got int, ok bool, wantVal int, wantOK bool) {
		t.Helper()
		if ok != wantOK || (wantOK && got != wantVal) {
			t.Fatalf("%s = %v, %v; want %v, %v", name, got, ok, wantVal, wantOK)
		}
	}
	k, _, ok := m.Ceiling(5)
	check("Ceiling(5)", k, ok, 6, true)
	k, _, ok = m.Ceiling(9)
	check("Ceiling(9)", k, ok, 10, true)
	_, _, ok = m.Ceiling(27)
	check("Ceiling(27)", 0, ok, 0, false)
	k, _, ok = m.Floor(5)
	check("Floor(5)", k, ok, 2, true)
	k, _, ok = m.Floor(9)
	check("Floor(9)", k, ok, 8, true)
	_, _, ok = m.Floor(1)
	check("Floor(1)", 0, ok, 0, false)
	k, _, ok = m.Higher(6)
	check("Higher(6)", k, ok, 7, true)
	_, _, ok = m.Higher(26)
	check("Higher(26)", 0, ok, 0, false)
	k, _, ok = m.Lower(6)
	check("Lower(6)", k, ok, 2, true)
	_, _, ok = m.Lower(2)
	check("Lower(2)", 0, ok, 0, false)
}

// Scenario 2 from spec.md §8: insert {7,3,18,10,22,8,11,26,2,6,13}, delete
// {18,11,3}, check sorted iteration and findKthLargest.
func TestScenarioDeleteIterationAndKthLargest(t *testing.T) {
	m := newIntMap()
	for _, v := range []int{7, 3, 18, 10, 22, 8, 11, 26, 2, 6, 13} {
		m.Put(v, v)
	}
	for _, v := range []int{18, 11, 3} {
		if !m.Remove(v) {
			t.Fatalf("Remove(%d) = false", v)
		}
	}
	var got []int
	it := m.Iterator()
	for it.Next() {
		got = append(got, it.Key())
	}
	want := []int{2, 6, 7, 8, 10, 13, 22, 26}
	if len(got) != len(want) {
		t.Fatalf("iteration = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("iteration = %v; want %v", got, want)
		}
	}

	cases := []struct {
		k    int
		want int
		ok   bool
	}{
		{1, 26, true},
		{4, 10, true},
		{8, 2, true},
		{9, 0, false},
	}
	for _, c := range cases {
		k, _, ok := m.FindKthLargest(c.k)
		if ok != c.ok || (c.ok && k != c.want) {
			t.Fatalf("FindKthLargest(%d) = %v, %v; want %v, %v", c.k, k, ok, c.want, c.ok)
		}
	}
}

func TestDestroy(t *testing.T) {
	m := newIntMap()
	m.Put(1, 1)
	m.Put(2, 2)
	m.Destroy()
	if m.Count() != 0 {
		t.Fatalf("Count() after Destroy = %d", m.Count())
	}
	if _, ok := m.Get(1); ok {
		t.Fatalf("Get(1) after Destroy found")
	}
	m.Put(3, 3)
	if v, ok := m.Get(3); !ok || v != 3 {
		t.Fatalf("Get(3) after Destroy+Put = %v, %v", v, ok)
	}
}

func TestMinMax(t *testing.T) {
	m := newIntMap()
	if _, _, ok := m.Min(); ok {
		t.Fatalf("Min() on empty map found a value")
	}
	for _, v := range []int{5, 1, 9, 3} {
		m.Put(v, v)
	}
	if k, _, ok := m.Min(); !ok || k != 1 {
		t.Fatalf("Min() = %v, %v; want 1, true", k, ok)
	}
	if k, _, ok := m.Max(); !ok || k != 9 {
		t.Fatalf("Max() = %v, %v; want 9, true", k, ok)
	}
}

// blackHeight checks the red-black invariant that every root-
// to-nil path through a subtree carries the same number of black nodes,
// returning the uniform black-height or -1 if violated.
func blackHeight[K any, V any](m *Map[K, V], n *node[K, V]) int {
	if m.isNil(n) {
		return 1
	}
	if n.color == red {
		if (!m.isNil(n.left) && n.left.color == red) || (!m.isNil(n.right) && n.right.color == red) {
			return -1
		}
	}
	lh := blackHeight(m, n.left)
	rh := blackHeight(m, n.right)
	if lh == -1 || rh == -1 || lh != rh {
		return -1
	}
	if n.color == black {
		return lh + 1
	}
	return lh
}

func TestRedBlackInvariantsHoldAfterMixedOps(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	m := newIntMap()
	for i := 0; i < 2000; i++ {
		k := rng.Intn(500)
		if rng.Intn(3) == 0 {
			m.Remove(k)
		} else {
			m.Put(k, k)
		}
		if !m.isNil(m.root) && m.root.color != black {
			t.Fatalf("root is not black after op %d", i)
		}
		if blackHeight(m, m.root) == -1 {
			t.Fatalf("red-black invariant violated after op %d", i)
		}
	}
}
