// Package array implements the lazily-populated array value domain:
// a finite partial map from index bit-patterns to element bit-vectors,
// with an optional constant-init element and an optional random-init
// seed.
//
// Arrays are value-typed: Write returns a freshly copied Model. The
// backing store is a github.com/benbjohnson/immutable.SortedMap (the
// same structure the teacher used for its heap address space) so that
// copy happens in O(log n) via structural sharing instead of an O(n)
// map clone, while every observer still only ever sees the value at
// the time it read it.
package array

import (
	"github.com/benbjohnson/immutable"

	"github.com/nrb-sim/btorsim/bv"
)

// Model is an owned array value: a partial map of index (as a raw
// unsigned integer, since index widths never exceed 64 bits in
// practice) to element bit-vector, plus the optional const-init and
// random-seed population rules from spec.md §3.
type Model struct {
	IndexWidth uint
	ElemWidth  uint

	data *immutable.SortedMap

	// ConstInit, if non-nil, is the element value returned (and
	// materialized) on first read of any unaccessed index.
	ConstInit *bv.Value

	// Seed, if non-zero and ConstInit is nil, drives the pairing-hash
	// random-init formula for any unaccessed index (ConstInit takes
	// precedence when both are set).
	Seed uint64
}

type uint64Comparer struct{}

func (uint64Comparer) Compare(a, b interface{}) int {
	x, y := a.(uint64), b.(uint64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// New returns an empty array model of the given index/element widths.
func New(indexWidth, elemWidth uint) *Model {
	return &Model{
		IndexWidth: indexWidth,
		ElemWidth:  elemWidth,
		data:       immutable.NewSortedMap(uint64Comparer{}),
	}
}

// NewConstInit returns an empty array model whose unaccessed indices
// read as elem (the "constant-init" element of spec.md §3).
func NewConstInit(indexWidth uint, elem *bv.Value) *Model {
	m := New(indexWidth, elem.Width())
	m.ConstInit = elem
	return m
}

// NewSeeded returns an empty array model whose unaccessed indices are
// populated from the deterministic pairing-hash formula, given a
// nonzero seed.
func NewSeeded(indexWidth, elemWidth uint, seed uint64) *Model {
	m := New(indexWidth, elemWidth)
	m.Seed = seed
	return m
}

// clone returns a shallow copy of m sharing the underlying immutable
// map (cheap: the map itself is copy-on-write).
func (m *Model) clone() *Model {
	c := *m
	return &c
}

// randomInit is the fixed pairing-style hash spec.md §4.1 mandates for
// bit-exact cross-tool replay: f(seed, i) = (seed+i)*(seed+i+1)/2 + i,
// truncated to the element width.
func randomInit(seed, index uint64, elemWidth uint) *bv.Value {
	s := seed + index
	product := s * (s + 1) / 2
	return bv.FromUint64(product+index, elemWidth)
}

// initialValue returns the value an unmaterialized index should read
// as, per the const-init / random-seed rules.
func (m *Model) initialValue(index uint64) *bv.Value {
	if m.ConstInit != nil {
		return m.ConstInit.Clone()
	}
	if m.Seed != 0 {
		return randomInit(m.Seed, index, m.ElemWidth)
	}
	return bv.Zero(m.ElemWidth)
}

// Read returns the element at index together with a Model in which
// index is materialized: m itself when index was already materialized,
// otherwise a copy of m with the init-derived value stored at index
// (m is left unchanged). Using the returned Model lets later equality
// comparisons see a materialized index rather than re-deriving it
// (spec.md §3, §4.1).
func (m *Model) Read(index *bv.Value) (*bv.Value, *Model) {
	i := index.Uint64()
	if v, ok := m.data.Get(i); ok {
		return v.(*bv.Value).Clone(), m
	}
	value := m.initialValue(i)
	c := m.clone()
	c.data = c.data.Set(i, value)
	return value.Clone(), c
}

// Write returns a fresh Model with index bound to element.
func (m *Model) Write(index, element *bv.Value) *Model {
	c := m.clone()
	c.data = c.data.Set(index.Uint64(), element.Clone())
	return c
}

// Materialized reports whether index has an entry in the underlying
// map (as opposed to being answerable only via const-init/seed).
func (m *Model) Materialized(index uint64) bool {
	_, ok := m.data.Get(index)
	return ok
}

// ValueAt returns the materialized value at index if present.
func (m *Model) ValueAt(index uint64) (*bv.Value, bool) {
	v, ok := m.data.Get(index)
	if !ok {
		return nil, false
	}
	return v.(*bv.Value), true
}

// Len returns the number of materialized indices.
func (m *Model) Len() int { return m.data.Len() }

// Each calls fn for every materialized (index, value) pair in
// ascending index order.
func (m *Model) Each(fn func(index uint64, value *bv.Value)) {
	itr := m.data.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		fn(k.(uint64), v.(*bv.Value))
	}
}

// Eq implements the array equality rule from spec.md §3: two array
// models are equal iff (a) their const-init/seed agree unless every
// index has been materialized in both, and (b) every materialized
// index in either agrees with the other's value at that index, where
// the other's value falls back to its init-derived value when the
// index is unmaterialized there.
func Eq(a, b *Model) bool {
	if a.IndexWidth != b.IndexWidth || a.ElemWidth != b.ElemWidth {
		return false
	}

	allMaterializedInBoth := allIndicesCovered(a) && allIndicesCovered(b)
	if !allMaterializedInBoth && !sameOrigin(a, b) {
		return false
	}

	seen := make(map[uint64]struct{})
	agree := true
	a.Each(func(index uint64, av *bv.Value) {
		seen[index] = struct{}{}
		bvVal := otherValueAt(b, index)
		if bv.Compare(av, bvVal) != 0 {
			agree = false
		}
	})
	if !agree {
		return false
	}
	b.Each(func(index uint64, bvv *bv.Value) {
		if _, ok := seen[index]; ok {
			return
		}
		av := otherValueAt(a, index)
		if bv.Compare(av, bvv) != 0 {
			agree = false
		}
	})
	return agree
}

// allIndicesCovered reports whether every representable index of m's
// index width has been materialized. Only meaningful (and only
// checked) for small index widths; for wider arrays this is always
// false, which just means the equality rule falls back to comparing
// origins.
func allIndicesCovered(m *Model) bool {
	if m.IndexWidth >= 64 {
		return false
	}
	total := uint64(1) << m.IndexWidth
	return uint64(m.Len()) == total
}

// sameOrigin reports whether a and b were seeded/const-initialized the
// same way.
func sameOrigin(a, b *Model) bool {
	switch {
	case a.ConstInit != nil && b.ConstInit != nil:
		return bv.Compare(a.ConstInit, b.ConstInit) == 0
	case a.Seed != 0 && b.Seed != 0:
		return a.Seed == b.Seed
	case a.ConstInit == nil && a.Seed == 0 && b.ConstInit == nil && b.Seed == 0:
		return true
	default:
		return false
	}
}

func otherValueAt(m *Model, index uint64) *bv.Value {
	if v, ok := m.ValueAt(index); ok {
		return v
	}
	return m.initialValue(index)
}

// Neq is the negation of Eq.
func Neq(a, b *Model) bool { return !Eq(a, b) }

// Ite selects t or e (both array models) based on a width-1 cond.
func Ite(cond *bv.Value, t, e *Model) *Model {
	if cond.Uint64() != 0 {
		return t.clone()
	}
	return e.clone()
}
