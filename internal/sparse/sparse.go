// Package sparse provides a sparse set over dense uint32 universes.
//
// Subset construction computes many ε-closures over NFA state ids; the
// sparse set gives O(1) insert and membership with O(1) reuse between
// closures, while the dense list preserves insertion order for
// deterministic iteration.
package sparse

import "sort"

// Set is a set of uint32 values below a fixed capacity.
type Set struct {
	sparse []uint32 // value -> index in dense
	dense  []uint32
}

// New creates a set accepting values in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds a value to the set; inserting a member is a no-op.
func (s *Set) Insert(value uint32) {
	if s.Contains(value) {
		return
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
}

// Contains returns true if value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Clear empties the set in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of elements.
func (s *Set) Len() int { return len(s.dense) }

// Values returns the elements in insertion order. The slice is valid
// until the next mutation.
func (s *Set) Values() []uint32 { return s.dense }

// Sorted returns the elements in ascending order as a fresh slice. Subset
// construction uses the sorted element list as the canonical key of a
// state set.
func (s *Set) Sorted() []uint32 {
	out := make([]uint32, len(s.dense))
	copy(out, s.dense)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
