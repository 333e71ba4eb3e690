// Package sparse provides a sparse set of small integer ids.
//
// A sparse set supports O(1) insertion, membership testing and, most
// importantly, O(1) clearing. The operation scheduler clears its
// per-quantifier bookkeeping once per quantifier group on every DFA
// transition, so clearing must not depend on the size of the id space.
package sparse

import "github.com/coregx/qdfa/internal/conv"

// SparseSet is a set of uint32 values drawn from [0, capacity).
// It maintains a sparse array mapping values to positions in a dense
// array; stale entries in the sparse array are detected by cross-checking
// the dense array.
type SparseSet struct {
	sparse []uint32 // value -> index in dense
	dense  []uint32 // members in insertion order
}

// NewSparseSet creates a new sparse set holding values < capacity.
func NewSparseSet(capacity uint32) *SparseSet {
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Capacity returns the exclusive upper bound of storable values.
func (s *SparseSet) Capacity() uint32 {
	return conv.IntToUint32(len(s.sparse))
}

// Resize grows the value space to at least capacity. Members are kept.
// Shrinking is not supported; a smaller capacity is ignored.
func (s *SparseSet) Resize(capacity uint32) {
	if capacity <= s.Capacity() {
		return
	}
	grown := make([]uint32, capacity)
	copy(grown, s.sparse)
	s.sparse = grown
}

// Insert adds a value to the set and reports whether it was absent.
// Panics if value >= capacity.
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.sparse[value] = conv.IntToUint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains returns true if the value is in the set
func (s *SparseSet) Contains(value uint32) bool {
	if value >= s.Capacity() {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Remove removes a value from the set.
// If the value is not present, this is a no-op.
func (s *SparseSet) Remove(value uint32) {
	if !s.Contains(value) {
		return
	}

	// Move last element into the hole (swap and pop)
	idx := s.sparse[value]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear removes all elements from the set in O(1) time
func (s *SparseSet) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of elements in the set
func (s *SparseSet) Len() int {
	return len(s.dense)
}

// IsEmpty returns true if the set contains no elements
func (s *SparseSet) IsEmpty() bool {
	return len(s.dense) == 0
}

// Values returns the members in insertion order.
// The returned slice is valid until the next mutation.
func (s *SparseSet) Values() []uint32 {
	return s.dense
}
