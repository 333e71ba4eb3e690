// Package stateset provides a set of densely indexed automaton state ids.
//
// The set switches representation by size:
//
//   - up to 2 members: packed inline into one uint64 (two 32-bit slots),
//   - 3+ members over an index of at most 64 states: a single-word bitset,
//   - 3+ members otherwise: an insertion-sorted []uint32 with binary search.
//
// The common small case never allocates. A set is promoted on its third
// insertion and never demoted by Remove. Iteration is always ascending,
// and Equal/Hash depend only on membership, never on representation.
//
// A Set is a value type scoped to one Index (the automaton its ids belong
// to). Combining sets of different indices is a programming error and
// panics. A Set is not safe for concurrent mutation.
package stateset

import (
	"encoding/binary"
	"hash/fnv"
	"iter"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Index is the id space a Set is scoped to.
type Index interface {
	// NumberOfStates returns the exclusive upper bound of valid ids.
	NumberOfStates() int
}

// bitsetLimit is the largest index size served by the one-word bitset.
const bitsetLimit = 64

// inlineCap is the number of members stored inline.
const inlineCap = 2

type repr uint8

const (
	reprInline repr = iota
	reprBitset
	reprArray
)

// Set is a set of state ids. Use New to create one; the zero value has no
// index and panics on insertion.
type Set struct {
	index Index
	repr  repr
	// batch is set while unsorted AddBatch appends are pending
	batch bool
	size  int
	// word holds the inline slots (slot 0 in the low half, always the
	// smaller id) or the bitset
	word  uint64
	array []uint32
}

// New creates an empty set over the given index.
func New(index Index) Set {
	return Set{index: index}
}

// Of creates a set over index containing ids.
func Of(index Index, ids ...uint32) Set {
	s := New(index)
	for _, id := range ids {
		s.AddBatch(id)
	}
	s.AddBatchFinish()
	return s
}

// Index returns the index the set is scoped to.
func (s *Set) Index() Index {
	return s.index
}

func (s *Set) checkReady() {
	if s.batch {
		panic("stateset: operation on unfinished batch (missing AddBatchFinish)")
	}
}

func (s *Set) checkID(id uint32) {
	if int(id) >= s.index.NumberOfStates() {
		panic("stateset: id " + strconv.FormatUint(uint64(id), 10) + " out of index range")
	}
}

func (s *Set) checkCompatible(other *Set) {
	if s.index != other.index {
		panic("stateset: sets belong to different indices")
	}
	s.checkReady()
	other.checkReady()
}

func (s *Set) slot(i int) uint32 {
	return uint32(s.word >> (32 * i))
}

// Len returns the number of members.
func (s *Set) Len() int {
	s.checkReady()
	return s.size
}

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Contains reports whether id is a member.
func (s *Set) Contains(id uint32) bool {
	s.checkReady()
	switch s.repr {
	case reprInline:
		return (s.size > 0 && s.slot(0) == id) || (s.size > 1 && s.slot(1) == id)
	case reprBitset:
		return id < bitsetLimit && s.word&(1<<id) != 0
	default:
		_, found := slices.BinarySearch(s.array, id)
		return found
	}
}

// Add inserts id and reports whether it was absent.
func (s *Set) Add(id uint32) bool {
	s.checkReady()
	s.checkID(id)
	switch s.repr {
	case reprInline:
		switch s.size {
		case 0:
			s.word = uint64(id)
		case 1:
			first := s.slot(0)
			if first == id {
				return false
			}
			lo, hi := min(first, id), max(first, id)
			s.word = uint64(hi)<<32 | uint64(lo)
		default:
			if s.slot(0) == id || s.slot(1) == id {
				return false
			}
			s.promote()
			return s.Add(id)
		}
		s.size++
		return true
	case reprBitset:
		if id >= bitsetLimit {
			// the index grew past the bitset range after promotion
			s.toArray()
			return s.Add(id)
		}
		mask := uint64(1) << id
		if s.word&mask != 0 {
			return false
		}
		s.word |= mask
		s.size++
		return true
	default:
		i, found := slices.BinarySearch(s.array, id)
		if found {
			return false
		}
		s.array = slices.Insert(s.array, i, id)
		s.size++
		return true
	}
}

// promote moves the two inline members into the backing representation.
func (s *Set) promote() {
	lo, hi := s.slot(0), s.slot(1)
	if s.index.NumberOfStates() <= bitsetLimit {
		s.word = 1<<lo | 1<<hi
		s.repr = reprBitset
		return
	}
	s.array = append(s.array[:0], lo, hi)
	s.word = 0
	s.repr = reprArray
}

func (s *Set) toArray() {
	arr := s.array[:0]
	for w := s.word; w != 0; w &= w - 1 {
		arr = append(arr, uint32(bits.TrailingZeros64(w)))
	}
	s.array = arr
	s.word = 0
	s.repr = reprArray
}

// Remove deletes id and reports whether it was present.
// The representation is kept even if the set shrinks below the threshold.
func (s *Set) Remove(id uint32) bool {
	s.checkReady()
	switch s.repr {
	case reprInline:
		switch {
		case s.size > 0 && s.slot(0) == id:
			s.word >>= 32
		case s.size > 1 && s.slot(1) == id:
			s.word &= 0xFFFFFFFF
		default:
			return false
		}
		s.size--
		return true
	case reprBitset:
		if id >= bitsetLimit || s.word&(1<<id) == 0 {
			return false
		}
		s.word &^= 1 << id
		s.size--
		return true
	default:
		i, found := slices.BinarySearch(s.array, id)
		if !found {
			return false
		}
		s.array = slices.Delete(s.array, i, i+1)
		s.size--
		return true
	}
}

// AddBatch inserts id without keeping the array representation sorted.
// Call AddBatchFinish before any other operation; bulk loading this way
// costs one sort instead of one insertion shift per id.
func (s *Set) AddBatch(id uint32) {
	if s.repr != reprArray {
		s.Add(id)
		return
	}
	s.checkID(id)
	s.array = append(s.array, id)
	s.batch = true
}

// AddBatchFinish sorts and deduplicates ids appended by AddBatch.
func (s *Set) AddBatchFinish() {
	if !s.batch {
		return
	}
	slices.Sort(s.array)
	s.array = slices.Compact(s.array)
	s.size = len(s.array)
	s.batch = false
}

// Clear removes all members. Backing storage is kept for reuse.
func (s *Set) Clear() {
	s.repr = reprInline
	s.batch = false
	s.size = 0
	s.word = 0
	s.array = s.array[:0]
}

// All returns an iterator over the members in ascending order.
func (s *Set) All() iter.Seq[uint32] {
	s.checkReady()
	return func(yield func(uint32) bool) {
		switch s.repr {
		case reprInline:
			for i := range s.size {
				if !yield(s.slot(i)) {
					return
				}
			}
		case reprBitset:
			for w := s.word; w != 0; w &= w - 1 {
				if !yield(uint32(bits.TrailingZeros64(w))) {
					return
				}
			}
		default:
			for _, id := range s.array {
				if !yield(id) {
					return
				}
			}
		}
	}
}

// AppendTo appends the members in ascending order to dst.
func (s *Set) AppendTo(dst []uint32) []uint32 {
	for id := range s.All() {
		dst = append(dst, id)
	}
	return dst
}

// IsDisjoint reports whether s and other share no member.
func (s *Set) IsDisjoint(other *Set) bool {
	s.checkCompatible(other)
	if s.repr == reprBitset && other.repr == reprBitset {
		return s.word&other.word == 0
	}
	small, large := s, other
	if small.size > large.size {
		small, large = large, small
	}
	for id := range small.All() {
		if large.Contains(id) {
			return false
		}
	}
	return true
}

// UnionInPlace adds every member of other to s.
func (s *Set) UnionInPlace(other *Set) {
	s.checkCompatible(other)
	if s.repr == reprBitset && other.repr == reprBitset {
		s.word |= other.word
		s.size = bits.OnesCount64(s.word)
		return
	}
	for id := range other.All() {
		s.AddBatch(id)
	}
	s.AddBatchFinish()
}

// Equal reports whether both sets have the same members.
func (s *Set) Equal(other *Set) bool {
	s.checkCompatible(other)
	if s.size != other.size {
		return false
	}
	if s.repr == reprBitset && other.repr == reprBitset {
		return s.word == other.word
	}
	for id := range s.All() {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Hash returns an FNV-1a hash of the ascending member list. Sets with equal
// members hash equally whatever their representation.
func (s *Set) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for id := range s.All() {
		binary.LittleEndian.PutUint32(buf[:], id)
		// hash.Hash.Write never returns an error per documentation
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Copy returns an independent deep copy.
func (s *Set) Copy() Set {
	s.checkReady()
	c := *s
	c.array = slices.Clone(s.array)
	return c
}

// String returns the members as {a, b, c}.
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for id := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	sb.WriteByte('}')
	return sb.String()
}
