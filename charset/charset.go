// Package charset provides an immutable set of Unicode codepoints.
//
// A Set is a sorted list of disjoint, non-adjacent closed ranges. It is the
// character-matching value type carried by NFA transitions and DFA
// transition fragments. All operations return new sets; a Set is never
// mutated after construction and may be shared freely.
package charset

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/rangetable"
)

// Range is a closed codepoint interval [Lo, Hi].
type Range struct {
	Lo rune // inclusive lower bound
	Hi rune // inclusive upper bound
}

// Set is an immutable codepoint set. The zero value is the empty set.
type Set struct {
	ranges []Range
}

// Empty returns the set matching nothing.
func Empty() Set {
	return Set{}
}

// All returns the set of every valid codepoint.
func All() Set {
	return Set{ranges: []Range{{0, unicode.MaxRune}}}
}

// Single returns the set containing only r.
func Single(r rune) Set {
	return FromRange(r, r)
}

// FromRange returns the set [lo, hi]. An inverted range yields the empty set.
func FromRange(lo, hi rune) Set {
	if lo > hi {
		return Set{}
	}
	return Set{ranges: []Range{{lo, hi}}}
}

// FromRanges builds a set from arbitrary, possibly overlapping ranges.
func FromRanges(ranges ...Range) Set {
	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo <= r.Hi {
			rs = append(rs, r)
		}
	}
	return Set{ranges: coalesce(rs)}
}

// FromRangeTable converts a Unicode range table into a set.
// Strided table entries are expanded into individual codepoints.
func FromRangeTable(rt *unicode.RangeTable) Set {
	if rt == nil {
		return Set{}
	}
	var rs []Range
	for _, r16 := range rt.R16 {
		rs = appendStrided(rs, rune(r16.Lo), rune(r16.Hi), rune(r16.Stride))
	}
	for _, r32 := range rt.R32 {
		rs = appendStrided(rs, rune(r32.Lo), rune(r32.Hi), rune(r32.Stride))
	}
	return Set{ranges: coalesce(rs)}
}

// FromUnicode returns the union of the given Unicode tables, e.g.
// FromUnicode(unicode.Greek, unicode.Digit).
func FromUnicode(tables ...*unicode.RangeTable) Set {
	if len(tables) == 0 {
		return Set{}
	}
	return FromRangeTable(rangetable.Merge(tables...))
}

func appendStrided(rs []Range, lo, hi, stride rune) []Range {
	if stride <= 1 {
		return append(rs, Range{lo, hi})
	}
	for r := lo; r <= hi; r += stride {
		rs = append(rs, Range{r, r})
	}
	return rs
}

// coalesce sorts ranges and merges overlapping or adjacent ones in place.
func coalesce(rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}
	slices.SortFunc(rs, func(a, b Range) int {
		if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
			return c
		}
		return cmp.Compare(a.Hi, b.Hi)
	})
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			last.Hi = max(last.Hi, r.Hi)
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesNothing reports whether the set is empty.
func (s Set) MatchesNothing() bool {
	return len(s.ranges) == 0
}

// MatchesSomething reports whether the set is non-empty.
func (s Set) MatchesSomething() bool {
	return len(s.ranges) != 0
}

// Ranges returns the set's ranges in ascending order.
// The returned slice must not be modified.
func (s Set) Ranges() []Range {
	return s.ranges
}

// Size returns the number of codepoints in the set.
func (s Set) Size() int {
	n := 0
	for _, r := range s.ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// Contains reports whether r is a member of the set.
func (s Set) Contains(r rune) bool {
	_, found := slices.BinarySearchFunc(s.ranges, r, func(x Range, r rune) int {
		switch {
		case x.Hi < r:
			return -1
		case x.Lo > r:
			return 1
		default:
			return 0
		}
	})
	return found
}

// Equal reports whether both sets contain the same codepoints.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s.ranges, other.ranges)
}

// Union returns s ∪ other.
func (s Set) Union(other Set) Set {
	if s.MatchesNothing() {
		return other
	}
	if other.MatchesNothing() {
		return s
	}
	rs := make([]Range, 0, len(s.ranges)+len(other.ranges))
	rs = append(rs, s.ranges...)
	rs = append(rs, other.ranges...)
	return Set{ranges: coalesce(rs)}
}

// Intersect returns s ∩ other.
func (s Set) Intersect(other Set) Set {
	_, _, both := s.IntersectAndSubtract(other)
	return both
}

// Subtract returns s \ other.
func (s Set) Subtract(other Set) Set {
	onlyS, _, _ := s.IntersectAndSubtract(other)
	return onlyS
}

// IntersectAndSubtract splits s and other in one sweep into the codepoints
// only in s, only in other, and in both.
func (s Set) IntersectAndSubtract(other Set) (onlyS, onlyOther, both Set) {
	var a, b, ab []Range
	i, j := 0, 0
	// cur* hold the unconsumed remainder of the current range on each side
	var curA, curB Range
	haveA, haveB := false, false
	for {
		if !haveA && i < len(s.ranges) {
			curA, haveA = s.ranges[i], true
			i++
		}
		if !haveB && j < len(other.ranges) {
			curB, haveB = other.ranges[j], true
			j++
		}
		switch {
		case !haveA && !haveB:
			return Set{ranges: a}, Set{ranges: b}, Set{ranges: ab}
		case !haveB:
			a = append(a, curA)
			haveA = false
			continue
		case !haveA:
			b = append(b, curB)
			haveB = false
			continue
		}
		switch {
		case curA.Hi < curB.Lo:
			a = append(a, curA)
			haveA = false
		case curB.Hi < curA.Lo:
			b = append(b, curB)
			haveB = false
		default:
			if curA.Lo < curB.Lo {
				a = append(a, Range{curA.Lo, curB.Lo - 1})
			} else if curB.Lo < curA.Lo {
				b = append(b, Range{curB.Lo, curA.Lo - 1})
			}
			lo, hi := max(curA.Lo, curB.Lo), min(curA.Hi, curB.Hi)
			ab = append(ab, Range{lo, hi})
			if curA.Hi > hi {
				curA.Lo = hi + 1
			} else {
				haveA = false
			}
			if curB.Hi > hi {
				curB.Lo = hi + 1
			} else {
				haveB = false
			}
		}
	}
}

// String returns a bracketed class like [a-z0-9].
func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, r := range s.ranges {
		writeRune(&sb, r.Lo)
		if r.Hi != r.Lo {
			sb.WriteByte('-')
			writeRune(&sb, r.Hi)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func writeRune(sb *strings.Builder, r rune) {
	if r < utf8.RuneSelf && unicode.IsPrint(r) && r != '-' && r != ']' && r != '\\' {
		sb.WriteRune(r)
		return
	}
	fmt.Fprintf(sb, "\\x{%x}", r)
}
