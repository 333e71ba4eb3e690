// Package constraint implements the guard predicates attached to
// counter-carrying transitions.
//
// A Constraint is a packed 64-bit word guarding the counter of one
// quantifier at one NFA state against the quantifier's min/max bounds. A
// Formula is a conjunction of constraints kept sorted and duplicate-free;
// the empty formula is always true.
//
// For satisfiability the counter value of a (quantifier, state) group is
// abstracted to one of three disjoint ranges:
//
//	R0 = [0, min)   R1 = [min, max)   R2 = [max, ∞)
//
// Each kind admits a subset of those ranges, and a formula is satisfiable
// iff every group keeps at least one admissible range. Groups are
// independent of each other.
package constraint

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/coregx/qdfa/internal/conv"
)

// Kind selects the guard a constraint checks. Kinds come in negation
// pairs (even, odd); Negate flips the low bit.
type Kind uint8

const (
	// AnyLtMax holds if some tracked value is below max.
	AnyLtMax Kind = iota
	// AllGeMax holds if all tracked values reached max.
	AllGeMax
	// AnyGeMin holds if some tracked value reached min.
	AnyGeMin
	// AllLtMin holds if all tracked values are below min.
	AllLtMin
	// AnyLtMin holds if some tracked value is below min.
	AnyLtMin
	// AllGeMin holds if all tracked values reached min.
	AllGeMin

	numKinds = 6
)

// Range identifies one of the three value ranges of the abstraction.
type Range uint8

const (
	BelowMin   Range = iota // [0, min)
	MinToMax                // [min, max)
	AtLeastMax              // [max, ∞)
)

const allRanges = 1<<BelowMin | 1<<MinToMax | 1<<AtLeastMax

// kindMasks holds the admissible ranges of each kind. Paired kinds have
// complementary masks.
var kindMasks = [numKinds]uint8{
	AnyLtMax: 1<<BelowMin | 1<<MinToMax,
	AllGeMax: 1 << AtLeastMax,
	AnyGeMin: 1<<MinToMax | 1<<AtLeastMax,
	AllLtMin: 1 << BelowMin,
	AnyLtMin: 1 << BelowMin,
	AllGeMin: 1<<MinToMax | 1<<AtLeastMax,
}

var kindNames = [numKinds]string{"anyLtMax", "allGeMax", "anyGeMin", "allLtMin", "anyLtMin", "allGeMin"}

// Negate returns the complementary kind.
func (k Kind) Negate() Kind {
	return k ^ 1
}

// Admits reports whether a value in range r satisfies the kind.
func (k Kind) Admits(r Range) bool {
	return k.mask()&(1<<r) != 0
}

func (k Kind) mask() uint8 {
	if k >= numKinds {
		panic(fmt.Sprintf("constraint: invalid kind %d", k))
	}
	return kindMasks[k]
}

// String returns the kind's name.
func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// Bit layout, most significant first: quantifier (29) | state (29) | kind (3).
// Numeric order therefore groups by quantifier, then state, then kind.
const (
	kindBits       = 3
	stateBits      = 29
	quantifierBits = 29

	stateShift      = kindBits
	quantifierShift = kindBits + stateBits

	kindMask       = 1<<kindBits - 1
	stateMask      = 1<<stateBits - 1
	quantifierMask = 1<<quantifierBits - 1
)

// Constraint is a packed guard word.
type Constraint uint64

// New packs a constraint. Panics if an id does not fit its bit field.
func New(quantifier, state uint32, kind Kind) Constraint {
	_ = kind.mask()
	return Constraint(conv.Field(quantifier, quantifierBits, "quantifier id")<<quantifierShift |
		conv.Field(state, stateBits, "state id")<<stateShift |
		uint64(kind))
}

// Quantifier returns the guarded quantifier's id.
func (c Constraint) Quantifier() uint32 {
	return uint32(c>>quantifierShift) & quantifierMask
}

// State returns the NFA state whose counter is guarded.
func (c Constraint) State() uint32 {
	return uint32(c>>stateShift) & stateMask
}

// Kind returns the guard kind.
func (c Constraint) Kind() Kind {
	return Kind(c & kindMask)
}

// Negate returns the complementary constraint on the same counter.
func (c Constraint) Negate() Constraint {
	return c ^ 1
}

// group strips the kind, leaving the (quantifier, state) key.
func (c Constraint) group() Constraint {
	return c &^ kindMask
}

// String returns e.g. "q0@s5:anyLtMax".
func (c Constraint) String() string {
	return fmt.Sprintf("q%d@s%d:%s", c.Quantifier(), c.State(), c.Kind())
}

// Formula is a conjunction of constraints, sorted ascending and
// duplicate-free. The empty formula is always true.
type Formula []Constraint

// Normalize returns a sorted, duplicate-free copy of f.
func Normalize(f Formula) Formula {
	out := slices.Clone(f)
	slices.Sort(out)
	return slices.Compact(out)
}

// IsNormalized reports whether f is strictly ascending.
func (f Formula) IsNormalized() bool {
	for i := 1; i < len(f); i++ {
		if f[i-1] >= f[i] {
			return false
		}
	}
	return true
}

func (f Formula) mustBeNormalized() {
	if !f.IsNormalized() {
		panic("constraint: formula is not normalized: " + f.String())
	}
}

// Equal reports whether both formulas have the same constraints.
func (f Formula) Equal(other Formula) bool {
	return slices.Equal(f, other)
}

// Contains reports whether c is one of the formula's constraints.
func (f Formula) Contains(c Constraint) bool {
	_, found := slices.BinarySearch(f, c)
	return found
}

// AppendKey appends a byte encoding of f to dst, suitable as a map key.
func (f Formula) AppendKey(dst []byte) []byte {
	for _, c := range f {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(c))
	}
	return dst
}

// String returns the conjunction, or "true" for the empty formula.
func (f Formula) String() string {
	if len(f) == 0 {
		return "true"
	}
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}

// Assignment maps a guarded counter to the range its value lies in.
type Assignment func(quantifier, state uint32) Range

// Eval evaluates f under the range abstraction.
func Eval(f Formula, a Assignment) bool {
	for _, c := range f {
		if !c.Kind().Admits(a(c.Quantifier(), c.State())) {
			return false
		}
	}
	return true
}
