// Package transop implements counter update operations attached to
// transitions, and the scheduler that orders them for execution.
//
// An Op is a packed 64-bit word. On a DFA transition every op computes a
// new counter value set for its target state from the *old* value set of
// its source state; all ops of one transition conceptually run at once.
// The scheduler turns that parallel assignment into a sequence that reads
// every source before it is overwritten.
package transop

import (
	"fmt"

	"github.com/coregx/qdfa/internal/conv"
)

// Kind is the value computation of an op.
type Kind uint8

const (
	// Inc sets target to source values plus one.
	Inc Kind = iota
	// Set1 sets target to {1}. It has no source.
	Set1
	// SetMin sets target to {min} of the quantifier. The source is
	// recorded but not read.
	SetMin
	// Maintain copies source values to target.
	Maintain
)

func (k Kind) String() string {
	switch k {
	case Inc:
		return "inc"
	case Set1:
		return "set1"
	case SetMin:
		return "setMin"
	case Maintain:
		return "maintain"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Modifier tells the executor how to store the computed value.
type Modifier uint8

const (
	// None marks an op that has not been scheduled.
	None Modifier = iota
	// Overwrite replaces the target's values.
	Overwrite
	// Move replaces the target's values and may steal the source storage;
	// the source is dead afterwards.
	Move
	// Union adds to the target's values.
	Union
)

func (m Modifier) String() string {
	switch m {
	case None:
		return ""
	case Overwrite:
		return "overwrite"
	case Move:
		return "move"
	case Union:
		return "union"
	default:
		return fmt.Sprintf("Modifier(%d)", m)
	}
}

// NoSource is the source field of ops that read no counter.
const NoSource uint16 = 0xFFFF

// Bit layout, most significant first:
// modifier (2) | quantifier (28) | target (16) | source (16) | kind (2).
const (
	kindBits       = 2
	sourceBits     = 16
	targetBits     = 16
	quantifierBits = 28

	sourceShift     = kindBits
	targetShift     = sourceShift + sourceBits
	quantifierShift = targetShift + targetBits
	modifierShift   = quantifierShift + quantifierBits

	kindMask       = 1<<kindBits - 1
	fieldMask16    = 1<<16 - 1
	quantifierMask = 1<<quantifierBits - 1
	modifierMask   = uint64(3) << modifierShift
)

// Op is a packed counter update.
type Op uint64

// New packs an unscheduled op. Panics if the quantifier id needs more than
// 28 bits.
func New(kind Kind, quantifier uint32, target, source uint16) Op {
	return Op(conv.Field(quantifier, quantifierBits, "quantifier id")<<quantifierShift |
		uint64(target)<<targetShift |
		uint64(source)<<sourceShift |
		uint64(kind&kindMask))
}

// NewInc returns target := source + 1.
func NewInc(quantifier uint32, target, source uint16) Op {
	return New(Inc, quantifier, target, source)
}

// NewMaintain returns target := source.
func NewMaintain(quantifier uint32, target, source uint16) Op {
	return New(Maintain, quantifier, target, source)
}

// NewSet1 returns target := {1}.
func NewSet1(quantifier uint32, target uint16) Op {
	return New(Set1, quantifier, target, NoSource)
}

// NewSetMin returns target := {min}.
func NewSetMin(quantifier uint32, target, source uint16) Op {
	return New(SetMin, quantifier, target, source)
}

// Kind returns the value computation.
func (o Op) Kind() Kind {
	return Kind(o & kindMask)
}

// Modifier returns the storage modifier set by the scheduler.
func (o Op) Modifier() Modifier {
	return Modifier(uint64(o) >> modifierShift)
}

// Quantifier returns the quantifier id.
func (o Op) Quantifier() uint32 {
	return uint32(o>>quantifierShift) & quantifierMask
}

// Target returns the written counter slot.
func (o Op) Target() uint16 {
	return uint16(o>>targetShift) & fieldMask16
}

// Source returns the read counter slot, or NoSource.
func (o Op) Source() uint16 {
	return uint16(o>>sourceShift) & fieldMask16
}

// ReadsSource reports whether the op's value depends on its source.
func (o Op) ReadsSource() bool {
	k := o.Kind()
	return k == Inc || k == Maintain
}

// IsSelfReferential reports whether the op reads and writes the same slot.
func (o Op) IsSelfReferential() bool {
	return o.ReadsSource() && o.Source() == o.Target()
}

// Key returns the op with its modifier cleared.
func (o Op) Key() Op {
	return Op(uint64(o) &^ modifierMask)
}

// WithModifier returns o with modifier m.
func (o Op) WithModifier(m Modifier) Op {
	return Op(uint64(o)&^modifierMask | uint64(m)<<modifierShift)
}

// WithTarget returns o writing to target.
func (o Op) WithTarget(target uint16) Op {
	return Op(uint64(o)&^(fieldMask16<<targetShift) | uint64(target)<<targetShift)
}

// WithSource returns o reading from source.
func (o Op) WithSource(source uint16) Op {
	return Op(uint64(o)&^(fieldMask16<<sourceShift) | uint64(source)<<sourceShift)
}

// String returns e.g. "q1:s4=inc(s2)/overwrite".
func (o Op) String() string {
	var s string
	switch o.Kind() {
	case Set1:
		s = fmt.Sprintf("q%d:s%d=set1", o.Quantifier(), o.Target())
	default:
		s = fmt.Sprintf("q%d:s%d=%s(s%d)", o.Quantifier(), o.Target(), o.Kind(), o.Source())
	}
	if m := o.Modifier(); m != None {
		s += "/" + m.String()
	}
	return s
}
