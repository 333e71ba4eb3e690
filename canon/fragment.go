package canon

import (
	"fmt"
	"strings"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/stateset"
	"github.com/coregx/qdfa/transop"
)

// TransitionBuilder is one DFA transition fragment returned by
// Canonicalizer.Run. The charsets of two fragments of the same run are
// disjoint unless both carry formulas that cannot hold together.
type TransitionBuilder struct {
	// Targets is the set of NFA states the fragment leads to.
	Targets stateset.Set

	// Transitions are the NFA transitions taken, in priority order.
	Transitions []nfa.TransitionID

	// Charset is the set of codepoints the fragment consumes.
	Charset charset.Set

	// Formula guards the fragment; empty means unconditional.
	Formula constraint.Formula

	// Ops are the counter updates of all taken transitions, unscheduled.
	// This includes updates of transitions pruned behind a final target.
	Ops []transop.Op

	sequence     []uint32
	leadsToFinal bool
}

// HasConstraints reports whether the fragment is guarded.
func (b *TransitionBuilder) HasConstraints() bool {
	return len(b.Formula) > 0
}

// LeadsToFinal reports whether one of the taken transitions enters a final
// state.
func (b *TransitionBuilder) LeadsToFinal() bool {
	return b.leadsToFinal
}

// TargetSequence returns the distinct target states in priority order.
func (b *TransitionBuilder) TargetSequence() []uint32 {
	return b.sequence
}

// String returns e.g. "[a-l] -> {1, 2} if q0@s5:anyLtMax do [q0:s1=inc(s0)]".
func (b *TransitionBuilder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -> %s", b.Charset, b.Targets.String())
	if b.HasConstraints() {
		fmt.Fprintf(&sb, " if %s", b.Formula)
	}
	if len(b.Ops) > 0 {
		fmt.Fprintf(&sb, " do %v", b.Ops)
	}
	return sb.String()
}
