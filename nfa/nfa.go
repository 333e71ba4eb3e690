// Package nfa provides the arena-indexed NFA consumed by the transition
// canonicalizer.
//
// States and transitions live in flat slices owned by the NFA and refer to
// each other only by dense integer ids. Transitions carry a codepoint set,
// a constraint formula over quantifier counters and a list of counter
// update operations. An NFA is immutable once built and safe for
// concurrent reads.
package nfa

import (
	"fmt"
	"math"
	"strings"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/transop"
)

// StateID uniquely identifies an NFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// TransitionID uniquely identifies an NFA transition.
type TransitionID uint32

// QuantifierID identifies a bounded quantifier and its counter.
type QuantifierID uint32

// InvalidState represents an invalid/uninitialized state ID
const InvalidState StateID = 0xFFFFFFFF

// Infinite is the Max of an unbounded quantifier such as {2,}.
const Infinite uint32 = math.MaxUint32

// StateFlags holds the initial/final markers of a state. The four bits are
// independent and may be combined.
type StateFlags uint8

const (
	// AnchoredInitial marks a start state for anchored searches
	AnchoredInitial StateFlags = 1 << iota
	// UnanchoredInitial marks a start state for unanchored searches
	UnanchoredInitial
	// AnchoredFinal marks an accepting state that requires end of input
	AnchoredFinal
	// UnanchoredFinal marks an accepting state
	UnanchoredFinal
)

// String returns the set flag names joined by '|'.
func (f StateFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	names := []string{"anchoredInitial", "unanchoredInitial", "anchoredFinal", "unanchoredFinal"}
	for i, name := range names {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// State is an NFA state with its incident transitions.
type State struct {
	id           StateID
	flags        StateFlags
	successors   []TransitionID
	predecessors []TransitionID
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// Flags returns the state's initial/final markers.
func (s *State) Flags() StateFlags {
	return s.flags
}

// IsInitial reports whether the state starts anchored or unanchored searches.
func (s *State) IsInitial(anchored bool) bool {
	if anchored {
		return s.flags&AnchoredInitial != 0
	}
	return s.flags&UnanchoredInitial != 0
}

// IsFinal reports whether the state accepts in the given mode.
func (s *State) IsFinal(anchored bool) bool {
	if anchored {
		return s.flags&AnchoredFinal != 0
	}
	return s.flags&UnanchoredFinal != 0
}

// IsAnyFinal reports whether the state accepts in either mode.
func (s *State) IsAnyFinal() bool {
	return s.flags&(AnchoredFinal|UnanchoredFinal) != 0
}

// Successors returns the outgoing transitions in priority order.
func (s *State) Successors() []TransitionID {
	return s.successors
}

// Predecessors returns the incoming transitions.
func (s *State) Predecessors() []TransitionID {
	return s.predecessors
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	return fmt.Sprintf("State(%d, %s, out=%v)", s.id, s.flags, s.successors)
}

// Transition is a guarded, counter-updating edge between two states.
type Transition struct {
	id          TransitionID
	source      StateID
	target      StateID
	charset     charset.Set
	constraints constraint.Formula
	ops         []transop.Op
}

// ID returns the transition's unique identifier
func (t *Transition) ID() TransitionID {
	return t.id
}

// Source returns the state the transition leaves.
func (t *Transition) Source() StateID {
	return t.source
}

// Target returns the state the transition enters.
func (t *Transition) Target() StateID {
	return t.target
}

// Charset returns the codepoints the transition consumes.
func (t *Transition) Charset() charset.Set {
	return t.charset
}

// Constraints returns the guard formula; empty means unconditional.
func (t *Transition) Constraints() constraint.Formula {
	return t.constraints
}

// Ops returns the counter updates performed when the transition is taken.
func (t *Transition) Ops() []transop.Op {
	return t.ops
}

// String returns a human-readable representation of the transition
func (t *Transition) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transition(%d, %d -%s-> %d", t.id, t.source, t.charset, t.target)
	if len(t.constraints) > 0 {
		fmt.Fprintf(&sb, " if %s", t.constraints)
	}
	if len(t.ops) > 0 {
		fmt.Fprintf(&sb, " do %v", t.ops)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Quantifier holds the bounds of a counted repetition {Min,Max}.
type Quantifier struct {
	Min uint32
	Max uint32 // Infinite for unbounded
}

// String returns the bounds in regex syntax.
func (q Quantifier) String() string {
	if q.Max == Infinite {
		return fmt.Sprintf("{%d,}", q.Min)
	}
	return fmt.Sprintf("{%d,%d}", q.Min, q.Max)
}

// NFA is an immutable automaton built by Builder.
type NFA struct {
	states      []State
	transitions []Transition
	quantifiers []Quantifier
}

// State returns the state with the given ID.
// Returns nil if the ID is invalid.
func (n *NFA) State(id StateID) *State {
	if int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// Transition returns the transition with the given ID.
// Returns nil if the ID is invalid.
func (n *NFA) Transition(id TransitionID) *Transition {
	if int(id) >= len(n.transitions) {
		return nil
	}
	return &n.transitions[id]
}

// Quantifier returns the bounds of quantifier q.
func (n *NFA) Quantifier(q QuantifierID) (Quantifier, bool) {
	if int(q) >= len(n.quantifiers) {
		return Quantifier{}, false
	}
	return n.quantifiers[q], true
}

// NumberOfStates returns the total number of states. It makes the NFA a
// stateset.Index.
func (n *NFA) NumberOfStates() int {
	return len(n.states)
}

// NumberOfTransitions returns the total number of transitions.
func (n *NFA) NumberOfTransitions() int {
	return len(n.transitions)
}

// NumberOfQuantifiers returns the total number of quantifiers.
func (n *NFA) NumberOfQuantifiers() int {
	return len(n.quantifiers)
}

// InitialStates returns the start states of the given mode in id order.
func (n *NFA) InitialStates(anchored bool) []StateID {
	var out []StateID
	for i := range n.states {
		if n.states[i].IsInitial(anchored) {
			out = append(out, StateID(i))
		}
	}
	return out
}

// String returns a human-readable representation of the NFA
func (n *NFA) String() string {
	return fmt.Sprintf("NFA{states: %d, transitions: %d, quantifiers: %d}",
		len(n.states), len(n.transitions), len(n.quantifiers))
}
