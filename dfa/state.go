package dfa

import (
	"fmt"
	"strings"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/stateset"
	"github.com/coregx/qdfa/transop"
)

// StateID uniquely identifies a DFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// InvalidState is returned by State.Next when no transition applies.
const InvalidState StateID = 0xFFFFFFFF

// Transition is one outgoing edge of a DFA state. It is taken on a
// codepoint in Charset when Formula holds for the current counters, and
// then runs Ops in order.
type Transition struct {
	Charset charset.Set
	Formula constraint.Formula
	Ops     []transop.Op
	Next    StateID
}

// String returns a human-readable representation of the transition
func (t *Transition) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -> %d", t.Charset, t.Next)
	if len(t.Formula) > 0 {
		fmt.Fprintf(&sb, " if %s", t.Formula)
	}
	if len(t.Ops) > 0 {
		fmt.Fprintf(&sb, " do %v", t.Ops)
	}
	return sb.String()
}

// State represents a DFA state with its transitions.
type State struct {
	// id uniquely identifies this state in the cache
	id StateID

	// nfaStates is the set of NFA states this DFA state represents.
	nfaStates stateset.Set

	// sequence lists nfaStates in priority order.
	sequence []uint32

	// isMatch indicates if some NFA state accepts anywhere
	isMatch bool

	// isMatchAtEnd indicates if some NFA state accepts at end of input
	isMatchAtEnd bool

	transitions []Transition
}

// newState creates a DFA state owning a copy of set.
func newState(set *stateset.Set, sequence []uint32) *State {
	return &State{
		id:        InvalidState,
		nfaStates: set.Copy(),
		sequence:  append([]uint32(nil), sequence...),
	}
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// IsMatch returns true if this is an accepting state
func (s *State) IsMatch() bool {
	return s.isMatch
}

// IsMatchAtEnd returns true if the state accepts at end of input.
func (s *State) IsMatchAtEnd() bool {
	return s.isMatchAtEnd
}

// NFAStates returns the NFA states represented by this DFA state
func (s *State) NFAStates() *stateset.Set {
	return &s.nfaStates
}

// PrioritySequence returns the NFA states in priority order.
func (s *State) PrioritySequence() []uint32 {
	return s.sequence
}

// Transitions returns the outgoing transitions.
func (s *State) Transitions() []Transition {
	return s.transitions
}

// Next returns the state reached on r under the counter ranges a.
// Returns (InvalidState, nil) if no transition matches.
func (s *State) Next(r rune, a constraint.Assignment) (StateID, []transop.Op) {
	for i := range s.transitions {
		t := &s.transitions[i]
		if t.Charset.Contains(r) && constraint.Eval(t.Formula, a) {
			return t.Next, t.Ops
		}
	}
	return InvalidState, nil
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	return fmt.Sprintf("DFAState(id=%d, isMatch=%v, transitions=%d, nfaStates=%s)",
		s.id, s.isMatch, len(s.transitions), s.nfaStates.String())
}

// StateKey identifies a DFA state based on its NFA state set.
//
// Equal sets always have equal keys; different sets may collide, so the
// cache confirms every hit with a full comparison.
type StateKey uint64

// ComputeStateKey computes the key of a set of NFA states.
func ComputeStateKey(set *stateset.Set) StateKey {
	return StateKey(set.Hash())
}
