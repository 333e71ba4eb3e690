package nfa

import (
	"fmt"
	"slices"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/internal/conv"
	"github.com/coregx/qdfa/transop"
)

// Builder constructs NFAs incrementally. States and transitions are
// append-only; flags may be added to existing states at any time before
// Build.
type Builder struct {
	states      []State
	transitions []Transition
	quantifiers []Quantifier
}

// NewBuilder creates a new NFA builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new NFA builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states:      make([]State, 0, capacity),
		transitions: make([]Transition, 0, capacity),
	}
}

// AddState adds a state without flags and returns its ID
func (b *Builder) AddState() StateID {
	id := StateID(conv.IntToUint32(len(b.states)))
	b.states = append(b.states, State{id: id})
	return id
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

// SetFlags ORs flags into the state's markers.
func (b *Builder) SetFlags(id StateID, flags StateFlags) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id, Err: ErrInvalidState}
	}
	b.states[id].flags |= flags
	return nil
}

// AddQuantifier registers a counted repetition {min,max}. Use Infinite as
// max for an unbounded upper limit.
func (b *Builder) AddQuantifier(minCount, maxCount uint32) (QuantifierID, error) {
	if minCount > maxCount {
		return 0, &BuildError{
			Message: fmt.Sprintf("quantifier min %d exceeds max %d", minCount, maxCount),
			StateID: InvalidState,
			Err:     ErrInvalidQuantifier,
		}
	}
	id := QuantifierID(conv.IntToUint32(len(b.quantifiers)))
	b.quantifiers = append(b.quantifiers, Quantifier{Min: minCount, Max: maxCount})
	return id, nil
}

// AddTransition adds an edge source -cs-> target guarded by constraints and
// performing ops. Successor order is priority order: earlier transitions
// of a state win ties during determinization.
//
// The formula must be normalized, and every quantifier and state referenced
// by constraints or ops must already exist. Both slices are copied.
func (b *Builder) AddTransition(source, target StateID, cs charset.Set, constraints constraint.Formula, ops []transop.Op) (TransitionID, error) {
	if int(source) >= len(b.states) {
		return 0, &BuildError{Message: "source state out of bounds", StateID: source, Err: ErrInvalidState}
	}
	if int(target) >= len(b.states) {
		return 0, &BuildError{Message: "target state out of bounds", StateID: target, Err: ErrInvalidState}
	}
	if err := b.validateGuards(source, constraints, ops); err != nil {
		return 0, err
	}

	id := TransitionID(conv.IntToUint32(len(b.transitions)))
	b.transitions = append(b.transitions, Transition{
		id:          id,
		source:      source,
		target:      target,
		charset:     cs,
		constraints: slices.Clone(constraints),
		ops:         append([]transop.Op(nil), ops...),
	})
	b.states[source].successors = append(b.states[source].successors, id)
	b.states[target].predecessors = append(b.states[target].predecessors, id)
	return id, nil
}

func (b *Builder) validateGuards(source StateID, constraints constraint.Formula, ops []transop.Op) error {
	if !constraints.IsNormalized() {
		return &BuildError{
			Message: fmt.Sprintf("constraint formula %s is not normalized", constraints),
			StateID: source,
			Err:     ErrInvalidTransition,
		}
	}
	for _, c := range constraints {
		if int(c.Quantifier()) >= len(b.quantifiers) {
			return &BuildError{
				Message: fmt.Sprintf("constraint %s references unknown quantifier", c),
				StateID: source,
				Err:     ErrInvalidQuantifier,
			}
		}
		if int(c.State()) >= len(b.states) {
			return &BuildError{
				Message: fmt.Sprintf("constraint %s references unknown state", c),
				StateID: source,
				Err:     ErrInvalidTransition,
			}
		}
	}
	for _, op := range ops {
		if op.Modifier() != transop.None {
			return &BuildError{
				Message: fmt.Sprintf("operation %s is already scheduled", op),
				StateID: source,
				Err:     ErrInvalidTransition,
			}
		}
		if int(op.Quantifier()) >= len(b.quantifiers) {
			return &BuildError{
				Message: fmt.Sprintf("operation %s references unknown quantifier", op),
				StateID: source,
				Err:     ErrInvalidQuantifier,
			}
		}
		if op.Target() == transop.NoSource {
			return &BuildError{
				Message: fmt.Sprintf("operation %s targets the reserved slot %d", op, transop.NoSource),
				StateID: source,
				Err:     ErrInvalidTransition,
			}
		}
		if int(op.Target()) >= len(b.states) ||
			(op.Source() != transop.NoSource && int(op.Source()) >= len(b.states)) {
			return &BuildError{
				Message: fmt.Sprintf("operation %s references unknown state", op),
				StateID: source,
				Err:     ErrInvalidTransition,
			}
		}
	}
	return nil
}

// Validate checks that the NFA is well-formed: it has at least one
// initial state.
func (b *Builder) Validate() error {
	for i := range b.states {
		if b.states[i].flags&(AnchoredInitial|UnanchoredInitial) != 0 {
			return nil
		}
	}
	return &BuildError{Message: "no initial state", StateID: InvalidState, Err: ErrNoInitialState}
}

// Build finalizes and returns the constructed NFA. The builder must not be
// used afterwards.
func (b *Builder) Build() (*NFA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &NFA{
		states:      b.states,
		transitions: b.transitions,
		quantifiers: b.quantifiers,
	}, nil
}
