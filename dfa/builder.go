package dfa

import (
	"errors"
	"fmt"

	"github.com/coregx/qdfa/canon"
	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/stateset"
	"github.com/coregx/qdfa/transop"
)

// Builder constructs a DFA from an NFA.
//
// The builder performs:
//  1. Validate the configuration
//  2. Create the start state from the NFA's initial states
//  3. Determinize every reachable state set, breadth first
//
// A Builder owns one canonicalizer and one scheduler and must not be used
// concurrently.
type Builder struct {
	nfa    *nfa.NFA
	config Config

	canonicalizer *canon.Canonicalizer
	scheduler     *transop.Scheduler
	order         []uint32
}

// NewBuilder creates a new DFA builder for the given NFA
func NewBuilder(n *nfa.NFA, config Config) *Builder {
	return &Builder{
		nfa:           n,
		config:        config,
		canonicalizer: canon.New(n, config.canonConfig()),
		scheduler:     transop.NewScheduler(),
	}
}

// SetMergePredicate forwards an extra fragment merge criterion to the
// canonicalizer.
func (b *Builder) SetMergePredicate(fn canon.MergePredicate) {
	b.canonicalizer.SetMergePredicate(fn)
}

// Build constructs and returns the DFA.
// Returns error if configuration is invalid, the NFA has no initial state
// for the configured mode, more than MaxStates states are needed, or the
// NFA is too large to number temporary counter slots above its states.
func (b *Builder) Build() (*DFA, error) {
	// Validate configuration
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	initial := b.nfa.InitialStates(b.config.Anchored)
	if len(initial) == 0 {
		return nil, ErrNoStart
	}

	cache := NewCache(b.config.MaxStates, b.config.PrioritySensitive)
	startSet := stateset.New(b.nfa)
	sequence := make([]uint32, 0, len(initial))
	for _, id := range initial {
		startSet.Add(uint32(id))
		sequence = append(sequence, uint32(id))
	}
	start, _, err := cache.GetOrInsert(&startSet, sequence)
	if err != nil {
		return nil, b.limitError(err)
	}

	// created on the first op, so counter-free NFAs of any size build
	var temps *transop.TempPool
	queue := []*State{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		b.markMatch(s)
		fragments := b.expand(s)
		s.transitions = make([]Transition, 0, len(fragments))
		for i := range fragments {
			f := &fragments[i]
			next, seen, err := cache.GetOrInsert(&f.Targets, f.TargetSequence())
			if err != nil {
				return nil, b.limitError(err)
			}
			if !seen {
				queue = append(queue, next)
			}
			var ops []transop.Op
			if len(f.Ops) > 0 {
				if err := b.checkTempRoom(len(f.Ops)); err != nil {
					return nil, err
				}
				if temps == nil {
					temps = transop.NewTempPool(b.nfa.NumberOfStates())
				}
				ops = b.scheduler.Schedule(f.Ops, temps)
			}
			s.transitions = append(s.transitions, Transition{
				Charset: f.Charset,
				Formula: f.Formula,
				Ops:     ops,
				Next:    next.ID(),
			})
		}
	}

	return &DFA{
		nfa:    b.nfa,
		cache:  cache,
		config: b.config,
		start:  start.ID(),
		temps:  temps,
	}, nil
}

// checkTempRoom reports whether scheduling n ops can draw its temps from
// the slot ids between the NFA states and transop.NoSource. Each op needs
// at most one temp.
func (b *Builder) checkTempRoom(n int) error {
	if b.nfa.NumberOfStates()+n < int(transop.NoSource) {
		return nil
	}
	return &DFAError{
		Kind: CounterSlotsExhausted,
		Message: fmt.Sprintf("%d NFA states leave no room for %d temporary counter slots",
			b.nfa.NumberOfStates(), n),
	}
}

// limitError reports the configured limit instead of the bare sentinel.
func (b *Builder) limitError(err error) error {
	if !errors.Is(err, ErrStateLimitExceeded) {
		return err
	}
	return &DFAError{
		Kind:    StateLimitExceeded,
		Message: fmt.Sprintf("more than %d DFA states needed", b.config.MaxStates),
	}
}

// expand canonicalizes the transitions leaving the NFA states of s. In
// priority-sensitive mode successors are submitted in the state's
// priority order, otherwise in ascending state order.
func (b *Builder) expand(s *State) []canon.TransitionBuilder {
	order := s.sequence
	if !b.config.PrioritySensitive {
		b.order = s.nfaStates.AppendTo(b.order[:0])
		order = b.order
	}
	for _, id := range order {
		for _, t := range b.nfa.State(nfa.StateID(id)).Successors() {
			b.canonicalizer.AddTransition(t)
		}
	}
	return b.canonicalizer.Run()
}

func (b *Builder) markMatch(s *State) {
	for id := range s.nfaStates.All() {
		st := b.nfa.State(nfa.StateID(id))
		if st.IsFinal(false) {
			s.isMatch = true
		}
		if st.IsAnyFinal() {
			s.isMatchAtEnd = true
		}
	}
}

// Compile builds a DFA from n with the given configuration.
func Compile(n *nfa.NFA, config Config) (*DFA, error) {
	return NewBuilder(n, config).Build()
}
