// Package dfa builds a DFA with counter-guarded transitions from an NFA.
//
// Construction is the classic power-set algorithm driven by a worklist.
// For every DFA state the transitions leaving its NFA states are handed to
// a canon.Canonicalizer, and the counter updates of every resulting
// fragment are ordered by a transop.Scheduler. Fragment targets are
// interned through a Cache so each distinct NFA state set (or priority
// sequence, in priority-sensitive mode) becomes one DFA state.
//
// Example usage:
//
//	d, err := dfa.Compile(n, dfa.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for _, t := range d.Start().Transitions() {
//	    fmt.Println(t.String())
//	}
package dfa

import (
	"fmt"

	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/transop"
)

// DFA is a fully built deterministic automaton.
//
// Thread safety: a built DFA is immutable and safe for concurrent reads.
type DFA struct {
	nfa    *nfa.NFA
	cache  *Cache
	config Config
	start  StateID

	// temps sized the scratch counter slots used by scheduled ops; nil
	// when no transition has ops
	temps *transop.TempPool
}

// Start returns the initial DFA state.
func (d *DFA) Start() *State {
	return d.cache.State(d.start)
}

// State returns the state with the given ID, or nil.
func (d *DFA) State(id StateID) *State {
	return d.cache.State(id)
}

// NumStates returns the number of DFA states.
func (d *DFA) NumStates() int {
	return d.cache.Size()
}

// NFA returns the automaton the DFA was built from.
func (d *DFA) NFA() *nfa.NFA {
	return d.nfa
}

// Config returns the configuration the DFA was built with.
func (d *DFA) Config() Config {
	return d.config
}

// Stats returns the state cache statistics collected during construction.
func (d *DFA) Stats() (hits, misses uint64, hitRate float64) {
	return d.cache.Stats()
}

// TempSlots returns how many temporary counter slots quantifier q needs
// at most. Temporaries are numbered from NFA().NumberOfStates() on.
func (d *DFA) TempSlots(q uint32) int {
	if d.temps == nil {
		return 0
	}
	return d.temps.HighWater(q)
}

// String returns a human-readable representation of the DFA
func (d *DFA) String() string {
	return fmt.Sprintf("DFA{states: %d, start: %d}", d.NumStates(), d.start)
}
