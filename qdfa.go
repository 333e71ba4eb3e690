// Package qdfa compiles NFAs with counted repetitions into DFAs whose
// transitions carry counter guards and counter updates.
//
// Bounded quantifiers such as a{2,5} are not unrolled into states.
// Instead each quantifier owns a counter per NFA state, transitions test
// those counters against the quantifier's bounds (package constraint) and
// update them (package transop). Determinization then has to keep
// transitions apart whose guards can not hold together, which is the job
// of package canon.
//
// Basic usage:
//
//	// Build an NFA
//	b := nfa.NewBuilder()
//	s0, s1 := b.AddState(), b.AddState()
//	b.SetFlags(s0, nfa.UnanchoredInitial)
//	b.SetFlags(s1, nfa.UnanchoredFinal)
//	b.AddTransition(s0, s1, charset.FromRange('a', 'z'), nil, nil)
//	n, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Determinize it
//	d, err := qdfa.Compile(n)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(d.NumStates()) // 2
//
// Packages:
//   - nfa: arena of states, transitions and quantifiers
//   - stateset: small-size optimized sets of NFA state ids
//   - charset: codepoint sets
//   - constraint: counter guards and their intersect/subtract algebra
//   - transop: counter updates and their hazard-free scheduling
//   - canon: transition canonicalization for one DFA state
//   - dfa: power-set construction on top of canon and transop
package qdfa

import (
	"github.com/coregx/qdfa/dfa"
	"github.com/coregx/qdfa/nfa"
)

// Config controls DFA construction.
type Config = dfa.Config

// DefaultConfig returns leftmost-first settings with a 10,000 state cap.
func DefaultConfig() Config {
	return dfa.DefaultConfig()
}

// Compile determinizes n with the default configuration.
func Compile(n *nfa.NFA) (*dfa.DFA, error) {
	return dfa.Compile(n, DefaultConfig())
}

// CompileWithConfig determinizes n with a custom configuration.
func CompileWithConfig(n *nfa.NFA, config Config) (*dfa.DFA, error) {
	return dfa.Compile(n, config)
}

// MustCompile is like Compile but panics if n can not be determinized.
func MustCompile(n *nfa.NFA) *dfa.DFA {
	d, err := Compile(n)
	if err != nil {
		panic("qdfa: Compile: " + err.Error())
	}
	return d
}
