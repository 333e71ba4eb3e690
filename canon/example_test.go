package canon_test

import (
	"fmt"

	"github.com/coregx/qdfa/canon"
	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/nfa"
)

// ExampleCanonicalizer_Run demonstrates splitting overlapping transitions.
func ExampleCanonicalizer_Run() {
	b := nfa.NewBuilder()
	s0, s1, s2 := b.AddState(), b.AddState(), b.AddState()
	_ = b.SetFlags(s0, nfa.UnanchoredInitial)
	t1, _ := b.AddTransition(s0, s1, charset.FromRange('a', 'z'), nil, nil)
	t2, _ := b.AddTransition(s0, s2, charset.FromRange('m', 'z'), nil, nil)
	n, _ := b.Build()

	c := canon.New(n, canon.DefaultConfig())
	c.AddTransition(t1)
	c.AddTransition(t2)
	for _, f := range c.Run() {
		fmt.Println(f.String())
	}
	// Output:
	// [m-z] -> {1, 2}
	// [a-l] -> {1}
}
