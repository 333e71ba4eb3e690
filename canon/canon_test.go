package canon

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/transop"
)

// edge describes one transition leaving state 0.
type edge struct {
	cs     charset.Set
	target nfa.StateID
	f      constraint.Formula
	ops    []transop.Op
}

// automaton builds an NFA with states 0..states-1, state 0 initial, the
// given states unanchored-final, two quantifiers {2,4} and the edges in
// order.
func automaton(t testing.TB, states int, finals []nfa.StateID, edges ...edge) *nfa.NFA {
	t.Helper()
	b := nfa.NewBuilder()
	for range states {
		b.AddState()
	}
	require.NoError(t, b.SetFlags(0, nfa.UnanchoredInitial))
	for _, s := range finals {
		require.NoError(t, b.SetFlags(s, nfa.UnanchoredFinal))
	}
	for range 2 {
		_, err := b.AddQuantifier(2, 4)
		require.NoError(t, err)
	}
	for _, e := range edges {
		_, err := b.AddTransition(0, e.target, e.cs, e.f, e.ops)
		require.NoError(t, err)
	}
	n, err := b.Build()
	require.NoError(t, err)
	return n
}

// runAll submits every transition of n in id order.
func runAll(c *Canonicalizer, n *nfa.NFA) []TransitionBuilder {
	for i := range n.NumberOfTransitions() {
		c.AddTransition(nfa.TransitionID(i))
	}
	return c.Run()
}

func describe(frags []TransitionBuilder) []string {
	out := make([]string, len(frags))
	for i := range frags {
		out[i] = frags[i].String()
	}
	slices.Sort(out)
	return out
}

func TestRunWithoutArguments(t *testing.T) {
	n := automaton(t, 2, nil, edge{cs: charset.Empty(), target: 1})
	c := New(n, DefaultConfig())
	assert.Empty(t, c.Run())

	c.AddTransition(0)
	assert.Empty(t, c.Run(), "empty charsets are ignored")
}

func TestOverlappingCharsets(t *testing.T) {
	n := automaton(t, 3, nil,
		edge{cs: charset.FromRange('a', 'z'), target: 1},
		edge{cs: charset.FromRange('m', 'z'), target: 2},
	)
	for _, cfg := range []Config{DefaultConfig(), {}} {
		frags := runAll(New(n, cfg), n)
		require.Len(t, frags, 2)
		assert.Equal(t, []string{"[a-l] -> {1}", "[m-z] -> {1, 2}"}, describe(frags))

		for i := range frags {
			if frags[i].Charset.Contains('m') {
				assert.Equal(t, []uint32{1, 2}, frags[i].TargetSequence(), "higher priority target first")
				assert.Equal(t, []nfa.TransitionID{0, 1}, frags[i].Transitions)
			}
		}
	}
}

func TestOppositeConstraintsStaySeparate(t *testing.T) {
	guard := constraint.New(0, 5, constraint.AnyLtMax)
	n := automaton(t, 6, nil,
		edge{cs: charset.FromRange('a', 'c'), target: 1, f: constraint.Formula{guard}},
		edge{cs: charset.FromRange('a', 'c'), target: 1, f: constraint.Formula{guard.Negate()}},
	)
	frags := runAll(New(n, DefaultConfig()), n)
	require.Len(t, frags, 2)
	assert.Equal(t, []string{
		"[a-c] -> {1} if q0@s5:allGeMax",
		"[a-c] -> {1} if q0@s5:anyLtMax",
	}, describe(frags))
}

func TestConstraintSplitsOverlap(t *testing.T) {
	guard := constraint.New(0, 1, constraint.AnyGeMin)
	n := automaton(t, 3, nil,
		edge{cs: charset.Single('a'), target: 1},
		edge{cs: charset.Single('a'), target: 2, f: constraint.Formula{guard}},
	)
	frags := runAll(New(n, DefaultConfig()), n)
	assert.Equal(t, []string{
		"[a] -> {1, 2} if q0@s1:anyGeMin",
		"[a] -> {1} if q0@s1:allLtMin",
	}, describe(frags))
}

func TestMergeIdenticalTargets(t *testing.T) {
	inc := []transop.Op{transop.NewInc(0, 1, 0)}
	t.Run("merged", func(t *testing.T) {
		n := automaton(t, 2, nil,
			edge{cs: charset.Single('a'), target: 1, ops: inc},
			edge{cs: charset.Single('b'), target: 1, ops: inc},
		)
		frags := runAll(New(n, DefaultConfig()), n)
		require.Len(t, frags, 1)
		assert.Equal(t, "[a-b]", frags[0].Charset.String())
		assert.Equal(t, []nfa.TransitionID{0}, frags[0].Transitions)
	})
	t.Run("different ops", func(t *testing.T) {
		n := automaton(t, 2, nil,
			edge{cs: charset.Single('a'), target: 1, ops: inc},
			edge{cs: charset.Single('b'), target: 1},
		)
		assert.Len(t, runAll(New(n, DefaultConfig()), n), 2)
	})
	t.Run("predicate", func(t *testing.T) {
		n := automaton(t, 2, nil,
			edge{cs: charset.Single('a'), target: 1},
			edge{cs: charset.Single('b'), target: 1},
		)
		c := New(n, DefaultConfig())
		calls := 0
		c.SetMergePredicate(func(a, b *TransitionBuilder) bool {
			calls++
			return false
		})
		assert.Len(t, runAll(c, n), 2)
		assert.Equal(t, 1, calls)
	})
	t.Run("constrained", func(t *testing.T) {
		guard := constraint.Formula{constraint.New(1, 1, constraint.AllGeMax)}
		n := automaton(t, 2, nil,
			edge{cs: charset.Single('a'), target: 1, f: guard},
			edge{cs: charset.Single('b'), target: 1, f: guard},
		)
		assert.Len(t, runAll(New(n, DefaultConfig()), n), 2)
	})
}

func TestMergeRespectsPriorityOrder(t *testing.T) {
	n := automaton(t, 3, nil,
		edge{cs: charset.Single('a'), target: 1},
		edge{cs: charset.Single('a'), target: 2},
		edge{cs: charset.Single('b'), target: 2},
		edge{cs: charset.Single('b'), target: 1},
	)
	assert.Len(t, runAll(New(n, DefaultConfig()), n), 2)

	frags := runAll(New(n, Config{}), n)
	require.Len(t, frags, 1)
	assert.Equal(t, "[a-b] -> {1, 2}", frags[0].String())
}

func TestPruningKeepsOps(t *testing.T) {
	inc := transop.NewInc(0, 2, 0)
	set1 := transop.NewSet1(1, 3)
	n := automaton(t, 4, []nfa.StateID{1},
		edge{cs: charset.Single('a'), target: 1},
		edge{cs: charset.Single('a'), target: 2, ops: []transop.Op{inc}},
		edge{cs: charset.Single('a'), target: 3, ops: []transop.Op{set1}},
	)

	frags := runAll(New(n, DefaultConfig()), n)
	require.Len(t, frags, 1)
	assert.Equal(t, []uint32{1}, frags[0].TargetSequence())
	assert.Equal(t, []transop.Op{inc, set1}, frags[0].Ops)
	assert.True(t, frags[0].LeadsToFinal())

	frags = runAll(New(n, DefaultConfig().WithPrioritySensitive(false).WithBooleanMatch(true)), n)
	require.Len(t, frags, 1)
	assert.Equal(t, []uint32{1}, frags[0].TargetSequence())

	frags = runAll(New(n, Config{}), n)
	require.Len(t, frags, 1)
	assert.Equal(t, []uint32{1, 2, 3}, frags[0].TargetSequence())
	assert.Equal(t, []transop.Op{inc, set1}, frags[0].Ops)
}

func TestPruningInsideConstraintSlot(t *testing.T) {
	guard := constraint.New(0, 1, constraint.AnyLtMax)
	inc := transop.NewInc(0, 2, 2)
	n := automaton(t, 3, []nfa.StateID{1},
		edge{cs: charset.Single('x'), target: 1, f: constraint.Formula{guard}},
		edge{cs: charset.Single('x'), target: 2, ops: []transop.Op{inc}},
	)
	frags := runAll(New(n, DefaultConfig()), n)
	require.Len(t, frags, 2)
	for i := range frags {
		f := &frags[i]
		assert.Equal(t, []transop.Op{inc}, f.Ops)
		if f.Formula.Contains(guard) {
			assert.Equal(t, []uint32{1}, f.TargetSequence())
			assert.True(t, f.LeadsToFinal())
		} else {
			assert.Equal(t, constraint.Formula{guard.Negate()}, f.Formula)
			assert.Equal(t, []uint32{2}, f.TargetSequence())
			assert.False(t, f.LeadsToFinal())
		}
	}
}

func TestAddArgument(t *testing.T) {
	n := automaton(t, 3, nil, edge{cs: charset.Single('a'), target: 1})
	c := New(n, DefaultConfig())

	unsat := constraint.Formula{
		constraint.New(0, 1, constraint.AnyLtMax),
		constraint.New(0, 1, constraint.AllGeMax),
	}
	c.AddArgument(0, charset.Single('a'), unsat, nil)
	assert.Empty(t, c.Run(), "unsatisfiable formulas are ignored")

	redundant := constraint.Formula{
		constraint.New(0, 1, constraint.AllGeMax),
		constraint.New(0, 1, constraint.AnyGeMin),
	}
	c.AddArgument(0, charset.Single('a'), redundant, nil)
	frags := c.Run()
	require.Len(t, frags, 1)
	assert.Equal(t, constraint.Formula{constraint.New(0, 1, constraint.AllGeMax)}, frags[0].Formula)

	assert.Panics(t, func() {
		c.AddArgument(0, charset.Single('a'), constraint.Formula{redundant[1], redundant[0]}, nil)
	})
	assert.Panics(t, func() { c.AddArgument(9, charset.Single('a'), nil, nil) })
}

func TestScratchReuse(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	reused := map[Config]*Canonicalizer{}
	for range 100 {
		n := randomAutomaton(t, rng)
		for _, cfg := range []Config{DefaultConfig(), {}} {
			c, ok := reused[cfg]
			if !ok {
				c = New(nil, cfg)
				reused[cfg] = c
			}
			c.nfa = n
			assert.Equal(t, describe(runAll(New(n, cfg), n)), describe(runAll(c, n)))
		}
	}
}

// Brute-force reference. Constraints only guard these three counters, so
// 27 range assignments cover every case.
var guarded = [3][2]uint32{{0, 1}, {0, 2}, {1, 1}}

func assignment(code int) constraint.Assignment {
	return func(q, state uint32) constraint.Range {
		for i, g := range guarded {
			if g[0] == q && g[1] == state {
				digit := code
				for range i {
					digit /= 3
				}
				return constraint.Range(digit % 3)
			}
		}
		panic("unguarded counter")
	}
}

func randomAutomaton(t testing.TB, rng *rand.Rand) *nfa.NFA {
	var edges []edge
	for range rng.IntN(6) + 1 {
		lo := 'a' + rune(rng.IntN(6))
		cs := charset.FromRange(lo, lo+rune(rng.IntN(3)))
		if rng.IntN(3) == 0 {
			cs = cs.Union(charset.Single('a' + rune(rng.IntN(8))))
		}
		var f constraint.Formula
		for range rng.IntN(3) {
			g := guarded[rng.IntN(len(guarded))]
			f = append(f, constraint.New(g[0], g[1], constraint.Kind(rng.IntN(6))))
		}
		var ops []transop.Op
		for range rng.IntN(3) {
			q := uint32(rng.IntN(2))
			target, source := uint16(rng.IntN(4)), uint16(rng.IntN(4))
			if rng.IntN(2) == 0 {
				ops = append(ops, transop.NewInc(q, target, source))
			} else {
				ops = append(ops, transop.NewSet1(q, target))
			}
		}
		edges = append(edges, edge{
			cs:     cs,
			target: nfa.StateID(rng.IntN(3) + 1),
			f:      constraint.Normalize(f),
			ops:    ops,
		})
	}
	return automaton(t, 4, []nfa.StateID{1, 3}, edges...)
}

func sortedKeys(ops []transop.Op) []transop.Op {
	keys := make([]transop.Op, len(ops))
	for i, op := range ops {
		keys[i] = op.Key()
	}
	slices.Sort(keys)
	return keys
}

// expect computes the target sequence and ops of the transitions enabled
// at (r, a). With pruning, targets after the first final one are dropped
// while their ops are kept.
func expect(n *nfa.NFA, r rune, a constraint.Assignment, prune bool) (seq []uint32, ops []transop.Op, ok bool) {
	final := false
	for i := range n.NumberOfTransitions() {
		tr := n.Transition(nfa.TransitionID(i))
		if !tr.Charset().Contains(r) || !constraint.Eval(tr.Constraints(), a) {
			continue
		}
		ok = true
		ops = append(ops, tr.Ops()...)
		if final && prune {
			continue
		}
		if !slices.Contains(seq, uint32(tr.Target())) {
			seq = append(seq, uint32(tr.Target()))
		}
		final = final || n.State(tr.Target()).IsFinal(false)
	}
	return seq, sortedKeys(ops), ok
}

func TestAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 23))
	configs := []Config{
		DefaultConfig(),
		{},
		{BooleanMatch: true},
		{PrioritySensitive: true, BooleanMatch: true},
	}
	for iter := range 400 {
		n := randomAutomaton(t, rng)
		for _, cfg := range configs {
			frags := runAll(New(n, cfg), n)

			var want, got charset.Set
			for i := range n.NumberOfTransitions() {
				tr := n.Transition(nfa.TransitionID(i))
				if _, sat := constraint.ValidateAndSimplify(tr.Constraints()); sat {
					want = want.Union(tr.Charset())
				}
			}
			for i := range frags {
				got = got.Union(frags[i].Charset)
			}
			require.True(t, want.Equal(got), "iteration %d: coverage %s != %s", iter, got, want)

			for r := 'a'; r <= 'h'; r++ {
				for code := range 27 {
					a := assignment(code)
					var match *TransitionBuilder
					for i := range frags {
						f := &frags[i]
						if !f.Charset.Contains(r) || !constraint.Eval(f.Formula, a) {
							continue
						}
						require.Nil(t, match, "iteration %d %+v: %q matches %s and %s", iter, cfg, r, match, f)
						match = f
					}

					seq, ops, ok := expect(n, r, a, cfg.prunes())
					if !ok {
						require.Nil(t, match, "iteration %d %+v: %q matches %s", iter, cfg, r, match)
						continue
					}
					require.NotNil(t, match, "iteration %d %+v: %q code %d unmatched", iter, cfg, r, code)
					assert.Equal(t, ops, sortedKeys(match.Ops), "iteration %d %+v: ops of %s", iter, cfg, match)
					if cfg.PrioritySensitive {
						assert.Equal(t, seq, match.TargetSequence(), "iteration %d: targets of %s", iter, match)
					} else {
						slices.Sort(seq)
						assert.Equal(t, seq, match.Targets.AppendTo(nil), "iteration %d: targets of %s", iter, match)
					}
				}
			}
		}
	}
}

func BenchmarkRun(b *testing.B) {
	guard := constraint.New(0, 1, constraint.AnyLtMax)
	n := automaton(b, 4, []nfa.StateID{3},
		edge{cs: charset.FromRange('a', 'z'), target: 1, ops: []transop.Op{transop.NewInc(0, 1, 1)}},
		edge{cs: charset.FromRange('m', 'z'), target: 2, f: constraint.Formula{guard}},
		edge{cs: charset.FromRange('0', 'n'), target: 3, f: constraint.Formula{guard.Negate()}},
		edge{cs: charset.FromRange('x', 'z'), target: 2},
	)
	c := New(n, DefaultConfig())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runAll(c, n)
	}
}
