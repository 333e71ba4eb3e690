// Package canon compiles the transitions leaving one set of NFA states into
// DFA transition fragments.
//
// Callers submit the transitions with AddArgument in priority order. That
// order is part of the contract: when two transitions overlap, the
// earlier one comes first in the fragment's Transitions and target
// sequence, and pruning only ever drops later transitions. Run then
//
//  1. partitions the charsets into disjoint groups,
//  2. splits each group by constraint formulas into fragments whose
//     formulas cannot hold together,
//  3. merges unconstrained fragments that reach the same targets with the
//     same counter updates.
//
// A Canonicalizer reuses its scratch buffers across runs and must not be
// used concurrently; keep one per worker. The NFA is only read.
package canon

import (
	"fmt"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/stateset"
	"github.com/coregx/qdfa/transop"
)

// MergePredicate adds engine-specific criteria for merging two
// unconstrained fragments. Both fragments already reach the same targets
// with the same counter updates.
type MergePredicate func(a, b *TransitionBuilder) bool

// argument is one submitted transition.
type argument struct {
	id     nfa.TransitionID
	target nfa.StateID
	cs     charset.Set
	f      constraint.Formula
	ops    []transop.Op
	final  bool
}

// group is a stage 1 partition cell. Members index into args.
type group struct {
	cs           charset.Set
	members      []int
	extraOps     []transop.Op
	leadsToFinal bool
}

// slot is a stage 2 cell of one group.
type slot struct {
	f            constraint.Formula
	members      []int
	extraOps     []transop.Op
	leadsToFinal bool
}

// pending is a piece of a member's formula still to be placed, compared
// against slots from index from on.
type pending struct {
	f    constraint.Formula
	from int
}

// Canonicalizer turns submitted NFA transitions into DFA transition
// fragments.
type Canonicalizer struct {
	nfa    *nfa.NFA
	config Config
	merge  MergePredicate

	args        []argument
	constrained bool

	groups []group
	slots  []slot
	stack  []pending
	seen   map[string]struct{}
	key    []byte
	opKeys [][]transop.Op
}

// New creates a canonicalizer reading n.
func New(n *nfa.NFA, config Config) *Canonicalizer {
	return &Canonicalizer{
		nfa:    n,
		config: config,
		seen:   make(map[string]struct{}),
	}
}

// SetMergePredicate installs an extra merge criterion. nil removes it.
func (c *Canonicalizer) SetMergePredicate(fn MergePredicate) {
	c.merge = fn
}

// AddArgument submits transition t consuming cs under formula f with
// counter updates ops. Calls define priority order. Empty charsets and
// unsatisfiable formulas are ignored.
//
// Panics if t is unknown or f is not normalized.
func (c *Canonicalizer) AddArgument(t nfa.TransitionID, cs charset.Set, f constraint.Formula, ops []transop.Op) {
	tr := c.nfa.Transition(t)
	if tr == nil {
		panic(fmt.Sprintf("canon: unknown transition %d", t))
	}
	f, ok := constraint.ValidateAndSimplify(f)
	if !ok || cs.MatchesNothing() {
		return
	}
	target := tr.Target()
	c.args = append(c.args, argument{
		id:     t,
		target: target,
		cs:     cs,
		f:      f,
		ops:    ops,
		final:  c.nfa.State(target).IsFinal(false),
	})
	if len(f) > 0 {
		c.constrained = true
	}
}

// AddTransition submits t with its own charset, formula and ops.
func (c *Canonicalizer) AddTransition(t nfa.TransitionID) {
	tr := c.nfa.Transition(t)
	if tr == nil {
		panic(fmt.Sprintf("canon: unknown transition %d", t))
	}
	c.AddArgument(t, tr.Charset(), tr.Constraints(), tr.Ops())
}

// Run computes the fragments of all submitted transitions and resets the
// canonicalizer for the next source state set. Without arguments the
// result is empty.
func (c *Canonicalizer) Run() []TransitionBuilder {
	defer c.reset()
	if len(c.args) == 0 {
		return nil
	}

	c.partition()
	out := make([]TransitionBuilder, 0, len(c.groups))
	for gi := range c.groups {
		g := &c.groups[gi]
		if c.constrained && c.hasConstraints(g.members) {
			out = c.split(out, gi)
			continue
		}
		out = append(out, c.fragment(g.cs, nil, g.members, g.extraOps, nil, g.leadsToFinal))
	}
	return c.mergeFragments(out)
}

func (c *Canonicalizer) reset() {
	clear(c.args)
	c.args = c.args[:0]
	c.groups = c.groups[:0]
	c.slots = c.slots[:0]
	c.stack = c.stack[:0]
	c.constrained = false
}

func (c *Canonicalizer) hasConstraints(members []int) bool {
	for _, m := range members {
		if len(c.args[m].f) > 0 {
			return true
		}
	}
	return false
}

// partition splits the submitted charsets into disjoint groups. Each
// group lists the arguments consuming its charset in priority order.
func (c *Canonicalizer) partition() {
	for i := range c.args {
		remaining := c.args[i].cs
		n := len(c.groups)
		for g := 0; g < n && remaining.MatchesSomething(); g++ {
			onlyGroup, onlyArg, both := c.groups[g].cs.IntersectAndSubtract(remaining)
			if both.MatchesNothing() {
				continue
			}
			if onlyGroup.MatchesSomething() {
				rest := c.newGroup(onlyGroup)
				c.groups[rest].copyFrom(&c.groups[g])
				c.groups[g].cs = both
			}
			c.addToGroup(g, i)
			remaining = onlyArg
		}
		if remaining.MatchesSomething() {
			c.addToGroup(c.newGroup(remaining), i)
		}
	}
}

func (c *Canonicalizer) newGroup(cs charset.Set) int {
	if len(c.groups) < cap(c.groups) {
		c.groups = c.groups[:len(c.groups)+1]
		g := &c.groups[len(c.groups)-1]
		g.cs = cs
		g.members = g.members[:0]
		g.extraOps = g.extraOps[:0]
		g.leadsToFinal = false
	} else {
		c.groups = append(c.groups, group{cs: cs})
	}
	return len(c.groups) - 1
}

func (g *group) copyFrom(src *group) {
	g.members = append(g.members[:0], src.members...)
	g.extraOps = append(g.extraOps[:0], src.extraOps...)
	g.leadsToFinal = src.leadsToFinal
}

// addToGroup adds argument i to group gi. Only unconstrained transitions
// are pruned here; constrained ones are left to split.
func (c *Canonicalizer) addToGroup(gi, i int) {
	g := &c.groups[gi]
	a := &c.args[i]
	unconditional := len(a.f) == 0
	if g.leadsToFinal && unconditional && c.config.prunes() {
		g.extraOps = append(g.extraOps, a.ops...)
		return
	}
	g.members = append(g.members, i)
	if a.final && unconditional {
		g.leadsToFinal = true
	}
}

// fragment assembles an output fragment. It copies everything it keeps.
func (c *Canonicalizer) fragment(cs charset.Set, f constraint.Formula, members []int, extraOps, groupOps []transop.Op, leadsToFinal bool) TransitionBuilder {
	b := TransitionBuilder{
		Targets:      stateset.New(c.nfa),
		Transitions:  make([]nfa.TransitionID, 0, len(members)),
		Charset:      cs,
		leadsToFinal: leadsToFinal,
	}
	if len(f) > 0 {
		b.Formula = f
	}
	for _, m := range members {
		a := &c.args[m]
		b.Transitions = append(b.Transitions, a.id)
		if b.Targets.Add(uint32(a.target)) {
			b.sequence = append(b.sequence, uint32(a.target))
		}
		b.Ops = append(b.Ops, a.ops...)
	}
	b.Ops = append(b.Ops, extraOps...)
	b.Ops = append(b.Ops, groupOps...)
	return b
}
