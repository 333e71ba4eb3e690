package canon

import (
	"encoding/binary"

	"github.com/coregx/qdfa/constraint"
)

// split divides group gi into slots with pairwise disjoint formulas and
// appends one fragment per slot to out.
//
// Members are placed in priority order. A member's formula is compared
// against the existing slots; an overlapping slot is cut into the part
// outside the formula and the part inside it, which also takes the
// member. Pieces of the formula not covered by that slot are pushed on a
// stack and compared against the remaining slots. Whatever is left over
// becomes a new slot.
func (c *Canonicalizer) split(out []TransitionBuilder, gi int) []TransitionBuilder {
	c.slots = c.slots[:0]
	clear(c.seen)
	for _, m := range c.groups[gi].members {
		c.place(m)
	}

	g := &c.groups[gi]
	for si := range c.slots {
		s := &c.slots[si]
		out = append(out, c.fragment(g.cs, s.f, s.members, s.extraOps, g.extraOps, s.leadsToFinal))
	}
	return out
}

func (c *Canonicalizer) place(m int) {
	c.stack = append(c.stack[:0], pending{f: c.args[m].f})
	for len(c.stack) > 0 {
		p := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.placePiece(m, p)
	}
}

func (c *Canonicalizer) placePiece(m int, p pending) {
	for j := p.from; j < len(c.slots); j++ {
		res, ok := constraint.IntersectAndSubtract(c.slots[j].f, p.f)
		if !ok {
			continue
		}
		c.absorb(j, m, res)
		for _, rest := range res.Rhs {
			c.push(m, rest, j+1)
		}
		return
	}
	c.addToSlot(c.newSlot(p.f), m)
}

// absorb moves member m into the part of slot j that its formula covers.
func (c *Canonicalizer) absorb(j, m int, res constraint.Result) {
	if c.config.prunes() && c.slots[j].leadsToFinal && len(c.args[m].ops) == 0 {
		return
	}
	if len(res.Lhs) == 0 {
		c.slots[j].f = res.Mid
		c.addToSlot(j, m)
		return
	}
	c.slots[j].f = res.Lhs[0]
	for _, f := range res.Lhs[1:] {
		k := c.newSlot(f)
		c.slots[k].copyFrom(&c.slots[j])
	}
	k := c.newSlot(res.Mid)
	c.slots[k].copyFrom(&c.slots[j])
	c.addToSlot(k, m)
}

// addToSlot adds member m to slot k. Within a slot every member's formula
// holds, so a final target makes the slot lead to final unconditionally
// and later members only contribute their counter updates.
func (c *Canonicalizer) addToSlot(k, m int) {
	s := &c.slots[k]
	a := &c.args[m]
	if s.leadsToFinal && c.config.prunes() {
		s.extraOps = append(s.extraOps, a.ops...)
		return
	}
	s.members = append(s.members, m)
	if a.final {
		s.leadsToFinal = true
	}
}

// push queues a piece of member m's formula unless the same piece was
// already queued for this transition.
func (c *Canonicalizer) push(m int, f constraint.Formula, from int) {
	c.key = binary.LittleEndian.AppendUint32(c.key[:0], uint32(c.args[m].id))
	c.key = f.AppendKey(c.key)
	if _, dup := c.seen[string(c.key)]; dup {
		return
	}
	c.seen[string(c.key)] = struct{}{}
	c.stack = append(c.stack, pending{f: f, from: from})
}

func (c *Canonicalizer) newSlot(f constraint.Formula) int {
	if len(c.slots) < cap(c.slots) {
		c.slots = c.slots[:len(c.slots)+1]
		s := &c.slots[len(c.slots)-1]
		s.f = f
		s.members = s.members[:0]
		s.extraOps = s.extraOps[:0]
		s.leadsToFinal = false
	} else {
		c.slots = append(c.slots, slot{f: f})
	}
	return len(c.slots) - 1
}

func (s *slot) copyFrom(src *slot) {
	s.members = append(s.members[:0], src.members...)
	s.extraOps = append(s.extraOps[:0], src.extraOps...)
	s.leadsToFinal = src.leadsToFinal
}
