package canon

import (
	"slices"

	"github.com/coregx/qdfa/transop"
)

// mergeFragments unions the charsets of unconstrained fragments that reach
// the same targets with the same counter updates. In priority-sensitive
// mode the targets must also come in the same order. A merged fragment
// keeps the Transitions of the first one.
func (c *Canonicalizer) mergeFragments(frags []TransitionBuilder) []TransitionBuilder {
	if len(frags) < 2 {
		return frags
	}

	c.opKeys = c.opKeys[:0]
	out := frags[:0]
	for i := range frags {
		f := frags[i]
		keys := c.nextOpKeys(f.Ops)
		merged := false
		if !f.HasConstraints() {
			for k := range out {
				if c.mergeable(&out[k], c.opKeys[k], &f, keys) {
					out[k].Charset = out[k].Charset.Union(f.Charset)
					merged = true
					break
				}
			}
		}
		if !merged {
			out = append(out, f)
			c.opKeys = append(c.opKeys, keys)
		}
	}
	clear(frags[len(out):])
	return out
}

// nextOpKeys returns the sorted, modifier-free words of ops in a buffer
// reused across runs.
func (c *Canonicalizer) nextOpKeys(ops []transop.Op) []transop.Op {
	var keys []transop.Op
	if n := len(c.opKeys); n < cap(c.opKeys) {
		keys = c.opKeys[:n+1][n][:0]
	}
	for _, op := range ops {
		keys = append(keys, op.Key())
	}
	slices.Sort(keys)
	return keys
}

func (c *Canonicalizer) mergeable(a *TransitionBuilder, aKeys []transop.Op, b *TransitionBuilder, bKeys []transop.Op) bool {
	if a.HasConstraints() || b.HasConstraints() {
		return false
	}
	if !a.Targets.Equal(&b.Targets) {
		return false
	}
	if c.config.PrioritySensitive && !slices.Equal(a.sequence, b.sequence) {
		return false
	}
	if !slices.Equal(aKeys, bKeys) {
		return false
	}
	return c.merge == nil || c.merge(a, b)
}
