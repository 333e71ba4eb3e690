package transop

import (
	"slices"

	"github.com/coregx/qdfa/internal/sparse"
)

// redirect records that writes to a real target go to a temp until the
// trailing move-back.
type redirect struct {
	target uint16
	temp   uint16
}

// Scheduler orders the ops of one DFA transition into a hazard-free
// sequence. It owns scratch buffers reused across calls and must not be
// used concurrently; keep one per worker.
type Scheduler struct {
	sorted    []Op
	pending   []Op
	resets    []Op
	redirects []redirect
	written   *sparse.SparseSet
}

// NewScheduler creates a scheduler with empty scratch state.
func NewScheduler() *Scheduler {
	return &Scheduler{written: sparse.NewSparseSet(64)}
}

// PrepareForExecutor schedules ops with a throwaway Scheduler.
func PrepareForExecutor(ops []Op, temps *TempPool) []Op {
	return NewScheduler().Schedule(ops, temps)
}

// Schedule returns ops deduplicated, ordered and tagged with modifiers so
// that executing them one by one equals executing them simultaneously.
// Temps are taken from temps and released again before returning.
//
// Per quantifier:
//   - ops reading a source run first, greedily picking the op whose target
//     has the fewest other pending readers; self-referential ops win ties;
//   - a pick whose target still has readers writes to a temp instead, and
//     a move-back from the temp is queued;
//   - move-backs follow, then the ops that read no source (set1, setMin).
//
// The first write to a slot is Overwrite, or Move if no later op reads the
// op's source; later writes to the same slot are Union.
func (s *Scheduler) Schedule(ops []Op, temps *TempPool) []Op {
	if len(ops) == 0 {
		return nil
	}
	s.sorted = s.sorted[:0]
	for _, op := range ops {
		s.sorted = append(s.sorted, op.Key())
	}
	slices.Sort(s.sorted)
	s.sorted = slices.Compact(s.sorted)

	out := make([]Op, 0, len(s.sorted)+2)
	for i := 0; i < len(s.sorted); {
		q := s.sorted[i].Quantifier()
		j := i + 1
		for j < len(s.sorted) && s.sorted[j].Quantifier() == q {
			j++
		}
		out = s.scheduleQuantifier(out, s.sorted[i:j], temps.Get(q))
		i = j
	}
	return out
}

func (s *Scheduler) scheduleQuantifier(out, group []Op, temps *TempAllocator) []Op {
	s.pending = s.pending[:0]
	s.resets = s.resets[:0]
	s.redirects = s.redirects[:0]
	s.written.Clear()
	for _, op := range group {
		if op.ReadsSource() {
			s.pending = append(s.pending, op)
		} else {
			s.resets = append(s.resets, op)
		}
	}

	for len(s.pending) > 0 {
		best, bestReaders, bestSelf := -1, 0, false
		for i, op := range s.pending {
			readers := s.readersOf(op.Target(), i)
			self := op.IsSelfReferential()
			if best < 0 || readers < bestReaders || (readers == bestReaders && self && !bestSelf) {
				best, bestReaders, bestSelf = i, readers, self
			}
		}
		op := s.pending[best]
		s.pending = slices.Delete(s.pending, best, best+1)

		dst := op.Target()
		if temp, ok := s.redirectOf(dst); ok {
			dst = temp
		} else if bestReaders > 0 {
			temp := temps.Alloc()
			s.redirects = append(s.redirects, redirect{target: dst, temp: temp})
			dst = temp
		}
		op = op.WithTarget(dst)
		out = append(out, op.WithModifier(s.firstWriteModifier(dst, op.Source(), true)))
	}

	q := group[0].Quantifier()
	for _, r := range s.redirects {
		// the temp is dead after the move-back, so it may always be stolen
		op := NewMaintain(q, r.target, r.temp)
		out = append(out, op.WithModifier(s.firstWriteModifier(r.target, r.temp, true)))
	}
	for _, op := range s.resets {
		out = append(out, op.WithModifier(s.firstWriteModifier(op.Target(), NoSource, false)))
	}
	temps.Reset()
	return out
}

// readersOf counts pending ops other than pending[self] that read slot.
func (s *Scheduler) readersOf(slot uint16, self int) int {
	n := 0
	for i, op := range s.pending {
		if i != self && op.ReadsSource() && op.Source() == slot {
			n++
		}
	}
	return n
}

func (s *Scheduler) redirectOf(target uint16) (uint16, bool) {
	for _, r := range s.redirects {
		if r.target == target {
			return r.temp, true
		}
	}
	return 0, false
}

// firstWriteModifier marks dst written and returns the modifier for a
// write to it. A source may be stolen once no pending op reads it.
func (s *Scheduler) firstWriteModifier(dst, source uint16, reads bool) Modifier {
	slot := uint32(dst)
	if slot >= s.written.Capacity() {
		s.written.Resize(max(2*s.written.Capacity(), slot+1))
	}
	if !s.written.Insert(slot) {
		return Union
	}
	if reads && s.readersOf(source, -1) == 0 {
		return Move
	}
	return Overwrite
}
