package constraint

import "slices"

// Result is the three-way split computed by IntersectAndSubtract.
//
// Lhs and Rhs are lists because subtracting a conjunction may take several
// mutually exclusive formulas to express. Every formula is satisfiable and
// normalized, and all formulas of a Result are pairwise disjoint.
type Result struct {
	Lhs []Formula // satisfy lhs but not rhs
	Mid Formula   // satisfy both
	Rhs []Formula // satisfy rhs but not lhs
}

// ValidateAndSimplify checks f for satisfiability and drops redundant
// guards. It returns false if no assignment satisfies f.
//
// Each (quantifier, state) group keeps a mask of still possible ranges.
// A guard that empties the mask makes f unsatisfiable; a guard that does
// not shrink it is dropped. Guards implied by the remaining guards of
// their group are dropped afterwards, so the result is minimal.
func ValidateAndSimplify(f Formula) (Formula, bool) {
	f.mustBeNormalized()
	out := make(Formula, 0, len(f))
	for i := 0; i < len(f); {
		group := f[i].group()
		start := len(out)
		possible := uint8(allRanges)
		j := i
		for ; j < len(f) && f[j].group() == group; j++ {
			next := possible & f[j].Kind().mask()
			if next == 0 {
				return nil, false
			}
			if next == possible {
				continue
			}
			possible = next
			out = append(out, f[j])
		}
		out = minimizeGroup(out, start, possible)
		i = j
	}
	return out, true
}

// minimizeGroup removes guards in out[start:] whose removal keeps the
// group's combined mask equal to possible.
func minimizeGroup(out Formula, start int, possible uint8) Formula {
	for k := start; k < len(out); {
		rest := uint8(allRanges)
		for m := start; m < len(out); m++ {
			if m != k {
				rest &= out[m].Kind().mask()
			}
		}
		if rest == possible {
			out = slices.Delete(out, k, k+1)
			continue
		}
		k++
	}
	return out
}

// IntersectAndSubtract splits two formulas into the parts satisfying only
// lhs, both, and only rhs. Both inputs must be normalized.
//
// It returns false if lhs ∧ rhs is unsatisfiable: the formulas are
// disjoint and the caller keeps them apart unchanged. This is an expected
// outcome, not an error.
//
// Only-lhs parts are built from the constraints r1..rn that appear only in
// rhs as lhs ∧ r1 ∧ … ∧ r(i-1) ∧ ¬ri, each validated; unsatisfiable parts
// are dropped. Only-rhs parts are symmetric.
func IntersectAndSubtract(lhs, rhs Formula) (Result, bool) {
	lhs.mustBeNormalized()
	rhs.mustBeNormalized()

	union := make(Formula, 0, len(lhs)+len(rhs))
	var lhsOnly, rhsOnly Formula
	i, j := 0, 0
	for i < len(lhs) && j < len(rhs) {
		switch {
		case lhs[i] == rhs[j]:
			union = append(union, lhs[i])
			i++
			j++
		case lhs[i] < rhs[j]:
			union = append(union, lhs[i])
			lhsOnly = append(lhsOnly, lhs[i])
			i++
		default:
			union = append(union, rhs[j])
			rhsOnly = append(rhsOnly, rhs[j])
			j++
		}
	}
	lhsOnly = append(lhsOnly, lhs[i:]...)
	rhsOnly = append(rhsOnly, rhs[j:]...)
	union = append(union, lhs[i:]...)
	union = append(union, rhs[j:]...)

	mid, ok := ValidateAndSimplify(union)
	if !ok {
		return Result{}, false
	}
	return Result{
		Lhs: subtract(lhs, rhsOnly),
		Mid: mid,
		Rhs: subtract(rhs, lhsOnly),
	}, true
}

// subtract returns disjoint formulas covering base ∧ ¬(others[0] ∧ … ).
func subtract(base, others Formula) []Formula {
	var parts []Formula
	for i, c := range others {
		part := make(Formula, 0, len(base)+i+1)
		part = append(part, base...)
		part = append(part, others[:i]...)
		part = append(part, c.Negate())
		slices.Sort(part)
		part = slices.Compact(part)
		if simplified, ok := ValidateAndSimplify(part); ok {
			parts = append(parts, simplified)
		}
	}
	return parts
}
