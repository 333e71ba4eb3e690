package nfa

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/transop"
)

// buildCounted builds a{2,3} as q0 -a-> q1 (inc) with q1 -a-> q1 guarded by
// the counter and q1 final once the counter reaches min.
func buildCounted(t *testing.T) *NFA {
	t.Helper()
	b := NewBuilder()
	s0 := b.AddState()
	s1 := b.AddState()
	if err := b.SetFlags(s0, AnchoredInitial|UnanchoredInitial); err != nil {
		t.Fatal(err)
	}
	if err := b.SetFlags(s1, UnanchoredFinal); err != nil {
		t.Fatal(err)
	}
	q, err := b.AddQuantifier(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	a := charset.Single('a')
	if _, err := b.AddTransition(s0, s1, a, nil, []transop.Op{transop.NewSet1(uint32(q), uint16(s1))}); err != nil {
		t.Fatal(err)
	}
	guard := constraint.Formula{constraint.New(uint32(q), uint32(s1), constraint.AnyLtMax)}
	if _, err := b.AddTransition(s1, s1, a, guard, []transop.Op{transop.NewInc(uint32(q), uint16(s1), uint16(s1))}); err != nil {
		t.Fatal(err)
	}
	n, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return n
}

func TestBuilder_Arena(t *testing.T) {
	n := buildCounted(t)

	if got := n.NumberOfStates(); got != 2 {
		t.Errorf("NumberOfStates() = %d, want 2", got)
	}
	if got := n.NumberOfTransitions(); got != 2 {
		t.Errorf("NumberOfTransitions() = %d, want 2", got)
	}
	if got := n.NumberOfQuantifiers(); got != 1 {
		t.Errorf("NumberOfQuantifiers() = %d, want 1", got)
	}

	s1 := n.State(1)
	if !slices.Equal(s1.Successors(), []TransitionID{1}) {
		t.Errorf("Successors() = %v, want [1]", s1.Successors())
	}
	if !slices.Equal(s1.Predecessors(), []TransitionID{0, 1}) {
		t.Errorf("Predecessors() = %v, want [0 1]", s1.Predecessors())
	}

	tr := n.Transition(1)
	if tr.Source() != 1 || tr.Target() != 1 {
		t.Errorf("transition endpoints = %d->%d, want 1->1", tr.Source(), tr.Target())
	}
	if len(tr.Constraints()) != 1 || len(tr.Ops()) != 1 {
		t.Errorf("transition guards = %v ops = %v", tr.Constraints(), tr.Ops())
	}
	if !tr.Charset().Contains('a') {
		t.Error("transition charset should contain 'a'")
	}

	if q, ok := n.Quantifier(0); !ok || q.Min != 2 || q.Max != 3 {
		t.Errorf("Quantifier(0) = %v, %v", q, ok)
	}
	if _, ok := n.Quantifier(1); ok {
		t.Error("Quantifier(1) should not exist")
	}
	if n.State(5) != nil || n.Transition(9) != nil {
		t.Error("out-of-range lookups should return nil")
	}
}

func TestState_Flags(t *testing.T) {
	n := buildCounted(t)
	s0, s1 := n.State(0), n.State(1)

	if !s0.IsInitial(true) || !s0.IsInitial(false) {
		t.Error("s0 should be initial in both modes")
	}
	if s0.IsAnyFinal() {
		t.Error("s0 should not be final")
	}
	if !s1.IsFinal(false) || s1.IsFinal(true) {
		t.Error("s1 should be final only in unanchored mode")
	}
	if !slices.Equal(n.InitialStates(true), []StateID{0}) {
		t.Errorf("InitialStates(true) = %v", n.InitialStates(true))
	}
	if got := s0.Flags().String(); got != "anchoredInitial|unanchoredInitial" {
		t.Errorf("Flags().String() = %q", got)
	}
	if got := StateFlags(0).String(); got != "none" {
		t.Errorf("StateFlags(0).String() = %q", got)
	}
}

func TestBuilder_Errors(t *testing.T) {
	newBuilder := func() (*Builder, QuantifierID) {
		b := NewBuilderWithCapacity(2)
		b.AddState()
		b.AddState()
		q, _ := b.AddQuantifier(1, Infinite)
		return b, q
	}

	tests := []struct {
		name string
		add  func(b *Builder, q QuantifierID) error
		want error
	}{
		{
			name: "unknown source",
			add: func(b *Builder, _ QuantifierID) error {
				_, err := b.AddTransition(7, 0, charset.Single('x'), nil, nil)
				return err
			},
			want: ErrInvalidState,
		},
		{
			name: "unknown target",
			add: func(b *Builder, _ QuantifierID) error {
				_, err := b.AddTransition(0, 7, charset.Single('x'), nil, nil)
				return err
			},
			want: ErrInvalidState,
		},
		{
			name: "unnormalized formula",
			add: func(b *Builder, q QuantifierID) error {
				f := constraint.Formula{
					constraint.New(uint32(q), 1, constraint.AnyGeMin),
					constraint.New(uint32(q), 0, constraint.AnyGeMin),
				}
				_, err := b.AddTransition(0, 1, charset.Single('x'), f, nil)
				return err
			},
			want: ErrInvalidTransition,
		},
		{
			name: "unknown constraint quantifier",
			add: func(b *Builder, _ QuantifierID) error {
				f := constraint.Formula{constraint.New(4, 0, constraint.AnyGeMin)}
				_, err := b.AddTransition(0, 1, charset.Single('x'), f, nil)
				return err
			},
			want: ErrInvalidQuantifier,
		},
		{
			name: "unknown op quantifier",
			add: func(b *Builder, _ QuantifierID) error {
				_, err := b.AddTransition(0, 1, charset.Single('x'), nil, []transop.Op{transop.NewSet1(3, 1)})
				return err
			},
			want: ErrInvalidQuantifier,
		},
		{
			name: "op on unknown state",
			add: func(b *Builder, q QuantifierID) error {
				_, err := b.AddTransition(0, 1, charset.Single('x'), nil, []transop.Op{transop.NewInc(uint32(q), 9, 0)})
				return err
			},
			want: ErrInvalidTransition,
		},
		{
			name: "scheduled op",
			add: func(b *Builder, q QuantifierID) error {
				op := transop.NewSet1(uint32(q), 1).WithModifier(transop.Union)
				_, err := b.AddTransition(0, 1, charset.Single('x'), nil, []transop.Op{op})
				return err
			},
			want: ErrInvalidTransition,
		},
		{
			name: "reserved op target",
			add: func(b *Builder, q QuantifierID) error {
				op := transop.NewSet1(uint32(q), transop.NoSource)
				_, err := b.AddTransition(0, 1, charset.Single('x'), nil, []transop.Op{op})
				return err
			},
			want: ErrInvalidTransition,
		},
		{
			name: "bad bounds",
			add: func(b *Builder, _ QuantifierID) error {
				_, err := b.AddQuantifier(5, 4)
				return err
			},
			want: ErrInvalidQuantifier,
		},
		{
			name: "flags on unknown state",
			add: func(b *Builder, _ QuantifierID) error {
				return b.SetFlags(3, UnanchoredFinal)
			},
			want: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, q := newBuilder()
			err := tt.add(b, q)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var buildErr *BuildError
			if !errors.As(err, &buildErr) {
				t.Fatalf("error %T is not *BuildError", err)
			}
			if b.States() != 2 {
				t.Errorf("failed call changed the builder")
			}
		})
	}
}

func TestBuilder_CopiesGuardsAndOps(t *testing.T) {
	b := NewBuilder()
	s0, s1 := b.AddState(), b.AddState()
	if err := b.SetFlags(s0, UnanchoredInitial); err != nil {
		t.Fatal(err)
	}
	q, _ := b.AddQuantifier(1, 4)
	guard := constraint.Formula{constraint.New(uint32(q), uint32(s1), constraint.AnyLtMax)}
	ops := []transop.Op{transop.NewInc(uint32(q), uint16(s1), uint16(s1))}
	if _, err := b.AddTransition(s1, s1, charset.Single('a'), guard, ops); err != nil {
		t.Fatal(err)
	}
	guard[0] = guard[0].Negate()
	ops[0] = transop.NewSet1(uint32(q), uint16(s1))

	n, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	tr := n.Transition(0)
	if got := tr.Constraints()[0].Kind(); got != constraint.AnyLtMax {
		t.Errorf("stored guard kind = %v, want %v", got, constraint.AnyLtMax)
	}
	if got := tr.Ops()[0].Kind(); got != transop.Inc {
		t.Errorf("stored op kind = %v, want %v", got, transop.Inc)
	}
}

func TestBuilder_NoInitialState(t *testing.T) {
	b := NewBuilder()
	b.AddState()
	_, err := b.Build()
	if !errors.Is(err, ErrNoInitialState) {
		t.Fatalf("Build() error = %v, want ErrNoInitialState", err)
	}
}

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		err  *BuildError
		want string
	}{
		{&BuildError{Message: "boom", StateID: 3}, "NFA build error at state 3: boom"},
		{&BuildError{Message: "boom", StateID: InvalidState}, "NFA build error: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	n := buildCounted(t)
	if got := n.String(); got != "NFA{states: 2, transitions: 2, quantifiers: 1}" {
		t.Errorf("String() = %q", got)
	}
	got := n.Transition(1).String()
	for _, want := range []string{"1 -[a]-> 1", "if q0@s1:anyLtMax", "inc(s1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Transition.String() = %q, missing %q", got, want)
		}
	}
	if got := (Quantifier{Min: 2, Max: Infinite}).String(); got != "{2,}" {
		t.Errorf("Quantifier.String() = %q", got)
	}
	if got := (Quantifier{Min: 2, Max: 5}).String(); got != "{2,5}" {
		t.Errorf("Quantifier.String() = %q", got)
	}
}
