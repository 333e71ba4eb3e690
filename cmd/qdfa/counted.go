package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coregx/qdfa/charset"
	"github.com/coregx/qdfa/constraint"
	"github.com/coregx/qdfa/dfa"
	"github.com/coregx/qdfa/nfa"
	"github.com/coregx/qdfa/transop"
)

type countedOptions struct {
	body      string
	tail      string
	min       uint32
	max       string
	maxStates uint32
	priority  bool
	boolean   bool
	anchored  bool
}

func newCountedCmd(global *globalOptions) *cobra.Command {
	opts := &countedOptions{}
	cmd := &cobra.Command{
		Use:   "counted",
		Short: "Determinize BODY{min,max}TAIL and dump the DFA",
		Long: `The counted command builds the NFA of a single counted repetition
followed by a tail class, determinizes it and prints every DFA state with
its guarded transitions and scheduled counter operations.

Classes are comma separated items: a codepoint, a range or a Unicode
category or script name prefixed by a colon.

Example:
  qdfa counted --body a-z --min 2 --max 5 --tail 0-9
  qdfa counted --body :Greek --min 1 --max inf --tail . --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounted(cmd.OutOrStdout(), global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.body, "body", "a", "Class repeated by the quantifier")
	cmd.Flags().StringVar(&opts.tail, "tail", "b", "Class matched after the repetition")
	cmd.Flags().Uint32Var(&opts.min, "min", 2, "Minimum repetition count (at least 1)")
	cmd.Flags().StringVar(&opts.max, "max", "3", `Maximum repetition count, or "inf"`)
	cmd.Flags().Uint32Var(&opts.maxStates, "max-states", dfa.DefaultConfig().MaxStates, "Maximum number of DFA states")
	cmd.Flags().BoolVar(&opts.priority, "priority", true, "Preserve leftmost-first priority order")
	cmd.Flags().BoolVar(&opts.boolean, "boolean", false, "Only report whether a match exists")
	cmd.Flags().BoolVar(&opts.anchored, "anchored", false, "Start from the anchored initial states")
	return cmd
}

func runCounted(w io.Writer, global *globalOptions, opts *countedOptions) error {
	body, err := parseClass(opts.body)
	if err != nil {
		return fmt.Errorf("--body: %w", err)
	}
	tail, err := parseClass(opts.tail)
	if err != nil {
		return fmt.Errorf("--tail: %w", err)
	}
	upper, err := parseMax(opts.max)
	if err != nil {
		return err
	}

	n, err := buildCounted(body, tail, opts.min, upper)
	if err != nil {
		return err
	}
	printVerbose(w, global, "Built %s\n", n)

	cfg := dfa.DefaultConfig().
		WithMaxStates(opts.maxStates).
		WithPrioritySensitive(opts.priority).
		WithBooleanMatch(opts.boolean).
		WithAnchored(opts.anchored)
	d, err := dfa.Compile(n, cfg)
	if err != nil {
		return fmt.Errorf("failed to determinize: %w", err)
	}

	if global.jsonOut {
		return printJSON(w, describe(d))
	}
	printDFA(w, d)
	if global.verbose {
		hits, misses, rate := d.Stats()
		fmt.Fprintf(w, "cache: %d hits, %d misses (%.1f%%)\n", hits, misses, rate*100)
	}
	return nil
}

func parseMax(s string) (uint32, error) {
	if s == "inf" || s == "" {
		return nfa.Infinite, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == math.MaxUint32 {
		return 0, fmt.Errorf("--max: invalid bound %q", s)
	}
	return uint32(v), nil
}

// buildCounted builds the NFA of body{min,max}tail:
//
//	s0 -body-> s1            set1(q, s1)
//	s1 -body-> s1  if q<max  inc(q, s1)
//	s1 -tail-> s2  if q>=min
func buildCounted(body, tail charset.Set, min, max uint32) (*nfa.NFA, error) {
	if min == 0 {
		return nil, fmt.Errorf("--min must be at least 1")
	}
	b := nfa.NewBuilder()
	s0, s1, s2 := b.AddState(), b.AddState(), b.AddState()
	if err := b.SetFlags(s0, nfa.AnchoredInitial|nfa.UnanchoredInitial); err != nil {
		return nil, err
	}
	if err := b.SetFlags(s2, nfa.UnanchoredFinal); err != nil {
		return nil, err
	}
	q, err := b.AddQuantifier(min, max)
	if err != nil {
		return nil, err
	}
	qid, loop := uint32(q), uint16(s1)

	if _, err := b.AddTransition(s0, s1, body, nil,
		[]transop.Op{transop.NewSet1(qid, loop)}); err != nil {
		return nil, err
	}
	if max != 1 {
		guard := constraint.Formula{constraint.New(qid, uint32(s1), constraint.AnyLtMax)}
		if _, err := b.AddTransition(s1, s1, body, guard,
			[]transop.Op{transop.NewInc(qid, loop, loop)}); err != nil {
			return nil, err
		}
	}
	var exit constraint.Formula
	if min > 1 {
		exit = constraint.Formula{constraint.New(qid, uint32(s1), constraint.AnyGeMin)}
	}
	if _, err := b.AddTransition(s1, s2, tail, exit, nil); err != nil {
		return nil, err
	}
	return b.Build()
}

func printDFA(w io.Writer, d *dfa.DFA) {
	fmt.Fprintln(w, d)
	for id := range d.NumStates() {
		s := d.State(dfa.StateID(id))
		var marks []string
		if s.ID() == d.Start().ID() {
			marks = append(marks, "start")
		}
		if s.IsMatch() {
			marks = append(marks, "match")
		} else if s.IsMatchAtEnd() {
			marks = append(marks, "match at end")
		}
		line := fmt.Sprintf("state %d %s", id, s.NFAStates())
		if len(marks) > 0 {
			line += " (" + strings.Join(marks, ", ") + ")"
		}
		fmt.Fprintln(w, line)
		for _, t := range s.Transitions() {
			fmt.Fprintf(w, "  %s\n", t.String())
		}
	}
}

type stateJSON struct {
	ID          int              `json:"id"`
	NFAStates   []uint32         `json:"nfa_states"`
	Match       bool             `json:"match"`
	MatchAtEnd  bool             `json:"match_at_end"`
	Transitions []transitionJSON `json:"transitions"`
}

type transitionJSON struct {
	Charset string   `json:"charset"`
	Guard   string   `json:"guard,omitempty"`
	Ops     []string `json:"ops,omitempty"`
	Next    int      `json:"next"`
}

type dfaJSON struct {
	Start  int         `json:"start"`
	States []stateJSON `json:"states"`
}

func describe(d *dfa.DFA) dfaJSON {
	out := dfaJSON{
		Start:  int(d.Start().ID()),
		States: make([]stateJSON, 0, d.NumStates()),
	}
	for id := range d.NumStates() {
		s := d.State(dfa.StateID(id))
		sj := stateJSON{
			ID:          id,
			NFAStates:   s.NFAStates().AppendTo(nil),
			Match:       s.IsMatch(),
			MatchAtEnd:  s.IsMatchAtEnd(),
			Transitions: make([]transitionJSON, 0, len(s.Transitions())),
		}
		for _, t := range s.Transitions() {
			tj := transitionJSON{Charset: t.Charset.String(), Next: int(t.Next)}
			if len(t.Formula) > 0 {
				tj.Guard = t.Formula.String()
			}
			for _, op := range t.Ops {
				tj.Ops = append(tj.Ops, op.String())
			}
			sj.Transitions = append(sj.Transitions, tj)
		}
		out.States = append(out.States, sj)
	}
	return out
}
