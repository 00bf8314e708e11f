package verify

import (
	"context"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/schema"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
)

const (
	tag1 = "c1"
	tag2 = "c2"
)

// UniquenessQuery relates two copies of a circuit by variable name.
type UniquenessQuery struct {
	// Equal names take the same value in both copies.
	Equal []string
	// Different asks for at least one of these names to differ.
	Different []string
	// Distinct names must each differ.
	Distinct []string
	// AtLeastOneEqual asks for at least one of these names to agree.
	AtLeastOneEqual []string
	// FreePublic leaves public inputs unrelated between the copies. By
	// default they are equal.
	FreePublic bool
}

type pairTerms struct {
	name   string
	t1, t2 term.Term
}

func lookupPairs(c1, c2 *circuit.Circuit, names []string) ([]pairTerms, error) {
	res := make([]pairTerms, 0, len(names))
	for _, name := range names {
		t1, err := c1.Lookup(name)
		if err != nil {
			return nil, err
		}
		t2, err := c2.Lookup(name)
		if err != nil {
			return nil, err
		}
		res = append(res, pairTerms{name, t1, t2})
	}
	return res, nil
}

// UniqueWitness instantiates s twice in solver and looks for two witnesses
// related as q describes. A model shows the Equal names do not determine
// the Different ones; it is labelled <name>_c1 and <name>_c2.
func UniqueWitness(ctx context.Context, s *schema.Schema, solver *smt.Solver, q UniquenessQuery) (*Result, error) {
	log := newLogger("uniqueness")

	c1, err := circuit.New(s, solver, tag1)
	if err != nil {
		return nil, err
	}
	c2, err := circuit.New(s, solver, tag2)
	if err != nil {
		return nil, err
	}

	equal, err := lookupPairs(c1, c2, q.Equal)
	if err != nil {
		return nil, err
	}
	for _, p := range equal {
		if err := p.t1.AssertEq(p.t2); err != nil {
			return nil, err
		}
	}
	if !q.FreePublic {
		for _, idx := range s.PublicInputs() {
			if err := c1.Var(idx).AssertEq(c2.Var(idx)); err != nil {
				return nil, err
			}
		}
	}

	different, err := lookupPairs(c1, c2, q.Different)
	if err != nil {
		return nil, err
	}
	if len(different) > 0 {
		neqs := make([]term.Formula, len(different))
		for i, p := range different {
			neqs[i] = p.t1.Neq(p.t2)
		}
		if err := solver.Assert(term.Or(neqs...)); err != nil {
			return nil, err
		}
	}

	distinct, err := lookupPairs(c1, c2, q.Distinct)
	if err != nil {
		return nil, err
	}
	for _, p := range distinct {
		if err := p.t1.AssertNeq(p.t2); err != nil {
			return nil, err
		}
	}

	oneEqual, err := lookupPairs(c1, c2, q.AtLeastOneEqual)
	if err != nil {
		return nil, err
	}
	if len(oneEqual) > 0 {
		eqs := make([]term.Formula, len(oneEqual))
		for i, p := range oneEqual {
			eqs[i] = p.t1.Eq(p.t2)
		}
		if err := solver.Assert(term.Or(eqs...)); err != nil {
			return nil, err
		}
	}

	labels := make(map[string]term.Term, 2*(len(different)+len(distinct)))
	for _, p := range append(different, distinct...) {
		labels[p.name+"_"+tag1] = p.t1
		labels[p.name+"_"+tag2] = p.t2
	}

	res, err := check(ctx, solver, log, labels, c1, c2)
	if err != nil {
		return nil, err
	}
	log.Info().
		Strs("equal", q.Equal).
		Strs("different", q.Different).
		Str("status", res.Status.String()).
		Bool("unique", res.Proved()).
		Dur("elapsed", res.Elapsed).
		Msg("uniqueness")
	return res, nil
}

// UniqueWitnessAll is UniqueWitness where every canonical variable outside
// q.Equal, and outside the public inputs unless q.FreePublic, may differ.
// q.Different is ignored.
func UniqueWitnessAll(ctx context.Context, s *schema.Schema, solver *smt.Solver, q UniquenessQuery) (*Result, error) {
	fixed := make(map[uint32]bool, len(q.Equal))
	for _, name := range q.Equal {
		if idx, ok := circuit.IndexOf(s, name); ok {
			fixed[s.RealVariable(idx)] = true
		}
	}
	if !q.FreePublic {
		for _, idx := range s.PublicInputs() {
			fixed[s.RealVariable(idx)] = true
		}
	}
	q.Different = nil
	for i := 0; i < s.NumVars(); i++ {
		idx := uint32(i)
		if s.IsAlias(idx) || fixed[idx] {
			continue
		}
		q.Different = append(q.Different, circuit.VarName(s, idx))
	}
	return UniqueWitness(ctx, s, solver, q)
}
