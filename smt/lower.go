package smt

import (
	"fmt"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
)

func (s *Solver) lowerFormula(f term.Formula) (term.Formula, error) {
	switch f.Kind() {
	case term.FormulaEq, term.FormulaNeq:
		l, r := f.Operands()
		l, err := s.lowerTerm(l)
		if err != nil {
			return term.Formula{}, err
		}
		if r, err = s.lowerTerm(r); err != nil {
			return term.Formula{}, err
		}
		if f.Kind() == term.FormulaEq {
			return l.Eq(r), nil
		}
		return l.Neq(r), nil
	}
	args := make([]term.Formula, len(f.Args()))
	for i, a := range f.Args() {
		x, err := s.lowerFormula(a)
		if err != nil {
			return term.Formula{}, err
		}
		args[i] = x
	}
	switch f.Kind() {
	case term.FormulaAnd:
		return term.And(args...), nil
	case term.FormulaOr:
		return term.Or(args...), nil
	case term.FormulaNot:
		return term.Not(args[0]), nil
	}
	return term.Formula{}, fmt.Errorf("unknown formula kind %d", f.Kind())
}

func (s *Solver) lowerTerm(t term.Term) (term.Term, error) {
	switch t.Kind() {
	case term.KindConst, term.KindVar:
		return t, nil
	case term.KindDiv:
		return s.lowerDiv(t)
	}
	args := t.Args()
	for i, a := range args {
		x, err := s.lowerTerm(a)
		if err != nil {
			return term.Term{}, err
		}
		args[i] = x
	}
	switch t.Kind() {
	case term.KindAdd:
		return term.Sum(args...), nil
	case term.KindMul:
		return term.Product(args...), nil
	case term.KindNeg:
		return args[0].Neg(), nil
	}
	return term.Term{}, fmt.Errorf("unknown term kind %d", t.Kind())
}

// lowerDiv replaces n/d by a fresh q and asserts the policy's constraints:
//
//	DivAssumeNonZero: d != 0 && q*d == n
//	DivFieldInverse:  (d == 0 && q == 0) || (d != 0 && q*d == n)
//	DivUnchecked:     q*d == n
//
// The constraints are asserted at top level the first time the quotient is
// lowered, whatever connective it sits under.
func (s *Solver) lowerDiv(t term.Term) (term.Term, error) {
	if q, ok := s.quotients[t]; ok {
		return q, nil
	}
	args := t.Args()
	n, err := s.lowerTerm(args[0])
	if err != nil {
		return term.Term{}, err
	}
	d, err := s.lowerTerm(args[1])
	if err != nil {
		return term.Term{}, err
	}
	q := s.Declare(fmt.Sprintf("div%d", len(s.quotients)))
	zero := term.Const(s, 0)
	exact := q.Mul(d).Eq(n)

	var c term.Formula
	switch t.Policy() {
	case term.DivAssumeNonZero:
		c = term.And(d.Neq(zero), exact)
	case term.DivFieldInverse:
		c = term.Or(
			term.And(d.Eq(zero), q.Eq(zero)),
			term.And(d.Neq(zero), exact),
		)
	case term.DivUnchecked:
		c = exact
	default:
		return term.Term{}, fmt.Errorf("unknown division policy %v", t.Policy())
	}
	if err := s.backend.Assert(c); err != nil {
		return term.Term{}, err
	}
	s.quotients[t] = q
	s.log.Debug().Str("quotient", q.Var().Name).Str("policy", t.Policy().String()).Msg("lowered division")
	return q, nil
}
