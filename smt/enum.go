package smt

import (
	"context"
	"fmt"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/expr"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/field"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/consensys/gnark/constraint"
	"github.com/rs/zerolog"
)

// enum decides small-field instances by exhaustive search. Terms are
// brought to quadratic normal form; products of higher degree are
// compressed into auxiliary variables. Top-level equalities drive unit
// propagation (a constraint left with one linear unknown fixes it), every
// other formula is evaluated three-valued and prunes as soon as it is false.
type enum struct {
	f   field.Field
	log zerolog.Logger

	ids      map[int]int // term.Var.ID -> internal id
	nbIDs    int
	eqs      []expr.Expression
	formulas []*cnode
	products expr.Map

	values []constraint.Element
}

// cnode is an asserted formula whose atoms compare an expression with zero.
type cnode struct {
	kind term.FormulaKind
	e    expr.Expression
	args []*cnode
}

// ctxCheckInterval is how many search nodes run between deadline checks.
const ctxCheckInterval = 1 << 10

func newEnum(cfg Config, f field.Field, log zerolog.Logger) (*enum, error) {
	if !f.Field().IsUint64() || f.Field().Uint64() > cfg.MaxModulus {
		return nil, fmt.Errorf("%s backend: modulus %v exceeds %d", BackendEnum, f.Field(), cfg.MaxModulus)
	}
	return &enum{
		f:        f,
		log:      log.With().Str("backend", BackendEnum).Logger(),
		ids:      make(map[int]int),
		products: expr.Map{},
	}, nil
}

func (b *enum) newID() int {
	b.nbIDs++
	return b.nbIDs
}

func (b *enum) Declare(v *term.Var) {
	b.ids[v.ID] = b.newID()
}

func (b *enum) Assert(f term.Formula) error {
	n, err := b.convert(f)
	if err != nil {
		return err
	}
	b.add(n)
	return nil
}

// add splits top-level conjunctions so plain equalities can propagate.
func (b *enum) add(n *cnode) {
	switch n.kind {
	case term.FormulaAnd:
		for _, a := range n.args {
			b.add(a)
		}
	case term.FormulaEq:
		b.eqs = append(b.eqs, n.e)
	default:
		b.formulas = append(b.formulas, n)
	}
}

func (b *enum) convert(f term.Formula) (*cnode, error) {
	switch f.Kind() {
	case term.FormulaEq, term.FormulaNeq:
		l, r := f.Operands()
		el, err := b.expression(l)
		if err != nil {
			return nil, err
		}
		er, err := b.expression(r)
		if err != nil {
			return nil, err
		}
		return &cnode{kind: f.Kind(), e: expr.Sub(b.f, el, er)}, nil
	}
	n := &cnode{kind: f.Kind()}
	for _, a := range f.Args() {
		x, err := b.convert(a)
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, x)
	}
	return n, nil
}

func (b *enum) expression(t term.Term) (expr.Expression, error) {
	switch t.Kind() {
	case term.KindConst:
		v, _ := t.Value()
		return expr.NewConstantExpression(v), nil
	case term.KindVar:
		id, ok := b.ids[t.Var().ID]
		if !ok {
			return nil, fmt.Errorf("variable %s was not declared", t.Var().Name)
		}
		return expr.NewLinearExpression(id, b.f.One()), nil
	case term.KindDiv:
		return nil, fmt.Errorf("division %s was not lowered", t)
	}
	args := make([]expr.Expression, 0, len(t.Args()))
	for _, a := range t.Args() {
		e, err := b.expression(a)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	switch t.Kind() {
	case term.KindAdd:
		return expr.Sum(b.f, args...), nil
	case term.KindNeg:
		return expr.Neg(b.f, args[0]), nil
	}
	res := args[0]
	for _, x := range args[1:] {
		res = b.mul(res, x)
	}
	return res, nil
}

func (b *enum) mul(x, y expr.Expression) expr.Expression {
	if p, ok := expr.Mul(b.f, x, y); ok {
		return p
	}
	if x.Degree() == 2 {
		x = b.compress(x)
	}
	if p, ok := expr.Mul(b.f, x, y); ok {
		return p
	}
	p, _ := expr.Mul(b.f, x, b.compress(y))
	return p
}

// compress returns a fresh variable constrained to e, shared between equal
// expressions.
func (b *enum) compress(e expr.Expression) expr.Expression {
	if id, ok := b.products.Find(e); ok {
		return expr.NewLinearExpression(id.(int), b.f.One())
	}
	id := b.newID()
	b.products.Set(e, id)
	aux := expr.NewLinearExpression(id, b.f.One())
	b.eqs = append(b.eqs, expr.Sub(b.f, aux, e))
	return aux
}

// search state
type enumState struct {
	b      *enum
	ctx    context.Context
	values []constraint.Element
	set    []bool
	trail  []int
	nodes  int
}

func (st *enumState) known(vid int) (constraint.Element, bool) {
	return st.values[vid], st.set[vid]
}

func (st *enumState) assign(vid int, v constraint.Element) {
	st.values[vid] = v
	st.set[vid] = true
	st.trail = append(st.trail, vid)
}

func (st *enumState) undo(mark int) {
	for _, vid := range st.trail[mark:] {
		st.set[vid] = false
	}
	st.trail = st.trail[:mark]
}

// eval is three-valued: 1 true, 0 false, -1 undetermined.
func (st *enumState) eval(n *cnode) int {
	switch n.kind {
	case term.FormulaEq, term.FormulaNeq:
		s := expr.Substitute(st.b.f, n.e, st.known)
		if !s.IsConstant() {
			return -1
		}
		if (len(s) == 0) == (n.kind == term.FormulaEq) {
			return 1
		}
		return 0
	case term.FormulaNot:
		if r := st.eval(n.args[0]); r >= 0 {
			return 1 - r
		}
		return -1
	}
	// And, Or
	and := n.kind == term.FormulaAnd
	res := 1
	if !and {
		res = 0
	}
	for _, a := range n.args {
		switch r := st.eval(a); {
		case r == 0 && and:
			return 0
		case r == 1 && !and:
			return 1
		case r < 0:
			res = -1
		}
	}
	return res
}

// propagate applies unit propagation to a fixpoint and reports false on a
// conflict.
func (st *enumState) propagate() bool {
	f := st.b.f
	for changed := true; changed; {
		changed = false
		for _, e := range st.b.eqs {
			s := expr.Substitute(f, e, st.known)
			if len(s) == 0 {
				continue
			}
			if s.IsConstant() {
				return false
			}
			if vid, v, ok := expr.SolveLinear(f, s); ok {
				st.assign(vid, v)
				changed = true
			}
		}
	}
	for _, n := range st.b.formulas {
		if st.eval(n) == 0 {
			return false
		}
	}
	return true
}

type errDeadline struct{ err error }

func (e errDeadline) Error() string { return e.err.Error() }

func (st *enumState) solve() (bool, error) {
	mark := len(st.trail)
	if !st.propagate() {
		st.undo(mark)
		return false, nil
	}
	vid := 0
	for i := 1; i < len(st.set); i++ {
		if !st.set[i] {
			vid = i
			break
		}
	}
	if vid == 0 {
		return true, nil
	}
	f := st.b.f
	p := f.Field().Uint64()
	var v constraint.Element
	for x := uint64(0); x < p; x++ {
		st.nodes++
		if st.nodes%ctxCheckInterval == 0 {
			if err := st.ctx.Err(); err != nil {
				return false, errDeadline{err}
			}
		}
		inner := len(st.trail)
		st.assign(vid, v)
		ok, err := st.solve()
		if err != nil || ok {
			return ok, err
		}
		st.undo(inner)
		v = f.Add(v, f.One())
	}
	st.undo(mark)
	return false, nil
}

func (b *enum) Check(ctx context.Context) (Status, error) {
	b.values = nil
	if ctx.Err() != nil {
		return Unknown, nil
	}
	st := &enumState{
		b:      b,
		ctx:    ctx,
		values: make([]constraint.Element, b.nbIDs+1),
		set:    make([]bool, b.nbIDs+1),
	}
	st.set[0] = true
	ok, err := st.solve()
	b.log.Debug().Int("nodes", st.nodes).Int("nbEqs", len(b.eqs)).Int("nbFormulas", len(b.formulas)).Msg("search done")
	if err != nil {
		if _, ok := err.(errDeadline); ok {
			return Unknown, nil
		}
		return Unknown, err
	}
	if !ok {
		return Unsatisfiable, nil
	}
	b.values = st.values
	return Satisfiable, nil
}

func (b *enum) Value(v *term.Var) (constraint.Element, bool) {
	id, ok := b.ids[v.ID]
	if !ok || b.values == nil || id >= len(b.values) {
		return constraint.Element{}, false
	}
	return b.values[id], true
}

func (b *enum) Close() error {
	b.eqs = nil
	b.formulas = nil
	b.values = nil
	return nil
}
