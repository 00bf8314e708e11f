// Package term is a small symbolic algebra over a prime field. Terms are
// immutable expression trees bound to the Context that created their
// variables; nothing reaches the context until a formula over them is
// asserted.
package term

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field"
	"github.com/consensys/gnark/constraint"
)

var ErrDivisionByZero = errors.New("division by zero")

// Context owns variables and accumulates assertions.
type Context interface {
	Field() field.Field
	Declare(name string) Term
	Assert(f Formula) error
}

type Kind uint8

const (
	KindConst Kind = iota + 1
	KindVar
	KindAdd
	KindMul
	KindNeg
	KindDiv
)

// DivPolicy chooses what a symbolic quotient means when its divisor may be
// zero.
//
// A solver asserts the policy's constraint globally as soon as the quotient
// appears in any assertion, including under Or or Not. Under
// DivAssumeNonZero, Or(q.Eq(a), f) still forces the divisor to be non-zero.
type DivPolicy uint8

const (
	// DivFieldInverse defines x/0 as 0, the usual arithmetisation convention.
	DivFieldInverse DivPolicy = iota
	// DivAssumeNonZero asserts the divisor is non-zero.
	DivAssumeNonZero
	// DivUnchecked only relates quotient and operands through q*d = n, so the
	// quotient is free when both are zero.
	DivUnchecked
)

func (p DivPolicy) String() string {
	switch p {
	case DivFieldInverse:
		return "field_inverse"
	case DivAssumeNonZero:
		return "assume_non_zero"
	case DivUnchecked:
		return "unchecked"
	}
	return fmt.Sprintf("div_policy(%d)", uint8(p))
}

// Var is a declared unknown. ID is assigned by the context and unique
// within it; Name may repeat.
type Var struct {
	Name string
	ID   int
}

type node struct {
	ctx    Context
	kind   Kind
	value  constraint.Element
	v      *Var
	args   []*node
	policy DivPolicy
}

// Term is a handle on an expression node. The zero Term is invalid.
type Term struct {
	n *node
}

// NewVar wraps a variable declared by ctx. Only Context implementations
// call it.
func NewVar(ctx Context, v *Var) Term {
	return Term{&node{ctx: ctx, kind: KindVar, v: v}}
}

// Const returns the constant v, anything field.FromInterface accepts.
func Const(ctx Context, v interface{}) Term {
	return constant(ctx, ctx.Field().FromInterface(v))
}

func constant(ctx Context, v constraint.Element) Term {
	return Term{&node{ctx: ctx, kind: KindConst, value: v}}
}

func (t Term) node() *node {
	if t.n == nil {
		panic("use of uninitialized term")
	}
	return t.n
}

func (t Term) IsValid() bool {
	return t.n != nil
}

func (t Term) Context() Context {
	return t.node().ctx
}

func (t Term) Kind() Kind {
	return t.node().kind
}

// Value returns the constant of a KindConst term.
func (t Term) Value() (constraint.Element, bool) {
	n := t.node()
	return n.value, n.kind == KindConst
}

// Var returns the variable of a KindVar term.
func (t Term) Var() *Var {
	return t.node().v
}

// Args returns the operands: the summands of an addition, the factors of a
// product, the operand of a negation, or numerator and divisor of a quotient.
func (t Term) Args() []Term {
	n := t.node()
	res := make([]Term, len(n.args))
	for i, a := range n.args {
		res[i] = Term{a}
	}
	return res
}

func (t Term) Policy() DivPolicy {
	return t.node().policy
}

// Same reports whether t and o are the same node.
func (t Term) Same(o Term) bool {
	return t.n == o.n
}

func (t Term) field() field.Field {
	return t.node().ctx.Field()
}

func (t Term) check(o Term) {
	if t.node().ctx != o.node().ctx {
		panic("terms belong to different contexts")
	}
}

func (t Term) isConst() (constraint.Element, bool) {
	return t.Value()
}

func (t Term) Add(o Term) Term {
	t.check(o)
	f := t.field()
	a, aok := t.isConst()
	b, bok := o.isConst()
	switch {
	case aok && bok:
		return constant(t.n.ctx, f.Add(a, b))
	case aok && a.IsZero():
		return o
	case bok && b.IsZero():
		return t
	}
	args := make([]*node, 0, 2)
	for _, x := range []*node{t.n, o.n} {
		if x.kind == KindAdd {
			args = append(args, x.args...)
		} else {
			args = append(args, x)
		}
	}
	return Term{&node{ctx: t.n.ctx, kind: KindAdd, args: args}}
}

func (t Term) Neg() Term {
	n := t.node()
	if v, ok := t.isConst(); ok {
		return constant(n.ctx, t.field().Neg(v))
	}
	if n.kind == KindNeg {
		return Term{n.args[0]}
	}
	return Term{&node{ctx: n.ctx, kind: KindNeg, args: []*node{n}}}
}

func (t Term) Sub(o Term) Term {
	return t.Add(o.Neg())
}

func (t Term) Mul(o Term) Term {
	t.check(o)
	f := t.field()
	a, aok := t.isConst()
	b, bok := o.isConst()
	switch {
	case aok && bok:
		return constant(t.n.ctx, f.Mul(a, b))
	case aok && a.IsZero(), bok && b.IsZero():
		return constant(t.n.ctx, constraint.Element{})
	case aok && f.IsOne(a):
		return o
	case bok && f.IsOne(b):
		return t
	}
	return Term{&node{ctx: t.n.ctx, kind: KindMul, args: []*node{t.n, o.n}}}
}

// Div returns t / d under policy p. A divisor that is the literal zero fails
// with ErrDivisionByZero; a non-zero constant divisor folds into a product
// with its inverse. Dividing by a symbolic term asserts nothing here: the
// quotient is introduced with the policy's constraints when a formula over
// it is asserted.
func (t Term) Div(d Term, p DivPolicy) (Term, error) {
	t.check(d)
	if v, ok := d.isConst(); ok {
		inv, ok := t.field().Inverse(v)
		if !ok {
			return Term{}, ErrDivisionByZero
		}
		return t.Mul(constant(t.n.ctx, inv)), nil
	}
	return Term{&node{ctx: t.n.ctx, kind: KindDiv, args: []*node{t.n, d.n}, policy: p}}, nil
}

func (t Term) AddConst(v interface{}) Term {
	return t.Add(Const(t.Context(), v))
}

func (t Term) SubConst(v interface{}) Term {
	return t.Sub(Const(t.Context(), v))
}

func (t Term) MulConst(v interface{}) Term {
	return t.Mul(Const(t.Context(), v))
}

// Sum adds all terms; at least one is required.
func Sum(terms ...Term) Term {
	res := terms[0]
	for _, x := range terms[1:] {
		res = res.Add(x)
	}
	return res
}

// Product multiplies all terms; at least one is required.
func Product(terms ...Term) Term {
	res := terms[0]
	for _, x := range terms[1:] {
		res = res.Mul(x)
	}
	return res
}

// Walk calls fn on t and its operands in pre-order until fn returns false.
func (t Term) Walk(fn func(Term) bool) {
	if !fn(t) {
		return
	}
	for _, a := range t.node().args {
		Term{a}.Walk(fn)
	}
}

func (t Term) String() string {
	if t.n == nil {
		return "<nil>"
	}
	var sb strings.Builder
	t.format(&sb)
	return sb.String()
}

func (t Term) format(sb *strings.Builder) {
	n := t.n
	switch n.kind {
	case KindConst:
		sb.WriteString(n.ctx.Field().String(n.value))
	case KindVar:
		sb.WriteString(n.v.Name)
	case KindNeg:
		sb.WriteString("-")
		Term{n.args[0]}.formatOperand(sb)
	default:
		op := map[Kind]string{KindAdd: " + ", KindMul: " * ", KindDiv: " / "}[n.kind]
		for i, a := range n.args {
			if i > 0 {
				sb.WriteString(op)
			}
			Term{a}.formatOperand(sb)
		}
	}
}

func (t Term) formatOperand(sb *strings.Builder) {
	switch t.n.kind {
	case KindConst, KindVar:
		t.format(sb)
	default:
		sb.WriteString("(")
		t.format(sb)
		sb.WriteString(")")
	}
}
