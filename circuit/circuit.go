// Package circuit instantiates a schema inside a solver context: one term per
// canonical variable and one assertion per gate.
package circuit

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/schema"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/consensys/gnark/logger"
)

var ErrUnknownVariable = errors.New("unknown variable")

type Circuit struct {
	schema *schema.Schema
	ctx    term.Context
	tag    string

	// vars holds one term per canonical index, indexed by witness index
	vars  []term.Term
	order []uint32

	nbAssertions int
}

// New declares the canonical variables of s in ctx and asserts every gate.
// Declared names are the schema names, or var_<index> for unnamed
// variables, followed by _<tag> when tag is not empty.
func New(s *schema.Schema, ctx term.Context, tag string) (*Circuit, error) {
	if s.Modulus.Cmp(ctx.Field().Field()) != 0 {
		return nil, fmt.Errorf("circuit modulus %v does not match solver field %v", s.Modulus, ctx.Field().Field())
	}
	c := &Circuit{
		schema: s,
		ctx:    ctx,
		tag:    tag,
		vars:   make([]term.Term, s.NumVars()),
		order:  make([]uint32, 0, s.NumRealVars()),
	}
	for i := 0; i < s.NumVars(); i++ {
		idx := uint32(i)
		if s.IsAlias(idx) {
			continue
		}
		c.vars[i] = ctx.Declare(c.declaredName(idx))
		c.order = append(c.order, idx)
	}
	for i, r := range s.RealIndex {
		c.vars[i] = c.vars[r]
	}

	for i := range s.Gates {
		if err := ctx.Assert(c.gate(&s.Gates[i])); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		c.nbAssertions++
	}

	log := logger.Logger().With().Str("component", "circuit").Str("tag", tag).Logger()
	log.Debug().
		Int("nbVars", s.NumVars()).
		Int("nbRealVars", len(c.order)).
		Int("nbGates", c.nbAssertions).
		Msg("circuit created")
	return c, nil
}

// DeclaredName is the solver-side name of witness index idx; aliases give
// the name of their representative.
func (c *Circuit) DeclaredName(idx uint32) string {
	return c.vars[idx].Var().Name
}

func (c *Circuit) declaredName(idx uint32) string {
	name := c.Name(idx)
	if c.tag != "" {
		name += "_" + c.tag
	}
	return name
}

// gate builds the relation of g as a formula expression == 0.
func (c *Circuit) gate(g *schema.Gate) term.Formula {
	w := func(i int) term.Term { return c.vars[g.Wires[i]] }
	zero := term.Const(c.ctx, 0)
	if g.Kind == schema.Bool {
		return w(0).Mul(w(0)).Eq(w(0))
	}

	var summands []term.Term
	add := func(q *big.Int, t term.Term) {
		if q.Sign() != 0 {
			summands = append(summands, t.MulConst(q))
		}
	}
	add(g.Selectors[schema.QM], w(0).Mul(w(1)))
	add(g.Selectors[schema.Q1], w(0))
	add(g.Selectors[schema.Q2], w(1))
	add(g.Selectors[schema.Q3], w(2))
	if g.Kind == schema.ArithmeticWide {
		add(g.Selectors[schema.Q4], w(3))
	}
	if qc := g.Selectors[schema.QC]; qc.Sign() != 0 {
		summands = append(summands, term.Const(c.ctx, qc))
	}
	if len(summands) == 0 {
		return zero.Eq(zero)
	}
	return term.Sum(summands...).Eq(zero)
}

func (c *Circuit) Schema() *schema.Schema {
	return c.schema
}

func (c *Circuit) Tag() string {
	return c.tag
}

// Name is the schema name of witness index i, or var_<i>.
func (c *Circuit) Name(i uint32) string {
	return VarName(c.schema, i)
}

func VarName(s *schema.Schema, i uint32) string {
	if name, ok := s.Name(i); ok {
		return name
	}
	return schema.DefaultName(i)
}

// Var returns the term of witness index i; aliases share their
// representative's term.
func (c *Circuit) Var(i uint32) term.Term {
	return c.vars[i]
}

// Lookup resolves a schema name, or var_<i>, to its term.
func (c *Circuit) Lookup(name string) (term.Term, error) {
	if idx, ok := c.Index(name); ok {
		return c.vars[idx], nil
	}
	return term.Term{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}

// Index resolves a schema name, or var_<i>, to its witness index.
func (c *Circuit) Index(name string) (uint32, bool) {
	return IndexOf(c.schema, name)
}

func IndexOf(s *schema.Schema, name string) (uint32, bool) {
	if idx, ok := s.Index(name); ok {
		return idx, true
	}
	if i, ok := schema.DefaultIndex(name); ok && int(i) < s.NumVars() {
		return i, true
	}
	return 0, false
}

// Vars returns the declared terms ordered by canonical index.
func (c *Circuit) Vars() []term.Term {
	res := make([]term.Term, len(c.order))
	for i, idx := range c.order {
		res[i] = c.vars[idx]
	}
	return res
}

// RealIndices returns the canonical indices in declaration order.
func (c *Circuit) RealIndices() []uint32 {
	return append([]uint32(nil), c.order...)
}

func (c *Circuit) PublicInputs() []term.Term {
	pub := c.schema.PublicInputs()
	res := make([]term.Term, len(pub))
	for i, idx := range pub {
		res[i] = c.vars[idx]
	}
	return res
}

func (c *Circuit) NumVars() int {
	return len(c.vars)
}

func (c *Circuit) NumRealVars() int {
	return len(c.order)
}

func (c *Circuit) NumAssertions() int {
	return c.nbAssertions
}
