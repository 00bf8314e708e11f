package circuit

import (
	"context"
	"math/big"
	"testing"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/schema"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p97 = big.NewInt(97)

func newSolver(t *testing.T, p *big.Int) *smt.Solver {
	s, err := smt.New(p, smt.WithBackend(smt.BackendEnum))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// c = (a + a) / (b + b + b); indices a=0 b=1 c=2, the quotient is 6.
func divSchema(t *testing.T) *schema.Schema {
	b := schema.NewBuilder(p97)
	a := b.SecretInput("a")
	bb := b.SecretInput("b")
	c := b.PublicInput("c")
	num := b.Add(a, a)
	den := b.Add(b.Add(bb, bb), bb)
	q := b.Div(num, den)
	b.AssertEqual(q, c)
	s, err := b.Finalize()
	require.NoError(t, err)
	return s
}

func TestOneAssertionPerGate(t *testing.T) {
	sch := divSchema(t)
	solver := newSolver(t, p97)
	c, err := New(sch, solver, "")
	require.NoError(t, err)

	assert.Equal(t, len(sch.Gates), c.NumAssertions())
	assert.Equal(t, len(sch.Gates), solver.NumAssertions())
	assert.Equal(t, 7, c.NumVars())
	assert.Equal(t, 6, c.NumRealVars())
	assert.Equal(t, 6, solver.NumVars())
	assert.Len(t, c.Vars(), 6)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, c.RealIndices())
}

func TestAliasesCollapse(t *testing.T) {
	c, err := New(divSchema(t), newSolver(t, p97), "")
	require.NoError(t, err)

	assert.True(t, c.Var(6).Same(c.Var(2)))
	out, err := c.Lookup("c")
	require.NoError(t, err)
	assert.True(t, out.Same(c.Var(6)))
	q, err := c.Lookup("var_6")
	require.NoError(t, err)
	assert.True(t, q.Same(out))

	pub := c.PublicInputs()
	require.Len(t, pub, 1)
	assert.True(t, pub[0].Same(out))
}

func TestLookup(t *testing.T) {
	c, err := New(divSchema(t), newSolver(t, p97), "c1")
	require.NoError(t, err)

	_, err = c.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownVariable)
	_, err = c.Lookup("var_7")
	assert.ErrorIs(t, err, ErrUnknownVariable)
	_, err = c.Lookup("var_x")
	assert.ErrorIs(t, err, ErrUnknownVariable)

	a, err := c.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "a_c1", a.Var().Name)
	assert.Equal(t, "var_3_c1", c.Var(3).Var().Name)
	assert.Equal(t, "var_3", c.Name(3))
	assert.Equal(t, "c1", c.Tag())
}

func TestTranslation(t *testing.T) {
	solver := newSolver(t, p97)
	c, err := New(divSchema(t), solver, "")
	require.NoError(t, err)

	a, _ := c.Lookup("a")
	b, _ := c.Lookup("b")
	out, _ := c.Lookup("c")
	require.NoError(t, a.AssertEq(term.Const(solver, 1)))
	require.NoError(t, b.AssertEq(term.Const(solver, 1)))

	status, err := solver.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, smt.Satisfiable, status)
	v, err := solver.Value(out)
	require.NoError(t, err)
	// 2 * 3^-1 mod 97
	assert.Equal(t, "33", v.String())
}

func TestWideAndBoolGates(t *testing.T) {
	b := schema.NewBuilder(p97)
	x := b.SecretInput("x")
	y := b.SecretInput("y")
	z := b.SecretInput("z")
	w := b.PublicInput("w")
	b.AddBool(x)
	// x + 2y + 3z + 4w - 10 = 0
	b.AddArithmeticWide(x, y, z, w, 0, 1, 2, 3, 4, -10)
	sch, err := b.Finalize()
	require.NoError(t, err)

	solver := newSolver(t, p97)
	c, err := New(sch, solver, "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.NumAssertions())

	for name, v := range map[string]int64{"y": 1, "z": 1, "w": 1} {
		tm, err := c.Lookup(name)
		require.NoError(t, err)
		require.NoError(t, tm.AssertEq(term.Const(solver, v)))
	}
	status, err := solver.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, smt.Satisfiable, status)
	m, err := solver.ModelOf(c.Vars())
	require.NoError(t, err)
	assert.Equal(t, "1", m["x"])

	// the wide gate leaves x no other value
	xt, _ := c.Lookup("x")
	require.NoError(t, xt.AssertNeq(term.Const(solver, 1)))
	status, err = solver.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, smt.Unsatisfiable, status)
}

func TestModulusMismatch(t *testing.T) {
	_, err := New(divSchema(t), newSolver(t, big.NewInt(101)), "")
	assert.Error(t, err)
}
