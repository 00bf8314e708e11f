package verify_test

import (
	"context"
	"math/big"
	"os/exec"
	"testing"
	"time"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/schema"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/test"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/verify"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p97 = big.NewInt(97)

// divSchema builds c = (a + a) / (b + b + b), or c = a / (b + b + b) with
// the seeded mistake.
func divSchema(t *testing.T, mistake bool) *schema.Schema {
	b := schema.NewBuilder(p97)
	a := b.SecretInput("a")
	bb := b.SecretInput("b")
	c := b.PublicInput("c")
	num := a
	if !mistake {
		num = b.Add(a, a)
	}
	den := b.Add(b.Add(bb, bb), bb)
	b.AssertEqual(b.Div(num, den), c)
	s, err := b.Finalize()
	require.NoError(t, err)
	return s
}

// twoThirds is 2a / 3b.
func twoThirds(policy term.DivPolicy) verify.ReferenceFunc {
	return func(c *circuit.Circuit) (term.Term, error) {
		a, err := c.Lookup("a")
		if err != nil {
			return term.Term{}, err
		}
		b, err := c.Lookup("b")
		if err != nil {
			return term.Term{}, err
		}
		return a.MulConst(2).Div(b.MulConst(3), policy)
	}
}

func query(policy term.DivPolicy) verify.EquivalenceQuery {
	return verify.EquivalenceQuery{
		Output:        "c",
		Reference:     twoThirds(policy),
		ReferenceName: "cr",
		ModelVars:     []string{"a", "b"},
	}
}

func TestEquivalenceSound(t *testing.T) {
	assert := test.NewAssert(t)
	solver := test.NewEnumSolver(t, p97)
	assert.Proved(verify.Equivalence(context.Background(), divSchema(t, false), solver, query(term.DivAssumeNonZero)))
}

func TestEquivalenceCounterexample(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	res, err := verify.Equivalence(context.Background(), divSchema(t, true), solver, query(term.DivAssumeNonZero))
	test.NewAssert(t).Refuted(res, err)
	assert.False(t, res.Proved())

	m := res.Model
	require.Contains(t, m, "a")
	require.Contains(t, m, "b")
	require.Contains(t, m, "c")
	require.Contains(t, m, "cr")
	assert.NotEqual(t, m["c"], m["cr"])

	// c*3b = a and cr*3b = 2a in the field
	v := func(name string) *big.Int {
		x, ok := new(big.Int).SetString(m[name], 10)
		require.True(t, ok)
		return x
	}
	den := new(big.Int).Mul(v("b"), big.NewInt(3))
	lhs := new(big.Int).Mul(v("c"), den)
	assert.Equal(t, 0, lhs.Sub(lhs, v("a")).Mod(lhs, p97).Sign())
	lhs = new(big.Int).Mul(v("cr"), den)
	assert.Equal(t, 0, lhs.Sub(lhs, new(big.Int).Lsh(v("a"), 1)).Mod(lhs, p97).Sign())

	require.Len(t, res.Witness, 1)
	test.NewAssert(t).WitnessValid(res.Circuits[0], res.Witness[0])
}

// With the field-inverse reading, 0/0 is 0 while the circuit leaves the
// quotient of 0/0 free.
func TestEquivalenceFieldInverse(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	res, err := verify.Equivalence(context.Background(), divSchema(t, false), solver, query(term.DivFieldInverse))
	test.NewAssert(t).Refuted(res, err)
	assert.Equal(t, "0", res.Model["b"])
	assert.Equal(t, "0", res.Model["cr"])
}

func TestEquivalenceInconclusive(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := verify.Equivalence(ctx, divSchema(t, false), solver, query(term.DivAssumeNonZero))
	require.NoError(t, err)
	assert.True(t, res.Inconclusive())
	assert.False(t, res.Proved())
	assert.False(t, res.Refuted())
	assert.Nil(t, res.Model)
}

func TestEquivalenceErrors(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	q := query(term.DivAssumeNonZero)
	q.Output = "d"
	_, err := verify.Equivalence(context.Background(), divSchema(t, false), solver, q)
	assert.ErrorIs(t, err, circuit.ErrUnknownVariable)

	q = query(term.DivAssumeNonZero)
	q.Reference = func(c *circuit.Circuit) (term.Term, error) {
		a, _ := c.Lookup("a")
		return a.Div(term.Const(a.Context(), 0), term.DivFieldInverse)
	}
	_, err = verify.Equivalence(context.Background(), divSchema(t, false), test.NewEnumSolver(t, p97), q)
	assert.ErrorIs(t, err, term.ErrDivisionByZero)

	q.Reference = nil
	_, err = verify.Equivalence(context.Background(), divSchema(t, false), test.NewEnumSolver(t, p97), q)
	assert.Error(t, err)
}

type gnarkDiv struct {
	A, B frontend.Variable
	C    frontend.Variable `gnark:",public"`
	// Mistake drops the doubling of A.
	Mistake bool `gnark:"-"`
}

func (c *gnarkDiv) Define(api frontend.API) error {
	num := c.A
	if !c.Mistake {
		num = api.Add(c.A, c.A)
	}
	api.AssertIsEqual(api.Div(num, api.Add(c.B, c.B, c.B)), c.C)
	return nil
}

func TestEquivalenceCVC5(t *testing.T) {
	if _, err := exec.LookPath("cvc5"); err != nil {
		t.Skip("cvc5 not installed")
	}
	for _, tc := range []struct {
		name    string
		mistake bool
	}{{"sound", false}, {"mistake", true}} {
		t.Run(tc.name, func(t *testing.T) {
			ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, &gnarkDiv{Mistake: tc.mistake})
			require.NoError(t, err)
			s, err := schema.FromConstraintSystem(ccs)
			require.NoError(t, err)

			solver, err := smt.New(s.Modulus, smt.WithTimeout(time.Minute))
			require.NoError(t, err)
			defer solver.Close()

			q := verify.EquivalenceQuery{
				Output: "C",
				Reference: func(c *circuit.Circuit) (term.Term, error) {
					a, err := c.Lookup("A")
					if err != nil {
						return term.Term{}, err
					}
					b, err := c.Lookup("B")
					if err != nil {
						return term.Term{}, err
					}
					return a.MulConst(2).Div(b.MulConst(3), term.DivAssumeNonZero)
				},
				ModelVars: []string{"A", "B"},
			}
			res, err := verify.Equivalence(context.Background(), s, solver, q)
			if tc.mistake {
				test.NewAssert(t).Refuted(res, err)
				assert.NotEqual(t, res.Model["C"], res.Model["ref"])
			} else {
				test.NewAssert(t).Proved(res, err)
			}
		})
	}
}
