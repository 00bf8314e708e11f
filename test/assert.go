// Package test holds assertions shared by the verification tests.
package test

import (
	"math/big"
	"testing"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/verify"
)

type Assert struct {
	t *testing.T
}

func NewAssert(t *testing.T) *Assert {
	return &Assert{t: t}
}

// NewEnumSolver returns a solver deciding by enumeration, closed with the
// test.
func NewEnumSolver(t *testing.T, modulus *big.Int, opts ...smt.Option) *smt.Solver {
	s, err := smt.New(modulus, append([]smt.Option{smt.WithBackend(smt.BackendEnum)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func (a *Assert) Proved(res *verify.Result, err error) {
	a.t.Helper()
	if err != nil {
		a.t.Fatal(err)
	}
	if !res.Proved() {
		a.t.Fatalf("should be proved, got %s", res.Status)
	}
}

func (a *Assert) Refuted(res *verify.Result, err error) {
	a.t.Helper()
	if err != nil {
		a.t.Fatal(err)
	}
	if !res.Refuted() {
		a.t.Fatalf("should be refuted, got %s", res.Status)
	}
}

// WitnessValid checks that the model of c in w satisfies every gate of its
// schema.
func (a *Assert) WitnessValid(c *circuit.Circuit, w map[string]string) {
	a.t.Helper()
	values := make([]*big.Int, c.NumVars())
	for i := range values {
		name := c.DeclaredName(uint32(i))
		v, ok := new(big.Int).SetString(w[name], 10)
		if !ok {
			a.t.Fatalf("no value for %s", name)
		}
		values[i] = v
	}
	if err := c.Schema().CheckWitness(values); err != nil {
		a.t.Fatalf("model is not a witness: %v", err)
	}
}
