package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/schema"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
)

// ReferenceFunc builds the expected value of the output from the terms of
// c. The choice of division policy belongs to it.
type ReferenceFunc func(c *circuit.Circuit) (term.Term, error)

type EquivalenceQuery struct {
	// Output names the circuit variable compared against the reference.
	Output    string
	Reference ReferenceFunc
	// ReferenceName labels the reference in the model, "ref" by default.
	ReferenceName string
	// ModelVars are extra circuit names reported in the model.
	ModelVars []string
}

// Equivalence asserts that the output of the circuit differs from the
// reference. An unsatisfiable check proves them equal on every witness; a
// model is a counterexample over ModelVars, Output and the reference.
func Equivalence(ctx context.Context, s *schema.Schema, solver *smt.Solver, q EquivalenceQuery) (*Result, error) {
	if q.Reference == nil {
		return nil, errors.New("equivalence query without reference")
	}
	log := newLogger("equivalence")

	c, err := circuit.New(s, solver, "")
	if err != nil {
		return nil, err
	}
	out, err := c.Lookup(q.Output)
	if err != nil {
		return nil, err
	}
	ref, err := q.Reference(c)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	refName := q.ReferenceName
	if refName == "" {
		refName = "ref"
	}
	ref, err = solver.Materialize(refName, ref)
	if err != nil {
		return nil, err
	}
	if err := out.AssertNeq(ref); err != nil {
		return nil, err
	}

	labels := map[string]term.Term{q.Output: out, refName: ref}
	for _, name := range q.ModelVars {
		t, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		labels[name] = t
	}

	res, err := check(ctx, solver, log, labels, c)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("output", q.Output).
		Str("status", res.Status.String()).
		Bool("proved", res.Proved()).
		Dur("elapsed", res.Elapsed).
		Msg("equivalence")
	return res, nil
}
