// Package verify runs equivalence and uniqueness queries over circuits
// instantiated in a shared solver.
package verify

import (
	"context"
	"errors"
	"time"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// Result is the outcome of one query. Model and Witness are only filled
// when the check was satisfiable.
type Result struct {
	Status smt.Status
	// Model holds the values of the queried names.
	Model map[string]string
	// Witness holds one full model per circuit copy, keyed by declared name.
	Witness  []map[string]string
	Circuits []*circuit.Circuit
	Elapsed  time.Duration
}

// Proved reports that no counterexample exists.
func (r *Result) Proved() bool {
	return r.Status == smt.Unsatisfiable
}

// Refuted reports that the model is a counterexample. Neither Proved nor
// Refuted holds when the check was inconclusive.
func (r *Result) Refuted() bool {
	return r.Status == smt.Satisfiable
}

func (r *Result) Inconclusive() bool {
	return r.Status == smt.Unknown
}

func newLogger(component string) zerolog.Logger {
	return logger.Logger().With().Str("component", component).Logger()
}

// check runs the timed check and fills in the result. The model is built
// from labels; terms missing from it are logged and left out.
func check(ctx context.Context, solver *smt.Solver, log zerolog.Logger, labels map[string]term.Term, circuits ...*circuit.Circuit) (*Result, error) {
	status, err := solver.TimedCheck(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Status: status, Circuits: circuits, Elapsed: solver.Elapsed()}
	if status != smt.Satisfiable {
		return res, nil
	}

	if res.Model, err = model(log, func() (map[string]string, error) { return solver.Model(labels) }); err != nil {
		return nil, err
	}
	for _, c := range circuits {
		w, err := model(log, func() (map[string]string, error) { return solver.ModelOf(c.Vars()) })
		if err != nil {
			return nil, err
		}
		res.Witness = append(res.Witness, w)
	}
	return res, nil
}

func model(log zerolog.Logger, get func() (map[string]string, error)) (map[string]string, error) {
	m, err := get()
	if err != nil && !errors.Is(err, smt.ErrTermNotFound) {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("partial model")
	}
	return m, nil
}
