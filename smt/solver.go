// Package smt wraps a satisfiability backend behind the term.Context
// interface: variables are declared and formulas asserted through terms, a
// check runs under a deadline, and a satisfying model is read back as
// decimal field elements.
//
// Symbolic divisions are lowered before a formula reaches the backend: each
// distinct division node becomes one fresh quotient variable constrained
// according to its term.DivPolicy.
package smt

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// Backend decides satisfiability of lowered formulas. Formulas handed to a
// backend never contain divisions.
type Backend interface {
	Declare(v *term.Var)
	Assert(f term.Formula) error
	Check(ctx context.Context) (Status, error)
	// Value returns the model value of v after a Satisfiable check.
	Value(v *term.Var) (constraint.Element, bool)
	Close() error
}

type Solver struct {
	f       field.Field
	cfg     Config
	log     zerolog.Logger
	backend Backend

	vars      []*term.Var
	quotients map[term.Term]term.Term

	nbAssertions int
	status       Status
	checked      bool
	elapsed      time.Duration
	closed       bool
}

// New creates a solver over the prime field of the given order.
func New(modulus *big.Int, opts ...Option) (*Solver, error) {
	st := settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&st)
	}
	f, err := field.GetFieldFromOrder(modulus)
	if err != nil {
		return nil, err
	}
	if err := st.cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Logger().With().Str("component", "smt").Logger()
	if st.log != nil {
		log = *st.log
	}
	s := &Solver{
		f:         f,
		cfg:       st.cfg,
		log:       log,
		backend:   st.backend,
		quotients: make(map[term.Term]term.Term),
	}
	if s.backend == nil {
		if s.backend, err = newBackend(st.cfg, f, log); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func newBackend(cfg Config, f field.Field, log zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case BackendCVC5:
		return newCVC5(cfg, f, log), nil
	case BackendEnum:
		return newEnum(cfg, f, log)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, cfg.Backend)
}

func (s *Solver) Field() field.Field {
	return s.f
}

func (s *Solver) Config() Config {
	return s.cfg
}

// Declare returns a fresh variable. Repeated names give distinct variables.
// A closed solver hands out a variable it does not track; asserting on it
// fails with ErrClosed.
func (s *Solver) Declare(name string) term.Term {
	v := &term.Var{Name: name, ID: len(s.vars) + 1}
	if s.closed {
		return term.NewVar(s, v)
	}
	s.checked = false
	s.vars = append(s.vars, v)
	s.backend.Declare(v)
	return term.NewVar(s, v)
}

// Assert adds f to the assertion set. There is no scoping.
func (s *Solver) Assert(f term.Formula) error {
	if s.closed {
		return ErrClosed
	}
	// the last model does not cover what is asserted from here on
	s.checked = false
	if !f.IsValid() {
		return errors.New("invalid formula")
	}
	f.Terms(func(t term.Term) {
		if t.Context() != term.Context(s) {
			panic("formula built on another solver")
		}
	})
	lowered, err := s.lowerFormula(f)
	if err != nil {
		return err
	}
	if err := s.backend.Assert(lowered); err != nil {
		return err
	}
	s.nbAssertions++
	return nil
}

// Materialize declares name and asserts it equals t.
func (s *Solver) Materialize(name string, t term.Term) (term.Term, error) {
	v := s.Declare(name)
	if err := s.Assert(v.Eq(t)); err != nil {
		return term.Term{}, err
	}
	return v, nil
}

// Check decides the current assertion set. Expiry of ctx yields Unknown.
func (s *Solver) Check(ctx context.Context) (Status, error) {
	if s.closed {
		return Unknown, ErrClosed
	}
	status, err := s.backend.Check(ctx)
	if err != nil {
		s.checked = false
		return Unknown, err
	}
	s.status = status
	s.checked = true
	return status, nil
}

// TimedCheck runs Check bounded by the configured timeout and logs how long
// it took.
func (s *Solver) TimedCheck(ctx context.Context) (Status, error) {
	if d := s.cfg.Timeout.Std(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	start := time.Now()
	status, err := s.Check(ctx)
	s.elapsed = time.Since(start)
	if err != nil {
		s.log.Error().Err(err).Dur("elapsed", s.elapsed).Msg("check failed")
		return status, err
	}
	s.log.Info().
		Str("status", status.String()).
		Int("nbVars", len(s.vars)).
		Int("nbAssertions", s.nbAssertions).
		Dur("elapsed", s.elapsed).
		Msg("check done")
	return status, nil
}

// Elapsed is the duration of the last TimedCheck.
func (s *Solver) Elapsed() time.Duration {
	return s.elapsed
}

func (s *Solver) Status() Status {
	return s.status
}

func (s *Solver) NumVars() int {
	return len(s.vars)
}

func (s *Solver) NumAssertions() int {
	return s.nbAssertions
}

// Model evaluates every labelled term in the last satisfying model. Terms
// the model does not cover are reported as TermNotFoundError, joined in the
// returned error; the other entries are still returned.
func (s *Solver) Model(terms map[string]term.Term) (map[string]string, error) {
	if !s.checked || s.status != Satisfiable {
		return nil, ErrNoModel
	}
	labels := make([]string, 0, len(terms))
	for label := range terms {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	res := make(map[string]string, len(terms))
	var errs []error
	for _, label := range labels {
		t := terms[label]
		v, ok := s.lookup(t)
		if !ok {
			errs = append(errs, &TermNotFoundError{Label: label, Term: t.String()})
			continue
		}
		res[label] = s.f.String(v)
	}
	return res, errors.Join(errs...)
}

// ModelOf is Model labelled by the terms themselves: variable names for
// variables, the printed expression otherwise.
func (s *Solver) ModelOf(terms []term.Term) (map[string]string, error) {
	m := make(map[string]term.Term, len(terms))
	for _, t := range terms {
		label := t.String()
		if t.Kind() == term.KindVar {
			label = t.Var().Name
		}
		if prev, ok := m[label]; ok && !prev.Same(t) {
			label = fmt.Sprintf("%s#%d", label, len(m))
		}
		m[label] = t
	}
	return s.Model(m)
}

// Value returns the model value of t.
func (s *Solver) Value(t term.Term) (*big.Int, error) {
	if !s.checked || s.status != Satisfiable {
		return nil, ErrNoModel
	}
	v, ok := s.lookup(t)
	if !ok {
		return nil, &TermNotFoundError{Label: t.String(), Term: t.String()}
	}
	return s.f.ToBigInt(v), nil
}

// lookup evaluates t in the model. Terms built on another solver are never
// found, even when their variable IDs exist here.
func (s *Solver) lookup(t term.Term) (constraint.Element, bool) {
	if !t.IsValid() {
		return constraint.Element{}, false
	}
	owned := true
	t.Walk(func(n term.Term) bool {
		owned = owned && n.Context() == term.Context(s)
		return owned
	})
	if !owned {
		return constraint.Element{}, false
	}
	return s.eval(t)
}

func (s *Solver) eval(t term.Term) (constraint.Element, bool) {
	f := s.f
	switch t.Kind() {
	case term.KindConst:
		v, _ := t.Value()
		return v, true
	case term.KindVar:
		return s.backend.Value(t.Var())
	case term.KindNeg:
		v, ok := s.eval(t.Args()[0])
		return f.Neg(v), ok
	case term.KindDiv:
		if q, ok := s.quotients[t]; ok {
			return s.eval(q)
		}
		args := t.Args()
		n, ok1 := s.eval(args[0])
		d, ok2 := s.eval(args[1])
		if !ok1 || !ok2 {
			return constraint.Element{}, false
		}
		if q, ok := field.Div(f, n, d); ok {
			return q, true
		}
		// an unlowered quotient by zero only has a value under the inverse
		// convention
		return constraint.Element{}, t.Policy() == term.DivFieldInverse
	}
	var res constraint.Element
	for i, a := range t.Args() {
		v, ok := s.eval(a)
		if !ok {
			return constraint.Element{}, false
		}
		switch {
		case i == 0:
			res = v
		case t.Kind() == term.KindAdd:
			res = f.Add(res, v)
		default:
			res = f.Mul(res, v)
		}
	}
	return res, true
}

// Close releases the backend. Later calls fail with ErrClosed.
func (s *Solver) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.checked = false
	return s.backend.Close()
}
