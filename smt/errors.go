package smt

import (
	"errors"
	"fmt"
)

var (
	ErrNoModel       = errors.New("no model available")
	ErrTermNotFound  = errors.New("term not found in model")
	ErrClosed        = errors.New("solver closed")
	ErrUnknownSolver = errors.New("unknown solver backend")
)

// TermNotFoundError reports a model entry whose term mentions a variable the
// backend has no value for.
type TermNotFoundError struct {
	Label string
	Term  string
}

func (e *TermNotFoundError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Label, ErrTermNotFound, e.Term)
}

func (e *TermNotFoundError) Is(target error) bool {
	return target == ErrTermNotFound
}
