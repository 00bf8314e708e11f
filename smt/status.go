package smt

import "fmt"

// Status is the outcome of a satisfiability check. Unknown covers timeouts
// and resource limits and is neither a proof nor a counterexample.
type Status uint8

const (
	Unknown Status = iota
	Satisfiable
	Unsatisfiable
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Satisfiable:
		return "sat"
	case Unsatisfiable:
		return "unsat"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func parseStatus(s string) (Status, bool) {
	switch s {
	case "sat":
		return Satisfiable, true
	case "unsat":
		return Unsatisfiable, true
	case "unknown":
		return Unknown, true
	}
	return Unknown, false
}
