package term

import "strings"

type FormulaKind uint8

const (
	FormulaEq FormulaKind = iota + 1
	FormulaNeq
	FormulaAnd
	FormulaOr
	FormulaNot
)

// Formula is a boolean combination of field equalities.
type Formula struct {
	kind     FormulaKind
	lhs, rhs Term
	args     []Formula
}

func (t Term) Eq(o Term) Formula {
	t.check(o)
	return Formula{kind: FormulaEq, lhs: t, rhs: o}
}

func (t Term) Neq(o Term) Formula {
	t.check(o)
	return Formula{kind: FormulaNeq, lhs: t, rhs: o}
}

// And is true when every argument is; And() is true.
func And(fs ...Formula) Formula {
	return Formula{kind: FormulaAnd, args: append([]Formula(nil), fs...)}
}

// Or is true when some argument is; Or() is false.
func Or(fs ...Formula) Formula {
	return Formula{kind: FormulaOr, args: append([]Formula(nil), fs...)}
}

func Not(f Formula) Formula {
	return Formula{kind: FormulaNot, args: []Formula{f}}
}

func (f Formula) Kind() FormulaKind {
	return f.kind
}

// Operands returns both sides of an equality or disequality.
func (f Formula) Operands() (Term, Term) {
	return f.lhs, f.rhs
}

func (f Formula) Args() []Formula {
	return f.args
}

func (f Formula) IsValid() bool {
	return f.kind != 0
}

// Terms calls fn on both sides of every atom of f.
func (f Formula) Terms(fn func(Term)) {
	switch f.kind {
	case FormulaEq, FormulaNeq:
		fn(f.lhs)
		fn(f.rhs)
	default:
		for _, a := range f.args {
			a.Terms(fn)
		}
	}
}

func (t Term) AssertEq(o Term) error {
	return t.Context().Assert(t.Eq(o))
}

func (t Term) AssertNeq(o Term) error {
	return t.Context().Assert(t.Neq(o))
}

func (t Term) AssertNonZero() error {
	return t.AssertNeq(Const(t.Context(), 0))
}

func (f Formula) String() string {
	var sb strings.Builder
	f.format(&sb)
	return sb.String()
}

func (f Formula) format(sb *strings.Builder) {
	switch f.kind {
	case FormulaEq, FormulaNeq:
		sb.WriteString(f.lhs.String())
		if f.kind == FormulaEq {
			sb.WriteString(" == ")
		} else {
			sb.WriteString(" != ")
		}
		sb.WriteString(f.rhs.String())
	case FormulaNot:
		sb.WriteString("!(")
		f.args[0].format(sb)
		sb.WriteString(")")
	case FormulaAnd, FormulaOr:
		if len(f.args) == 0 {
			if f.kind == FormulaAnd {
				sb.WriteString("true")
			} else {
				sb.WriteString("false")
			}
			return
		}
		sep := " && "
		if f.kind == FormulaOr {
			sep = " || "
		}
		for i, a := range f.args {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString("(")
			a.format(sb)
			sb.WriteString(")")
		}
	default:
		sb.WriteString("<invalid>")
	}
}
