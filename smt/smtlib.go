package smt

import (
	"fmt"
	"io"
	"strings"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
)

const sortName = "FF"

// symbol is the SMT-LIB name of v. Names may repeat across variables, so the
// id is always appended.
func symbol(v *term.Var) string {
	name := strings.Map(func(r rune) rune {
		if r == '|' || r == '\\' {
			return '_'
		}
		return r
	}, v.Name)
	return fmt.Sprintf("|%s!%d|", name, v.ID)
}

type printer struct {
	f       field.Field
	modulus string
}

func newPrinter(f field.Field) *printer {
	return &printer{f: f, modulus: f.Field().String()}
}

func (p *printer) header(w io.Writer, logic string) {
	fmt.Fprintln(w, "(set-option :produce-models true)")
	fmt.Fprintf(w, "(set-logic %s)\n", logic)
	fmt.Fprintf(w, "(define-sort %s () (_ FiniteField %s))\n", sortName, p.modulus)
}

func (p *printer) declare(w io.Writer, v *term.Var) {
	fmt.Fprintf(w, "(declare-fun %s () %s)\n", symbol(v), sortName)
}

func (p *printer) term(sb *strings.Builder, t term.Term) error {
	switch t.Kind() {
	case term.KindConst:
		v, _ := t.Value()
		fmt.Fprintf(sb, "#f%sm%s", p.f.String(v), p.modulus)
		return nil
	case term.KindVar:
		sb.WriteString(symbol(t.Var()))
		return nil
	case term.KindDiv:
		return fmt.Errorf("division %s was not lowered", t)
	}
	op := map[term.Kind]string{term.KindAdd: "ff.add", term.KindMul: "ff.mul", term.KindNeg: "ff.neg"}[t.Kind()]
	if op == "" {
		return fmt.Errorf("unknown term kind %d", t.Kind())
	}
	sb.WriteString("(" + op)
	for _, a := range t.Args() {
		sb.WriteString(" ")
		if err := p.term(sb, a); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

func (p *printer) formula(sb *strings.Builder, f term.Formula) error {
	switch f.Kind() {
	case term.FormulaEq, term.FormulaNeq:
		l, r := f.Operands()
		if f.Kind() == term.FormulaNeq {
			sb.WriteString("(not ")
		}
		sb.WriteString("(= ")
		if err := p.term(sb, l); err != nil {
			return err
		}
		sb.WriteString(" ")
		if err := p.term(sb, r); err != nil {
			return err
		}
		sb.WriteString(")")
		if f.Kind() == term.FormulaNeq {
			sb.WriteString(")")
		}
		return nil
	case term.FormulaNot:
		sb.WriteString("(not ")
		if err := p.formula(sb, f.Args()[0]); err != nil {
			return err
		}
		sb.WriteString(")")
		return nil
	case term.FormulaAnd, term.FormulaOr:
		args := f.Args()
		switch {
		case len(args) == 0 && f.Kind() == term.FormulaAnd:
			sb.WriteString("true")
			return nil
		case len(args) == 0:
			sb.WriteString("false")
			return nil
		case len(args) == 1:
			return p.formula(sb, args[0])
		}
		if f.Kind() == term.FormulaAnd {
			sb.WriteString("(and")
		} else {
			sb.WriteString("(or")
		}
		for _, a := range args {
			sb.WriteString(" ")
			if err := p.formula(sb, a); err != nil {
				return err
			}
		}
		sb.WriteString(")")
		return nil
	}
	return fmt.Errorf("unknown formula kind %d", f.Kind())
}

func (p *printer) assertion(f term.Formula) (string, error) {
	var sb strings.Builder
	sb.WriteString("(assert ")
	if err := p.formula(&sb, f); err != nil {
		return "", err
	}
	sb.WriteString(")")
	return sb.String(), nil
}
