package smt

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// sexp is an SMT-LIB s-expression: an atom or a list.
type sexp struct {
	atom string
	list []*sexp
	// isList distinguishes () from the empty atom
	isList bool
}

func (e *sexp) String() string {
	if !e.isList {
		return e.atom
	}
	parts := make([]string, len(e.list))
	for i, x := range e.list {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type sexpReader struct {
	s   string
	pos int
}

var errEndOfInput = errors.New("end of solver output")

func (r *sexpReader) skip() {
	for r.pos < len(r.s) {
		c := r.s[r.pos]
		switch {
		case c == ';':
			for r.pos < len(r.s) && r.s[r.pos] != '\n' {
				r.pos++
			}
		case unicode.IsSpace(rune(c)):
			r.pos++
		default:
			return
		}
	}
}

// next reads one s-expression, or errEndOfInput when only whitespace is
// left.
func (r *sexpReader) next() (*sexp, error) {
	r.skip()
	if r.pos >= len(r.s) {
		return nil, errEndOfInput
	}
	switch c := r.s[r.pos]; c {
	case '(':
		r.pos++
		res := &sexp{isList: true}
		for {
			r.skip()
			if r.pos >= len(r.s) {
				return nil, fmt.Errorf("unbalanced parenthesis in solver output")
			}
			if r.s[r.pos] == ')' {
				r.pos++
				return res, nil
			}
			x, err := r.next()
			if err != nil {
				return nil, err
			}
			res.list = append(res.list, x)
		}
	case ')':
		return nil, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	case '|', '"':
		end := strings.IndexByte(r.s[r.pos+1:], c)
		if end < 0 {
			return nil, fmt.Errorf("unterminated %q at offset %d", c, r.pos)
		}
		atom := r.s[r.pos : r.pos+end+2]
		r.pos += end + 2
		return &sexp{atom: atom}, nil
	}
	start := r.pos
	for r.pos < len(r.s) {
		c := r.s[r.pos]
		if c == '(' || c == ')' || c == ';' || unicode.IsSpace(rune(c)) {
			break
		}
		r.pos++
	}
	return &sexp{atom: r.s[start:r.pos]}, nil
}

// parseFieldValue reads a finite field literal as printed in models:
// #f<v>m<p> (v may be negative) or (as ff<v> F).
func parseFieldValue(e *sexp) (*big.Int, error) {
	var lit string
	switch {
	case !e.isList && strings.HasPrefix(e.atom, "#f"):
		lit = e.atom[2:]
		if i := strings.LastIndexByte(lit, 'm'); i >= 0 {
			lit = lit[:i]
		}
	case e.isList && len(e.list) == 3 && e.list[0].atom == "as" && strings.HasPrefix(e.list[1].atom, "ff"):
		lit = e.list[1].atom[2:]
	default:
		return nil, fmt.Errorf("not a field value: %s", e)
	}
	v, ok := new(big.Int).SetString(lit, 10)
	if !ok {
		return nil, fmt.Errorf("not a field value: %s", e)
	}
	return v, nil
}
