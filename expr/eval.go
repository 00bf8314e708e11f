package expr

import "github.com/consensys/gnark/constraint"

// Assignment returns the value of a variable and whether it is known.
type Assignment func(vid int) (constraint.Element, bool)

// Substitute replaces every known variable of e by its value.
func Substitute(f constraint.Field, e Expression, known Assignment) Expression {
	res := make(Expression, 0, len(e))
	for _, t := range e {
		coeff := t.Coeff
		var vids [2]int
		k := 0
		for _, v := range [2]int{t.VID0, t.VID1} {
			if v == 0 {
				continue
			}
			if x, ok := known(v); ok {
				coeff = f.Mul(coeff, x)
				continue
			}
			vids[k] = v
			k++
		}
		res = append(res, NewTerm(vids[0], vids[1], coeff))
	}
	return normalize(f, res)
}

// Eval returns the value of e under a complete assignment.
func Eval(f constraint.Field, e Expression, value func(vid int) constraint.Element) constraint.Element {
	var res constraint.Element
	for _, t := range e {
		c := t.Coeff
		if t.VID0 != 0 {
			c = f.Mul(c, value(t.VID0))
		}
		if t.VID1 != 0 {
			c = f.Mul(c, value(t.VID1))
		}
		res = f.Add(res, c)
	}
	return res
}

// SolveLinear solves e = 0 when e is c1*v + c0 for a single variable v.
func SolveLinear(f constraint.Field, e Expression) (int, constraint.Element, bool) {
	var c0, c1 constraint.Element
	vid := 0
	for _, t := range e {
		switch {
		case t.VID0 == 0:
			c0 = t.Coeff
		case t.VID1 != 0:
			return 0, constraint.Element{}, false
		case vid != 0:
			return 0, constraint.Element{}, false
		default:
			vid, c1 = t.VID0, t.Coeff
		}
	}
	if vid == 0 {
		return 0, constraint.Element{}, false
	}
	inv, ok := f.Inverse(c1)
	if !ok {
		return 0, constraint.Element{}, false
	}
	return vid, f.Mul(f.Neg(c0), inv), true
}
