// Package expr is a sparse normal form for polynomials of degree at most two
// over a prime field, modelled on gnark's frontend/internal/expr but with
// quadratic terms.
//
// Expressions are kept sorted by monomial with no zero coefficients, so the
// zero polynomial is the empty Expression and equal polynomials compare
// equal term by term.
package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/gnark/constraint"
)

type Expression []Term

// NewConstantExpression returns c
func NewConstantExpression(c constraint.Element) Expression {
	if c.IsZero() {
		return Expression{}
	}
	return Expression{NewTerm(0, 0, c)}
}

// NewLinearExpression returns c * v
func NewLinearExpression(v int, c constraint.Element) Expression {
	if c.IsZero() {
		return Expression{}
	}
	return Expression{NewTerm(v, 0, c)}
}

// NewQuadraticExpression returns c * v0 * v1
func NewQuadraticExpression(v0, v1 int, c constraint.Element) Expression {
	if c.IsZero() {
		return Expression{}
	}
	return Expression{NewTerm(v0, v1, c)}
}

func (e Expression) Clone() Expression {
	res := make(Expression, len(e))
	copy(res, e)
	return res
}

func (e Expression) Len() int {
	return len(e)
}

// Equal returns true if both sorted expressions are the same
func (e Expression) Equal(o Expression) bool {
	if len(e) != len(o) {
		return false
	}
	for i := 0; i < len(e); i++ {
		if e[i] != o[i] {
			return false
		}
	}
	return true
}

func (e Expression) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

func (e Expression) Less(i, j int) bool {
	if e[i].VID0 != e[j].VID0 {
		return e[i].VID0 < e[j].VID0
	}
	return e[i].VID1 < e[j].VID1
}

// HashCode returns a fast-to-compute but NOT collision resistant hash code identifier for the expression
//
// requires sorted
func (e Expression) HashCode() uint64 {
	h := uint64(17)
	for _, val := range e {
		h = h*23 + val.HashCode()
	}
	return h
}

// Degree returns the degree of the polynomial
func (e Expression) Degree() int {
	res := 0
	for _, val := range e {
		deg := val.Degree()
		if deg == 2 {
			return 2
		}
		if deg > res {
			res = deg
		}
	}
	return res
}

// CountOfDegrees returns the number of terms of each degree
func (e Expression) CountOfDegrees() (int, int, int) {
	res0 := 0
	res1 := 0
	res2 := 0
	for _, val := range e {
		deg := val.Degree()
		if deg == 2 {
			res2++
		} else if deg == 1 {
			res1++
		} else {
			res0++
		}
	}
	return res0, res1, res2
}

func (e Expression) IsConstant() bool {
	for _, term := range e {
		if term.VID0 != 0 {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient.
func (e Expression) Constant() constraint.Element {
	if len(e) > 0 && e[0].VID0 == 0 {
		return e[0].Coeff
	}
	return constraint.Element{}
}

// Vars returns the distinct variable ids in increasing order.
func (e Expression) Vars() []int {
	seen := make(map[int]struct{}, 2*len(e))
	res := make([]int, 0, len(e))
	for _, t := range e {
		for _, v := range [2]int{t.VID0, t.VID1} {
			if v == 0 {
				continue
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				res = append(res, v)
			}
		}
	}
	sort.Ints(res)
	return res
}

// normalize sorts e in place, merges equal monomials and drops zero terms.
func normalize(f constraint.Field, e Expression) Expression {
	sort.Sort(e)
	res := e[:0]
	for i := range e {
		t := e[i]
		if n := len(res); n > 0 && res[n-1].sameMonomial(&t) {
			res[n-1].Coeff = f.Add(res[n-1].Coeff, t.Coeff)
			if res[n-1].Coeff.IsZero() {
				res = res[:n-1]
			}
			continue
		}
		if t.Coeff.IsZero() {
			continue
		}
		res = append(res, t)
	}
	return res
}

// Sum returns Σ(vars).
func Sum(f constraint.Field, vars ...Expression) Expression {
	capacity := 0
	for _, v := range vars {
		capacity += len(v)
	}
	res := make(Expression, 0, capacity)
	for _, v := range vars {
		res = append(res, v...)
	}
	return normalize(f, res)
}

// Neg returns -e, the result is a copy
func Neg(f constraint.Field, e Expression) Expression {
	res := e.Clone()
	for i := range res {
		res[i].Coeff = f.Neg(res[i].Coeff)
	}
	return res
}

// Sub returns a - b.
func Sub(f constraint.Field, a, b Expression) Expression {
	return Sum(f, a, Neg(f, b))
}

// MulConstant returns lambda * e, the result is a copy
func MulConstant(f constraint.Field, e Expression, lambda constraint.Element) Expression {
	if lambda.IsZero() {
		return Expression{}
	}
	res := e.Clone()
	for i := range res {
		res[i].Coeff = f.Mul(res[i].Coeff, lambda)
	}
	return res
}

// Mul returns a * b, and false if the product has degree above two. Callers
// compress one side into a fresh variable and retry.
func Mul(f constraint.Field, a, b Expression) (Expression, bool) {
	if a.Degree()+b.Degree() > 2 {
		return nil, false
	}
	res := make(Expression, 0, len(a)*len(b))
	for i := range a {
		for j := range b {
			var vids [2]int
			k := 0
			for _, v := range [4]int{a[i].VID0, a[i].VID1, b[j].VID0, b[j].VID1} {
				if v != 0 {
					vids[k] = v
					k++
				}
			}
			res = append(res, NewTerm(vids[0], vids[1], f.Mul(a[i].Coeff, b[j].Coeff)))
		}
	}
	return normalize(f, res), true
}

// String formats e with variable v printed as "v<id>".
func (e Expression) String(f constraint.Field) string {
	if len(e) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := len(e) - 1; i >= 0; i-- {
		t := e[i]
		if i != len(e)-1 {
			sb.WriteString(" + ")
		}
		sb.WriteString(f.String(t.Coeff))
		if t.VID0 != 0 {
			fmt.Fprintf(&sb, "*v%d", t.VID0)
		}
		if t.VID1 != 0 {
			fmt.Fprintf(&sb, "*v%d", t.VID1)
		}
	}
	return sb.String()
}
