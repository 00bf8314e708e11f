package expr

import (
	"math/big"
	"testing"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field/prime"
	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newField(t *testing.T) *prime.Field {
	f, err := prime.New(big.NewInt(97))
	require.NoError(t, err)
	return f
}

func TestSumMergesAndCancels(t *testing.T) {
	f := newField(t)
	c := f.FromInterface
	a := Sum(f, NewLinearExpression(1, c(3)), NewConstantExpression(c(5)))
	b := Sum(f, NewLinearExpression(1, c(-3)), NewLinearExpression(2, c(1)))

	s := Sum(f, a, b)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{2}, s.Vars())
	assert.Equal(t, c(5), s.Constant())

	assert.Equal(t, 0, Sub(f, a, a).Len())
	assert.True(t, Sub(f, a, a).IsConstant())
	assert.True(t, Sum(f, a, Neg(f, a)).Equal(Expression{}))
}

func TestMulDegree(t *testing.T) {
	f := newField(t)
	c := f.FromInterface
	// (x + 1) * (y + 2) = xy + 2x + y + 2
	x1 := Sum(f, NewLinearExpression(1, c(1)), NewConstantExpression(c(1)))
	y2 := Sum(f, NewLinearExpression(2, c(1)), NewConstantExpression(c(2)))
	p, ok := Mul(f, x1, y2)
	require.True(t, ok)
	assert.Equal(t, 2, p.Degree())
	c0, c1, c2 := p.CountOfDegrees()
	assert.Equal(t, [3]int{1, 2, 1}, [3]int{c0, c1, c2})

	_, ok = Mul(f, p, x1)
	assert.False(t, ok)

	q, ok := Mul(f, p, NewConstantExpression(c(2)))
	require.True(t, ok)
	assert.True(t, q.Equal(MulConstant(f, p, c(2))))
	assert.Equal(t, 0, MulConstant(f, p, c(0)).Len())
}

func TestSubstituteAndSolve(t *testing.T) {
	f := newField(t)
	c := f.FromInterface
	// x*y + 3y - 10 with x = 2 gives 5y - 10
	e := Sum(f, NewQuadraticExpression(1, 2, c(1)), NewLinearExpression(2, c(3)), NewConstantExpression(c(-10)))
	known := func(vid int) (constraint.Element, bool) {
		if vid == 1 {
			return c(2), true
		}
		return constraint.Element{}, false
	}
	s := Substitute(f, e, known)
	assert.Equal(t, 1, s.Degree())
	vid, v, ok := SolveLinear(f, s)
	require.True(t, ok)
	assert.Equal(t, 2, vid)
	assert.Equal(t, "2", f.String(v))

	_, _, ok = SolveLinear(f, e)
	assert.False(t, ok)

	val := Eval(f, e, func(vid int) constraint.Element {
		if vid == 1 {
			return c(2)
		}
		return c(2)
	})
	assert.True(t, val.IsZero())
}

func TestMap(t *testing.T) {
	f := newField(t)
	c := f.FromInterface
	m := Map{}
	e, _ := Mul(f, NewLinearExpression(1, c(1)), NewLinearExpression(2, c(1)))
	m.Set(e, 7)
	m.Set(e.Clone(), 8)
	v, ok := m.Find(e)
	require.True(t, ok)
	assert.Equal(t, 8, v)
	assert.Equal(t, 1, m.Len())
	_, ok = m.Find(NewLinearExpression(1, c(1)))
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	f := newField(t)
	c := f.FromInterface
	e := Sum(f, NewQuadraticExpression(2, 1, c(4)), NewConstantExpression(c(1)))
	assert.Equal(t, "4*v2*v1 + 1", e.String(f))
	assert.Equal(t, "0", Expression{}.String(f))
}
