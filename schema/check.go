package schema

import (
	"fmt"
	"math/big"
)

// Eval returns the value of gate g's relation on the given witness, reduced
// modulo p. Satisfied gates evaluate to zero.
func (g *Gate) Eval(p *big.Int, values []*big.Int) *big.Int {
	w := func(i int) *big.Int { return values[g.Wires[i]] }
	res := new(big.Int)
	tmp := new(big.Int)
	switch g.Kind {
	case Bool:
		res.Mul(w(0), w(0))
		res.Sub(res, w(0))
	case Arithmetic, ArithmeticWide:
		tmp.Mul(w(0), w(1))
		res.Mul(tmp, g.Selectors[QM])
		res.Add(res, tmp.Mul(w(0), g.Selectors[Q1]))
		res.Add(res, tmp.Mul(w(1), g.Selectors[Q2]))
		res.Add(res, tmp.Mul(w(2), g.Selectors[Q3]))
		if g.Kind == ArithmeticWide {
			res.Add(res, tmp.Mul(w(3), g.Selectors[Q4]))
		}
		res.Add(res, g.Selectors[QC])
	}
	return res.Mod(res, p)
}

// CheckWitness evaluates every gate on a full witness (one value per witness
// index) and verifies that aliased indices carry the same value.
func (s *Schema) CheckWitness(values []*big.Int) error {
	if len(values) != s.NumVars() {
		return fmt.Errorf("witness has %d values, expected %d", len(values), s.NumVars())
	}
	for i, v := range values {
		if v == nil {
			return fmt.Errorf("missing value for variable %d", i)
		}
	}
	for i, r := range s.RealIndex {
		a := new(big.Int).Mod(values[i], s.Modulus)
		b := new(big.Int).Mod(values[r], s.Modulus)
		if a.Cmp(b) != 0 {
			return fmt.Errorf("variable %d and its representative %d differ", i, r)
		}
	}
	for i := range s.Gates {
		if v := s.Gates[i].Eval(s.Modulus, values); v.Sign() != 0 {
			return fmt.Errorf("gate %d (%s) not satisfied", i, s.Gates[i].Kind)
		}
	}
	return nil
}
