package schema

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/constraint"
	cs_bn254 "github.com/consensys/gnark/constraint/bn254"
	"github.com/consensys/gnark/logger"
)

// FromConstraintSystem converts a compiled gnark PLONK constraint system.
// Witness indices follow gnark's layout (public, secret, internal) and keep
// its names. Each sparse constraint
//
//	qL*xa + qR*xb + qO*xc + qM*xa*xb + qC = 0
//
// becomes an Arithmetic gate, except pure copy constraints q*x - q*y = 0
// which only alias x and y.
func FromConstraintSystem(ccs constraint.ConstraintSystem) (*Schema, error) {
	scs, ok := ccs.(*cs_bn254.SparseR1CS)
	if !ok {
		return nil, fmt.Errorf("unsupported constraint system %T", ccs)
	}
	modulus := scs.Field()

	b := NewBuilder(modulus)
	for _, name := range scs.Public {
		b.PublicInput(name)
	}
	for _, name := range scs.Secret {
		b.SecretInput(name)
	}
	for i := 0; i < scs.GetNbInternalVariables(); i++ {
		b.Variable()
	}

	coeff := func(id uint32) *big.Int {
		c := scs.Coefficients[id]
		return c.BigInt(new(big.Int))
	}

	nbCopies := 0
	constraints := scs.GetSparseR1Cs()
	for _, c := range constraints {
		if isCopy(scs.Coefficients, c) {
			b.AssertEqual(c.XA, c.XB)
			nbCopies++
			continue
		}
		b.AddArithmetic(c.XA, c.XB, c.XC, coeff(c.QM), coeff(c.QL), coeff(c.QR), coeff(c.QO), coeff(c.QC))
	}

	log := logger.Logger().With().Str("component", "schema").Logger()
	log.Debug().
		Int("nbConstraints", len(constraints)).
		Int("nbCopies", nbCopies).
		Int("nbVars", b.NumVars()).
		Msg("converted gnark constraint system")

	return b.Finalize()
}

func isCopy(cs []fr.Element, c constraint.SparseR1C) bool {
	if c.XA == c.XB || !cs[c.QM].IsZero() || !cs[c.QO].IsZero() || !cs[c.QC].IsZero() {
		return false
	}
	l, r := cs[c.QL], cs[c.QR]
	if l.IsZero() {
		return false
	}
	var sum fr.Element
	sum.Add(&l, &r)
	return sum.IsZero()
}
