// Package field selects the prime field every circuit variable, selector and
// model value lives in.
package field

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field/bn254"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/field/prime"
	"github.com/consensys/gnark/constraint"
)

type Field interface {
	constraint.Field
	Field() *big.Int
	FieldBitLen() int
}

// GetFieldFromOrder returns the field of order x. BN254 uses gnark-crypto's
// Montgomery arithmetic; any other prime falls back to the generic field.
func GetFieldFromOrder(x *big.Int) (Field, error) {
	if x.Cmp(bn254.ScalarField) == 0 {
		return &bn254.Field{}, nil
	}
	f, err := prime.New(x)
	if err != nil {
		return nil, fmt.Errorf("unknown field %v: %w", x, err)
	}
	return f, nil
}

// IsZero reports whether a is the zero element of f.
func IsZero(f Field, a constraint.Element) bool {
	return f.ToBigInt(a).Sign() == 0
}

// Equal reports whether a and b are the same element of f.
func Equal(f Field, a, b constraint.Element) bool {
	return f.ToBigInt(a).Cmp(f.ToBigInt(b)) == 0
}

// Zero returns the additive identity of f.
func Zero(f Field) constraint.Element {
	return f.FromInterface(0)
}

// Div returns a/b, and false if b is zero.
func Div(f Field, a, b constraint.Element) (constraint.Element, bool) {
	inv, ok := f.Inverse(b)
	if !ok {
		return constraint.Element{}, false
	}
	return f.Mul(a, inv), true
}
