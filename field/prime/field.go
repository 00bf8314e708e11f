// Package prime implements arithmetic modulo an arbitrary prime of up to 384
// bits. It serves every modulus other than BN254, from the 31-bit proving
// fields down to the small primes the enumeration backend can search.
package prime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/utils"
	"github.com/consensys/gnark/constraint"
)

const maxBits = 64 * len(constraint.Element{})

var ErrNotPrime = errors.New("modulus is not prime")

type Field struct {
	p *big.Int
}

func New(p *big.Int) (*Field, error) {
	if p == nil || p.Cmp(big.NewInt(2)) < 0 {
		return nil, ErrNotPrime
	}
	if p.BitLen() > maxBits {
		return nil, fmt.Errorf("modulus has %d bits, at most %d supported", p.BitLen(), maxBits)
	}
	if !p.ProbablyPrime(20) {
		return nil, ErrNotPrime
	}
	return &Field{p: new(big.Int).Set(p)}, nil
}

func (engine *Field) toBig(c constraint.Element) *big.Int {
	var buf [maxBits / 8]byte
	for i := range c {
		binary.BigEndian.PutUint64(buf[len(buf)-8*(i+1):], c[i])
	}
	return new(big.Int).SetBytes(buf[:])
}

func (engine *Field) fromBig(b *big.Int) constraint.Element {
	b.Mod(b, engine.p)
	var buf [maxBits / 8]byte
	b.FillBytes(buf[:])
	var r constraint.Element
	for i := range r {
		r[i] = binary.BigEndian.Uint64(buf[len(buf)-8*(i+1):])
	}
	return r
}

func (engine *Field) FromInterface(i interface{}) constraint.Element {
	b := utils.FromInterface(i)
	return engine.fromBig(&b)
}

func (engine *Field) ToBigInt(c constraint.Element) *big.Int {
	return engine.toBig(c)
}

func (engine *Field) Mul(a, b constraint.Element) constraint.Element {
	x := engine.toBig(a)
	return engine.fromBig(x.Mul(x, engine.toBig(b)))
}

func (engine *Field) Add(a, b constraint.Element) constraint.Element {
	x := engine.toBig(a)
	return engine.fromBig(x.Add(x, engine.toBig(b)))
}

func (engine *Field) Sub(a, b constraint.Element) constraint.Element {
	x := engine.toBig(a)
	return engine.fromBig(x.Sub(x, engine.toBig(b)))
}

func (engine *Field) Neg(a constraint.Element) constraint.Element {
	x := engine.toBig(a)
	return engine.fromBig(x.Neg(x))
}

func (engine *Field) Inverse(a constraint.Element) (constraint.Element, bool) {
	x := engine.toBig(a)
	if x.Sign() == 0 {
		return a, false
	}
	return engine.fromBig(x.ModInverse(x, engine.p)), true
}

func (engine *Field) IsOne(a constraint.Element) bool {
	return engine.toBig(a).Cmp(big.NewInt(1)) == 0
}

func (engine *Field) One() constraint.Element {
	return constraint.Element{1}
}

func (engine *Field) String(a constraint.Element) string {
	return engine.toBig(a).String()
}

func (engine *Field) Uint64(a constraint.Element) (uint64, bool) {
	x := engine.toBig(a)
	if !x.IsUint64() {
		return 0, false
	}
	return x.Uint64(), true
}

func (engine *Field) Field() *big.Int {
	return new(big.Int).Set(engine.p)
}

func (engine *Field) FieldBitLen() int {
	return engine.p.BitLen()
}
