package schema

import (
	"fmt"
	"math/big"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/utils"
)

// Builder assembles a Schema in memory. Copy constraints recorded with
// AssertEqual are collapsed into the real-variable map instead of becoming
// gates. The first error sticks and is returned by Finalize.
type Builder struct {
	modulus *big.Int
	aliases aliasSet
	public  []uint32
	names   map[uint32]string
	used    map[string]uint32
	gates   []Gate
	err     error
}

func NewBuilder(modulus *big.Int) *Builder {
	return &Builder{
		modulus: new(big.Int).Set(modulus),
		names:   make(map[uint32]string),
		used:    make(map[string]uint32),
	}
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// Variable allocates an unnamed private witness index.
func (b *Builder) Variable() uint32 {
	return b.aliases.add()
}

// SecretInput allocates a named private variable.
func (b *Builder) SecretInput(name string) uint32 {
	i := b.Variable()
	b.SetName(i, name)
	return i
}

// PublicInput allocates a named public variable.
func (b *Builder) PublicInput(name string) uint32 {
	i := b.Variable()
	b.public = append(b.public, i)
	b.SetName(i, name)
	return i
}

func (b *Builder) SetName(i uint32, name string) {
	if int(i) >= len(b.aliases.parent) {
		b.fail("variable %d out of range", i)
		return
	}
	if name == "" {
		return
	}
	if prev, ok := b.used[name]; ok && prev != i {
		b.fail("name %q already bound to variable %d", name, prev)
		return
	}
	if old, ok := b.names[i]; ok {
		delete(b.used, old)
	}
	b.names[i] = name
	b.used[name] = i
}

func (b *Builder) coeff(x interface{}) *big.Int {
	v := utils.FromInterface(x)
	return v.Mod(&v, b.modulus)
}

func (b *Builder) check(wires ...uint32) bool {
	for _, w := range wires {
		if int(w) >= len(b.aliases.parent) {
			b.fail("wire %d out of range", w)
			return false
		}
	}
	return true
}

// AddArithmetic records qm*x*y + q1*x + q2*y + q3*z + qc = 0.
func (b *Builder) AddArithmetic(x, y, z uint32, qm, q1, q2, q3, qc interface{}) {
	if !b.check(x, y, z) {
		return
	}
	b.gates = append(b.gates, Gate{
		Kind:      Arithmetic,
		Wires:     [4]uint32{x, y, z, 0},
		Selectors: [NbSelectors]*big.Int{b.coeff(qm), b.coeff(q1), b.coeff(q2), b.coeff(q3), new(big.Int), b.coeff(qc)},
	})
}

// AddArithmeticWide records qm*x*y + q1*x + q2*y + q3*z + q4*w + qc = 0.
func (b *Builder) AddArithmeticWide(x, y, z, w uint32, qm, q1, q2, q3, q4, qc interface{}) {
	if !b.check(x, y, z, w) {
		return
	}
	b.gates = append(b.gates, Gate{
		Kind:      ArithmeticWide,
		Wires:     [4]uint32{x, y, z, w},
		Selectors: [NbSelectors]*big.Int{b.coeff(qm), b.coeff(q1), b.coeff(q2), b.coeff(q3), b.coeff(q4), b.coeff(qc)},
	})
}

// AddBool constrains x to {0, 1}.
func (b *Builder) AddBool(x uint32) {
	if !b.check(x) {
		return
	}
	var sel [NbSelectors]*big.Int
	for i := range sel {
		sel[i] = new(big.Int)
	}
	b.gates = append(b.gates, Gate{Kind: Bool, Wires: [4]uint32{x, 0, 0, 0}, Selectors: sel})
}

// AssertEqual aliases x and y.
func (b *Builder) AssertEqual(x, y uint32) {
	if !b.check(x, y) {
		return
	}
	b.aliases.union(x, y)
}

// Add returns a new variable constrained to x + y.
func (b *Builder) Add(x, y uint32) uint32 {
	z := b.Variable()
	b.AddArithmetic(x, y, z, 0, 1, 1, -1, 0)
	return z
}

// Mul returns a new variable constrained to x * y.
func (b *Builder) Mul(x, y uint32) uint32 {
	z := b.Variable()
	b.AddArithmetic(x, y, z, 1, 0, 0, -1, 0)
	return z
}

// Div returns a new variable z constrained by z * y = x. As in the usual
// builder gadget there is no check that y is non-zero.
func (b *Builder) Div(x, y uint32) uint32 {
	z := b.Variable()
	b.AddArithmetic(z, y, x, 1, 0, 0, -1, 0)
	return z
}

func (b *Builder) NumVars() int {
	return len(b.aliases.parent)
}

func (b *Builder) NumGates() int {
	return len(b.gates)
}

func (b *Builder) Finalize() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.modulus.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("invalid modulus %v", b.modulus)
	}
	gates := make([]Gate, len(b.gates))
	copy(gates, b.gates)
	names := make(map[uint32]string, len(b.names))
	for i, n := range b.names {
		names[i] = n
	}
	return newSchema(new(big.Int).Set(b.modulus), b.NumVars(), append([]uint32(nil), b.public...), names, b.aliases.flatten(), gates)
}
