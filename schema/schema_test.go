package schema

import (
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p97 = big.NewInt(97)

// divCircuit builds c = (a + a) / (b + b + b) the way a plonk builder lays
// it out, with the output copy-constrained to a named public wire.
func divCircuit(t *testing.T) *Schema {
	b := NewBuilder(p97)
	a := b.SecretInput("a")
	bb := b.SecretInput("b")
	c := b.PublicInput("c")
	num := b.Add(a, a)
	den := b.Add(b.Add(bb, bb), bb)
	q := b.Div(num, den)
	b.AssertEqual(q, c)
	s, err := b.Finalize()
	require.NoError(t, err)
	return s
}

func TestBuilderAliases(t *testing.T) {
	s := divCircuit(t)

	assert.Equal(t, 4, len(s.Gates))
	assert.Equal(t, 7, s.NumVars())
	assert.Equal(t, 6, s.NumRealVars())

	c, ok := s.Index("c")
	require.True(t, ok)
	assert.Equal(t, Public, s.Role(c))
	assert.Equal(t, []uint32{c}, s.PublicInputs())

	// the quotient was allocated last and folds onto c
	q := uint32(s.NumVars() - 1)
	assert.True(t, s.IsAlias(q))
	assert.Equal(t, c, s.RealVariable(q))
	assert.False(t, s.IsAlias(c))
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder(p97)
	b.SecretInput("x")
	b.SecretInput("x")
	_, err := b.Finalize()
	assert.Error(t, err)

	b = NewBuilder(p97)
	x := b.Variable()
	b.AddArithmetic(x, x, 5, 1, 0, 0, -1, 0)
	_, err = b.Finalize()
	assert.Error(t, err)
}

func TestDefaultNamesReserved(t *testing.T) {
	b := NewBuilder(p97)
	b.SecretInput("var_1")
	b.SecretInput("y")
	_, err := b.Finalize()
	assert.Error(t, err)

	b = NewBuilder(p97)
	b.SecretInput("var_0")
	b.Variable()
	s, err := b.Finalize()
	require.NoError(t, err)
	idx, ok := s.Index("var_0")
	require.True(t, ok)
	assert.Equal(t, uint32(0), idx)
	assert.Equal(t, "var_1", DefaultName(1))

	i, ok := DefaultIndex("var_12")
	assert.True(t, ok)
	assert.Equal(t, uint32(12), i)
	_, ok = DefaultIndex("var_x")
	assert.False(t, ok)
	_, ok = DefaultIndex("x_1")
	assert.False(t, ok)
}

func TestSelectorsReduced(t *testing.T) {
	b := NewBuilder(p97)
	x := b.Variable()
	b.AddArithmetic(x, x, x, -1, 98, 0, 0, "0x61")
	s, err := b.Finalize()
	require.NoError(t, err)
	g := s.Gates[0]
	assert.Equal(t, "96", g.Selectors[QM].String())
	assert.Equal(t, "1", g.Selectors[Q1].String())
	assert.Equal(t, "0", g.Selectors[QC].String())
}

func TestRoundTrip(t *testing.T) {
	s := divCircuit(t)
	buf := Export(s)

	s1, err := Import(buf)
	require.NoError(t, err)
	s2, err := Import(buf)
	require.NoError(t, err)

	for _, r := range []*Schema{s1, s2} {
		assert.Equal(t, 0, r.Modulus.Cmp(s.Modulus))
		assert.Equal(t, len(s.Gates), len(r.Gates))
		assert.Equal(t, s.RealIndex, r.RealIndex)
		assert.Equal(t, s.PublicInputs(), r.PublicInputs())
		assert.Equal(t, s.Names(), r.Names())
		assert.Equal(t, s.NumRealVars(), r.NumRealVars())
		for i := range s.Gates {
			assert.Equal(t, s.Gates[i].Kind, r.Gates[i].Kind)
			assert.Equal(t, s.Gates[i].Wires, r.Gates[i].Wires)
			for k := range s.Gates[i].Selectors {
				assert.Equal(t, 0, s.Gates[i].Selectors[k].Cmp(r.Gates[i].Selectors[k]))
			}
		}
	}
	assert.Equal(t, buf, Export(s2))
}

func TestImportChainedParents(t *testing.T) {
	b := NewBuilder(p97)
	x := b.Variable()
	y := b.Variable()
	z := b.Variable()
	b.AddBool(z)
	s, err := b.Finalize()
	require.NoError(t, err)
	buf := Export(s)

	// rewrite the parent table as z -> y -> x
	off := parentTableOffset(s)
	binary.LittleEndian.PutUint64(buf[off+8*int(y):], uint64(x))
	binary.LittleEndian.PutUint64(buf[off+8*int(z):], uint64(y))
	r, err := Import(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{x, x, x}, r.RealIndex)
	assert.Equal(t, 1, r.NumRealVars())
}

func TestImportMalformed(t *testing.T) {
	s := divCircuit(t)
	good := Export(s)

	cyclic := append([]byte(nil), good...)
	off := parentTableOffset(s)
	binary.LittleEndian.PutUint64(cyclic[off:], 1)
	binary.LittleEndian.PutUint64(cyclic[off+8:], 0)

	outOfRange := append([]byte(nil), good...)
	binary.LittleEndian.PutUint64(outOfRange[off:], 1000)

	badMagic := append([]byte(nil), good...)
	badMagic[0] ^= 0xff

	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint64(badVersion[8:], 7)

	for name, buf := range map[string][]byte{
		"empty":        nil,
		"truncated":    good[:len(good)-3],
		"trailing":     append(append([]byte(nil), good...), 0),
		"bad magic":    badMagic,
		"bad version":  badVersion,
		"cyclic alias": cyclic,
		"out of range": outOfRange,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Import(buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedBuffer), err.Error())
		})
	}
}

func TestImportUnsupportedGateKind(t *testing.T) {
	b := NewBuilder(p97)
	x := b.Variable()
	b.AddBool(x)
	s, err := b.Finalize()
	require.NoError(t, err)
	buf := Export(s)

	gateSize := 1 + 4*8 + NbSelectors*elementLen(p97)
	buf[len(buf)-gateSize] = 42
	_, err = Import(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedGateKind))
	assert.False(t, errors.Is(err, ErrMalformedBuffer))
}

func TestCheckWitness(t *testing.T) {
	s := divCircuit(t)
	// a=1, b=1, c=2/3, then a+a, b+b, b+b+b and the quotient
	third := new(big.Int).ModInverse(big.NewInt(3), p97)
	c := new(big.Int).Mul(big.NewInt(2), third)
	c.Mod(c, p97)
	w := []*big.Int{
		big.NewInt(1), big.NewInt(1), c,
		big.NewInt(2), big.NewInt(2), big.NewInt(3), new(big.Int).Set(c),
	}
	require.Len(t, w, s.NumVars())
	require.NoError(t, s.CheckWitness(w))

	w[6] = big.NewInt(5)
	assert.Error(t, s.CheckWitness(w))

	w[6] = new(big.Int).Set(c)
	w[5] = big.NewInt(4)
	assert.Error(t, s.CheckWitness(w))
}

type mulCircuit struct {
	A, B frontend.Variable
	C    frontend.Variable `gnark:",public"`
}

func (c *mulCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.A, c.B), c.C)
	return nil
}

func TestFromConstraintSystem(t *testing.T) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, &mulCircuit{})
	require.NoError(t, err)

	s, err := FromConstraintSystem(ccs)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Modulus.Cmp(ecc.BN254.ScalarField()))
	assert.Equal(t, ccs.GetNbConstraints(), len(s.Gates)+s.NumVars()-s.NumRealVars())

	cIdx, ok := s.Index("C")
	require.True(t, ok)
	assert.Equal(t, Public, s.Role(cIdx))
	aIdx, ok := s.Index("A")
	require.True(t, ok)
	assert.Equal(t, Private, s.Role(aIdx))

	_, err = Import(Export(s))
	require.NoError(t, err)
}

func parentTableOffset(s *Schema) int {
	n := elementLen(s.Modulus)
	off := 3*8 + n + 8
	off += 8 + 8*len(s.PublicInputs())
	off += 8
	for _, name := range s.Names() {
		off += 8 + 8 + len(name)
	}
	return off
}
