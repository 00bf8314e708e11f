package schema

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/utils"
)

const (
	schemaMagic   uint64 = 0x4d45484353544d53
	schemaVersion uint64 = 1
)

var (
	ErrMalformedBuffer     = errors.New("malformed circuit buffer")
	ErrUnsupportedGateKind = errors.New("unsupported gate kind")
)

func elementLen(modulus *big.Int) int {
	return (modulus.BitLen() + 7) / 8
}

// Export serializes s in the layout Import reads. Aliases are written as a
// flattened parent table.
func Export(s *Schema) []byte {
	n := elementLen(s.Modulus)
	o := &utils.OutputBuf{}
	o.AppendUint64(schemaMagic)
	o.AppendUint64(schemaVersion)
	o.AppendUint64(uint64(n))
	o.AppendBigInt(n, s.Modulus)

	o.AppendUint64(uint64(s.NumVars()))
	o.AppendUint64(uint64(len(s.public)))
	for _, idx := range s.public {
		o.AppendUint64(uint64(idx))
	}
	names := s.Names()
	o.AppendUint64(uint64(len(names)))
	for _, name := range names {
		o.AppendUint64(uint64(s.nameIndex[name]))
		o.AppendBytes([]byte(name))
	}
	for _, r := range s.RealIndex {
		o.AppendUint64(uint64(r))
	}

	o.AppendUint64(uint64(len(s.Gates)))
	for _, g := range s.Gates {
		o.AppendUint8(uint8(g.Kind))
		for _, w := range g.Wires {
			o.AppendUint64(uint64(w))
		}
		for _, q := range g.Selectors {
			if q == nil {
				q = new(big.Int)
			}
			o.AppendBigInt(n, q)
		}
	}
	return o.Bytes()
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedBuffer, fmt.Sprintf(format, args...))
}

// Import decodes a buffer written by Export.
func Import(buf []byte) (*Schema, error) {
	in := utils.NewInputBuf(buf)
	if magic := in.ReadUint64(); in.Err() == nil && magic != schemaMagic {
		return nil, malformed("invalid file header")
	}
	if version := in.ReadUint64(); in.Err() == nil && version != schemaVersion {
		return nil, malformed("unsupported version %d", version)
	}
	n := in.ReadUint64()
	if in.Err() == nil && (n == 0 || n > 64) {
		return nil, malformed("invalid element width %d", n)
	}
	modulus := in.ReadBigInt(int(n))
	if in.Err() == nil && modulus.Cmp(big.NewInt(2)) < 0 {
		return nil, malformed("invalid modulus %v", modulus)
	}

	nbVars := in.ReadLen(0)
	if in.Err() == nil && uint64(nbVars) >= 1<<32 {
		return nil, malformed("too many variables: %d", nbVars)
	}
	public := make([]uint32, in.ReadLen(8))
	for i := range public {
		public[i] = readIndex(in, nbVars)
	}
	nbNames := in.ReadLen(16)
	names := make(map[uint32]string, nbNames)
	for i := 0; i < nbNames; i++ {
		idx := readIndex(in, nbVars)
		name := in.ReadBytes()
		if in.Err() != nil {
			break
		}
		if !utf8.Valid(name) {
			return nil, malformed("variable %d has an invalid name", idx)
		}
		if _, ok := names[idx]; ok {
			return nil, malformed("variable %d named twice", idx)
		}
		names[idx] = string(name)
	}
	if in.Err() == nil && nbVars > in.Remaining()/8 {
		return nil, malformed("real variable table truncated")
	}
	parent := make([]uint32, nbVars)
	for i := range parent {
		parent[i] = readIndex(in, nbVars)
	}

	gates := make([]Gate, in.ReadLen(1+4*8+NbSelectors*int(n)))
	for i := range gates {
		g := &gates[i]
		g.Kind = GateKind(in.ReadUint8())
		if in.Err() == nil && !g.Kind.Valid() {
			return nil, fmt.Errorf("gate %d: %w: %d", i, ErrUnsupportedGateKind, uint8(g.Kind))
		}
		for w := range g.Wires {
			g.Wires[w] = readIndex(in, nbVars)
		}
		for k := range g.Selectors {
			g.Selectors[k] = in.ReadBigInt(int(n))
		}
	}
	if err := in.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBuffer, err)
	}
	if in.Remaining() != 0 {
		return nil, malformed("%d trailing bytes", in.Remaining())
	}

	realIndex, err := resolveRealIndex(parent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBuffer, err)
	}
	s, err := newSchema(modulus, nbVars, public, names, realIndex, gates)
	if err != nil {
		if errors.Is(err, ErrUnsupportedGateKind) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedBuffer, err)
	}
	return s, nil
}

// readIndex reads a witness index; out of range values are left for
// newSchema to reject with context.
func readIndex(in *utils.InputBuf, nbVars int) uint32 {
	x := in.ReadUint64()
	if x >= uint64(nbVars) || x > 0xffffffff {
		// keep it out of range for the caller's validation
		return uint32(nbVars)
	}
	return uint32(x)
}
