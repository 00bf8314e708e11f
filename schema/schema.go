// Package schema holds the in-memory form of a circuit exported by a
// constraint builder: the modulus, the ordered gate list, the variable name
// table, the public markers and the real-variable map that collapses aliased
// wires onto one canonical index.
//
// A Schema is created once, by Import, by a Builder or from a gnark
// constraint system, and is never modified afterwards.
package schema

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// defaultPrefix starts the name given to unnamed variables.
const defaultPrefix = "var_"

// DefaultName is the name of witness index i when the schema records none.
func DefaultName(i uint32) string {
	return defaultPrefix + strconv.FormatUint(uint64(i), 10)
}

// DefaultIndex parses a name of the form var_<i>.
func DefaultIndex(name string) (uint32, bool) {
	v, ok := strings.CutPrefix(name, defaultPrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(i), true
}

// Role marks a variable as private witness or public input.
type Role uint8

const (
	Private Role = iota
	Public
)

func (r Role) String() string {
	if r == Public {
		return "public"
	}
	return "private"
}

// GateKind enumerates the gate templates understood by the translator.
type GateKind uint8

const (
	_ GateKind = iota
	// Arithmetic is qm*a*b + q1*a + q2*b + q3*c + qc = 0
	Arithmetic
	// ArithmeticWide is qm*a*b + q1*a + q2*b + q3*c + q4*d + qc = 0
	ArithmeticWide
	// Bool is a*a - a = 0
	Bool
)

func (k GateKind) Valid() bool {
	return k >= Arithmetic && k <= Bool
}

// Arity is the number of wires the kind reads.
func (k GateKind) Arity() int {
	switch k {
	case Arithmetic:
		return 3
	case ArithmeticWide:
		return 4
	case Bool:
		return 1
	}
	return 0
}

func (k GateKind) String() string {
	switch k {
	case Arithmetic:
		return "arithmetic"
	case ArithmeticWide:
		return "arithmetic_wide"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("gate_kind(%d)", uint8(k))
}

// Selector positions in Gate.Selectors.
const (
	QM = iota
	Q1
	Q2
	Q3
	Q4
	QC
	NbSelectors
)

// Gate is one constraint. Selectors are reduced modulo the schema modulus and
// never nil once the gate belongs to a Schema.
type Gate struct {
	Kind      GateKind
	Wires     [4]uint32
	Selectors [NbSelectors]*big.Int
}

type Schema struct {
	Modulus *big.Int
	Gates   []Gate

	// RealIndex maps every witness index to its canonical index.
	RealIndex []uint32

	names     map[uint32]string
	nameIndex map[string]uint32
	public    []uint32
	roles     []Role
	nbReal    int
}

func newSchema(modulus *big.Int, nbVars int, public []uint32, names map[uint32]string, realIndex []uint32, gates []Gate) (*Schema, error) {
	s := &Schema{
		Modulus:   modulus,
		Gates:     gates,
		RealIndex: realIndex,
		names:     make(map[uint32]string, len(names)),
		nameIndex: make(map[string]uint32, len(names)),
		roles:     make([]Role, nbVars),
	}
	if len(realIndex) != nbVars {
		return nil, fmt.Errorf("real variable table has %d entries for %d variables", len(realIndex), nbVars)
	}
	for _, idx := range public {
		if int(idx) >= nbVars {
			return nil, fmt.Errorf("public input %d out of range", idx)
		}
		if s.roles[idx] == Public {
			return nil, fmt.Errorf("public input %d listed twice", idx)
		}
		s.roles[idx] = Public
		s.public = append(s.public, idx)
	}
	sort.Slice(s.public, func(i, j int) bool { return s.public[i] < s.public[j] })
	for idx, name := range names {
		if int(idx) >= nbVars {
			return nil, fmt.Errorf("name %q bound to out of range index %d", name, idx)
		}
		if name == "" {
			return nil, fmt.Errorf("empty name for variable %d", idx)
		}
		if j, ok := DefaultIndex(name); ok && j != idx {
			return nil, fmt.Errorf("name %q is reserved for variable %d, bound to %d", name, j, idx)
		}
		if prev, ok := s.nameIndex[name]; ok {
			return nil, fmt.Errorf("name %q bound to both %d and %d", name, prev, idx)
		}
		s.names[idx] = name
		s.nameIndex[name] = idx
	}
	for i, r := range realIndex {
		if int(r) >= nbVars || realIndex[r] != r {
			return nil, fmt.Errorf("variable %d has no canonical representative", i)
		}
		if int(r) == i {
			s.nbReal++
		}
	}
	for gi := range gates {
		g := &gates[gi]
		if !g.Kind.Valid() {
			return nil, fmt.Errorf("gate %d: %w: %d", gi, ErrUnsupportedGateKind, g.Kind)
		}
		for w := 0; w < g.Kind.Arity(); w++ {
			if int(g.Wires[w]) >= nbVars {
				return nil, fmt.Errorf("gate %d: wire %d out of range", gi, g.Wires[w])
			}
		}
		for k, q := range g.Selectors {
			if q == nil {
				g.Selectors[k] = new(big.Int)
				continue
			}
			if q.Sign() < 0 || q.Cmp(modulus) >= 0 {
				return nil, fmt.Errorf("gate %d: selector %d not reduced", gi, k)
			}
		}
	}
	return s, nil
}

// NumVars is the number of witness indices, aliases included.
func (s *Schema) NumVars() int {
	return len(s.RealIndex)
}

// NumRealVars is the number of canonical variables.
func (s *Schema) NumRealVars() int {
	return s.nbReal
}

func (s *Schema) RealVariable(i uint32) uint32 {
	return s.RealIndex[i]
}

func (s *Schema) IsAlias(i uint32) bool {
	return s.RealIndex[i] != i
}

func (s *Schema) Role(i uint32) Role {
	return s.roles[i]
}

// PublicInputs returns the public witness indices in increasing order.
func (s *Schema) PublicInputs() []uint32 {
	return append([]uint32(nil), s.public...)
}

// Name returns the name recorded for witness index i.
func (s *Schema) Name(i uint32) (string, bool) {
	n, ok := s.names[i]
	return n, ok
}

// Index returns the witness index a name was recorded for.
func (s *Schema) Index(name string) (uint32, bool) {
	i, ok := s.nameIndex[name]
	return i, ok
}

// Names returns the recorded names ordered by witness index.
func (s *Schema) Names() []string {
	idx := make([]uint32, 0, len(s.names))
	for i := range s.names {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return idx[a] < idx[b] })
	res := make([]string, len(idx))
	for k, i := range idx {
		res[k] = s.names[i]
	}
	return res
}
