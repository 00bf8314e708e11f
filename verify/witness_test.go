package verify_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/test"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/verify"
	"github.com/juju/fslock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWitness(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	c, err := circuit.New(divSchema(t, false), solver, "")
	require.NoError(t, err)
	a, _ := c.Lookup("a")
	b, _ := c.Lookup("b")
	require.NoError(t, a.AssertEq(term.Const(solver, 1)))
	require.NoError(t, b.AssertEq(term.Const(solver, 1)))
	_, err = solver.Check(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "witness.txt")
	require.NoError(t, verify.WriteWitness(path, c, solver))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `w = {
    1,                  // a
    1,                  // b
    33,                 // c
    2,                  // var_3
    2,                  // var_4
    3,                  // var_5
    33,                 // var_6 -> 2
};
`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestWriteWitnessPair(t *testing.T) {
	solver := test.NewEnumSolver(t, p13)
	res, err := verify.UniqueWitness(context.Background(), quadratic(t), solver, verify.UniquenessQuery{
		Equal:     []string{"ev"},
		Different: []string{"z"},
	})
	test.NewAssert(t).Refuted(res, err)

	path := filepath.Join(t.TempDir(), "pair.txt")
	require.NoError(t, verify.WriteWitnessPair(path, res.Circuits[0], res.Circuits[1], solver))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "w12 = {", lines[0])
	assert.Equal(t, "};", lines[8])
	z := "{" + res.Model["z_c1"] + ", " + res.Model["z_c2"] + "},"
	assert.Equal(t, "    "+z+strings.Repeat(" ", 20-len(z))+"// z_c1, z_c2", lines[3])
	assert.True(t, strings.HasSuffix(lines[7], "// ev_c1, ev_c2"))
}

func TestWriteWitnessLocked(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	c, err := circuit.New(divSchema(t, false), solver, "")
	require.NoError(t, err)
	_, err = solver.Check(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "witness.txt")
	lock := fslock.New(path + ".lock")
	require.NoError(t, lock.Lock())
	err = verify.WriteWitness(path, c, solver)
	assert.ErrorIs(t, err, verify.ErrWitnessLocked)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, lock.Unlock())
	assert.NoError(t, verify.WriteWitness(path, c, solver))
}

func TestWriteWitnessNoModel(t *testing.T) {
	solver := test.NewEnumSolver(t, p97)
	c, err := circuit.New(divSchema(t, false), solver, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "witness.txt")
	assert.Error(t, verify.WriteWitness(path, c, solver))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
