package verify

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/circuit"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/smt"
	"github.com/juju/fslock"
)

var ErrWitnessLocked = errors.New("witness file is being written by another task")

// WriteWitness dumps the model value of every witness index of c:
//
//	w = {
//	    3,                  // a
//	    33,                 // var_6 -> 2
//	};
func WriteWitness(path string, c *circuit.Circuit, solver *smt.Solver) error {
	return writeLocked(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "w = {"); err != nil {
			return err
		}
		for i := 0; i < c.NumVars(); i++ {
			idx := uint32(i)
			v, err := solver.Value(c.Var(idx))
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			comment := c.Name(idx)
			if r := c.Schema().RealVariable(idx); r != idx {
				comment = fmt.Sprintf("%s -> %d", comment, r)
			}
			if _, err := fmt.Fprintf(w, "    %-20s// %s\n", v.String()+",", comment); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w, "};")
		return err
	})
}

// WriteWitnessPair dumps the two copies of a uniqueness query side by side:
//
//	w12 = {
//	    {1, 96},            // z_c1, z_c2
//	};
func WriteWitnessPair(path string, c1, c2 *circuit.Circuit, solver *smt.Solver) error {
	if c1.NumVars() != c2.NumVars() {
		return fmt.Errorf("circuit copies have %d and %d variables", c1.NumVars(), c2.NumVars())
	}
	return writeLocked(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "w12 = {"); err != nil {
			return err
		}
		for i := 0; i < c1.NumVars(); i++ {
			idx := uint32(i)
			v1, err := solver.Value(c1.Var(idx))
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			v2, err := solver.Value(c2.Var(idx))
			if err != nil {
				return fmt.Errorf("witness %d: %w", i, err)
			}
			pair := fmt.Sprintf("{%s, %s},", v1, v2)
			if _, err := fmt.Fprintf(w, "    %-20s// %s, %s\n", pair, c1.DeclaredName(idx), c2.DeclaredName(idx)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w, "};")
		return err
	})
}

// writeLocked holds path.lock while fill writes a temporary file next to
// path, then renames it into place. Nothing is left at path on failure.
func writeLocked(path string, fill func(io.Writer) error) (err error) {
	lock := fslock.New(path + ".lock")
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, fslock.ErrLocked) {
			return fmt.Errorf("%w: %s", ErrWitnessLocked, path)
		}
		return err
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = fill(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
