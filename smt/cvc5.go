package smt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PolyhedraZK/ExpanderCircuitSMT/field"
	"github.com/PolyhedraZK/ExpanderCircuitSMT/term"
	"github.com/consensys/gnark/constraint"
	"github.com/rs/zerolog"
)

// cvc5 runs the cvc5 binary once per check on an SMT-LIB 2 script in the
// finite field theory:
//
//	cvc5 --lang=smt2 [--tlimit-per=<ms>] <args> <script>
//
// The script declares every variable, asserts every formula, then asks for
// check-sat followed by get-value over all variables.
type cvc5 struct {
	cfg Config
	f   field.Field
	log zerolog.Logger
	p   *printer

	vars       []*term.Var
	assertions []string
	values     map[int]constraint.Element
}

func newCVC5(cfg Config, f field.Field, log zerolog.Logger) *cvc5 {
	return &cvc5{
		cfg: cfg,
		f:   f,
		log: log.With().Str("backend", BackendCVC5).Logger(),
		p:   newPrinter(f),
	}
}

func (b *cvc5) Declare(v *term.Var) {
	b.vars = append(b.vars, v)
}

func (b *cvc5) Assert(f term.Formula) error {
	s, err := b.p.assertion(f)
	if err != nil {
		return err
	}
	b.assertions = append(b.assertions, s)
	return nil
}

func (b *cvc5) script() []byte {
	var buf bytes.Buffer
	b.p.header(&buf, b.cfg.Logic)
	for _, v := range b.vars {
		b.p.declare(&buf, v)
	}
	for _, a := range b.assertions {
		buf.WriteString(a)
		buf.WriteByte('\n')
	}
	buf.WriteString("(check-sat)\n")
	if len(b.vars) > 0 {
		buf.WriteString("(get-value (")
		for i, v := range b.vars {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(symbol(v))
		}
		buf.WriteString("))\n")
	}
	return buf.Bytes()
}

func (b *cvc5) Check(ctx context.Context) (Status, error) {
	b.values = nil
	if ctx.Err() != nil {
		return Unknown, nil
	}

	tmpFile, err := os.CreateTemp("", "query-*.smt2")
	if err != nil {
		return Unknown, err
	}
	defer os.Remove(tmpFile.Name())
	if _, err := tmpFile.Write(b.script()); err != nil {
		tmpFile.Close()
		return Unknown, err
	}
	if err := tmpFile.Close(); err != nil {
		return Unknown, err
	}

	args := []string{"--lang=smt2"}
	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		args = append(args, fmt.Sprintf("--tlimit-per=%d", ms))
	}
	args = append(args, b.cfg.Args...)
	args = append(args, tmpFile.Name())

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.cfg.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if ctx.Err() != nil {
		b.log.Warn().Err(ctx.Err()).Msg("solver interrupted")
		return Unknown, nil
	}
	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return Unknown, fmt.Errorf("run %s: %w", b.cfg.Binary, runErr)
	}

	r := &sexpReader{s: stdout.String()}
	resp, err := r.next()
	if err != nil || resp.isList {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "timeout") || strings.Contains(msg, "interrupted") {
			return Unknown, nil
		}
		if resp != nil {
			msg = resp.String()
		}
		b.log.Error().Err(runErr).Str("output", msg).Msg("solver failed")
		return Unknown, fmt.Errorf("%s: unexpected response %q", b.cfg.Binary, msg)
	}
	status, ok := parseStatus(resp.atom)
	if !ok {
		return Unknown, fmt.Errorf("%s: unexpected response %q", b.cfg.Binary, resp.atom)
	}
	if status != Satisfiable || len(b.vars) == 0 {
		return status, nil
	}

	model, err := r.next()
	if err != nil {
		return Unknown, fmt.Errorf("read model: %w", err)
	}
	if err := b.readValues(model); err != nil {
		return Unknown, err
	}
	return status, nil
}

// readValues decodes a get-value response ((sym val) ...).
func (b *cvc5) readValues(model *sexp) error {
	bySymbol := make(map[string]*term.Var, len(b.vars))
	for _, v := range b.vars {
		bySymbol[symbol(v)] = v
	}
	b.values = make(map[int]constraint.Element, len(b.vars))
	if !model.isList {
		return fmt.Errorf("malformed model %s", model)
	}
	for _, entry := range model.list {
		if !entry.isList || len(entry.list) != 2 {
			return fmt.Errorf("malformed model entry %s", entry)
		}
		v, ok := bySymbol[entry.list[0].atom]
		if !ok {
			return fmt.Errorf("model entry for undeclared symbol %s", entry.list[0].atom)
		}
		x, err := parseFieldValue(entry.list[1])
		if err != nil {
			return err
		}
		b.values[v.ID] = b.f.FromInterface(x)
	}
	return nil
}

func (b *cvc5) Value(v *term.Var) (constraint.Element, bool) {
	x, ok := b.values[v.ID]
	return x, ok
}

func (b *cvc5) Close() error {
	b.vars = nil
	b.assertions = nil
	b.values = nil
	return nil
}
