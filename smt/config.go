package smt

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const (
	BackendCVC5 = "cvc5"
	BackendEnum = "enum"
)

// Config selects and tunes the solver backend. It can be loaded from a TOML
// file with LoadConfig:
//
//	backend = "cvc5"
//	binary = "/usr/local/bin/cvc5"
//	timeout = "30s"
type Config struct {
	Backend string   `toml:"backend"`
	Binary  string   `toml:"binary"`
	Args    []string `toml:"args"`
	Timeout Duration `toml:"timeout"`
	Logic   string   `toml:"logic"`
	// MaxModulus bounds the field size the enumeration backend accepts.
	MaxModulus uint64 `toml:"max_modulus"`
}

func DefaultConfig() Config {
	return Config{
		Backend:    BackendCVC5,
		Binary:     "cvc5",
		Timeout:    Duration(time.Minute),
		Logic:      "QF_FF",
		MaxModulus: 1 << 20,
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendCVC5, BackendEnum:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSolver, c.Backend)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", c.Timeout)
	}
	return nil
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Duration is a time.Duration written as a string ("30s") in config files.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

type settings struct {
	cfg     Config
	log     *zerolog.Logger
	backend Backend
}

type Option func(*settings)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

func WithBackend(name string) Option {
	return func(s *settings) {
		s.cfg.Backend = name
	}
}

func WithBinary(path string, args ...string) Option {
	return func(s *settings) {
		s.cfg.Binary = path
		s.cfg.Args = args
	}
}

// WithTimeout bounds TimedCheck; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.cfg.Timeout = Duration(d)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.log = &l
	}
}

// UseBackend plugs in a backend instance instead of building one from the
// configuration.
func UseBackend(b Backend) Option {
	return func(s *settings) {
		s.backend = b
	}
}
