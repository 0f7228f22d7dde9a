// Package manifest handles pl0.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/pl0/vm"
)

// FileName is the name of the configuration file.
const FileName = "pl0.toml"

// Defaults applied to anything pl0.toml leaves unset.
const (
	DefaultTokens         = "lex_output.txt"
	DefaultOutput         = "elf.txt"
	DefaultAddr           = ":4680"
	DefaultServerMaxSteps = 1_000_000
)

// Manifest represents a pl0.toml project configuration.
type Manifest struct {
	Compiler CompilerConfig `toml:"compiler"`
	VM       VMConfig       `toml:"vm"`
	Server   ServerConfig   `toml:"server"`

	// Dir is the directory containing the pl0.toml file (set at load time).
	Dir string `toml:"-"`
}

// CompilerConfig configures pl0c.
type CompilerConfig struct {
	// Source, when set, is compiled directly instead of reading Tokens.
	Source  string `toml:"source"`
	Tokens  string `toml:"tokens"`
	Output  string `toml:"output"`
	Format  string `toml:"format"`
	Listing *bool  `toml:"listing"`
}

// VMConfig configures pl0vm.
type VMConfig struct {
	Memory   int   `toml:"memory"`
	Trace    *bool `toml:"trace"`
	MaxSteps int   `toml:"max-steps"`
}

// ServerConfig configures pl0serve.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	MaxSteps int    `toml:"max-steps"`
	Memory   int    `toml:"memory"`
}

// Default returns the configuration used when no pl0.toml exists, rooted at
// dir.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Compiler.Tokens == "" {
		m.Compiler.Tokens = DefaultTokens
	}
	if m.Compiler.Output == "" {
		m.Compiler.Output = DefaultOutput
	}
	if m.Compiler.Format == "" {
		m.Compiler.Format = string(vm.FormatText)
	}
	if m.VM.Memory == 0 {
		m.VM.Memory = vm.DefaultMemory
	}
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
	if m.Server.MaxSteps == 0 {
		m.Server.MaxSteps = DefaultServerMaxSteps
	}
	if m.Server.Memory == 0 {
		m.Server.Memory = m.VM.Memory
	}
}

func (m *Manifest) validate() error {
	if _, err := vm.ParseFormat(m.Compiler.Format); err != nil {
		return fmt.Errorf("[compiler] %w", err)
	}
	if m.VM.Memory < 0 || m.Server.Memory < 0 {
		return fmt.Errorf("memory must be positive")
	}
	if m.VM.MaxSteps < 0 || m.Server.MaxSteps < 0 {
		return fmt.Errorf("max-steps must not be negative")
	}
	return nil
}

// Load parses a pl0.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a pl0.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LoadOrDefault is FindAndLoad falling back to Default(startDir).
func LoadOrDefault(startDir string) (*Manifest, error) {
	m, err := FindAndLoad(startDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		dir, err := filepath.Abs(startDir)
		if err != nil {
			return nil, err
		}
		m = Default(dir)
	}
	return m, nil
}

// Path resolves a configured path against the manifest directory.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ListingEnabled reports whether pl0c prints the assembly and symbol tables.
func (m *Manifest) ListingEnabled() bool {
	return m.Compiler.Listing == nil || *m.Compiler.Listing
}

// TraceEnabled reports whether pl0vm traces execution.
func (m *Manifest) TraceEnabled() bool {
	return m.VM.Trace == nil || *m.VM.Trace
}

// ProgramFormat returns the configured output format of pl0c.
func (m *Manifest) ProgramFormat() vm.Format {
	f, _ := vm.ParseFormat(m.Compiler.Format)
	return f
}
