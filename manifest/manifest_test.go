package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/pl0/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[compiler]
source = "prog.pl0"
tokens = "out/tokens.txt"
output = "prog.pm0b"
format = "cbor"
listing = false

[vm]
memory = 2048
trace = false
max-steps = 5000

[server]
addr = "127.0.0.1:9000"
max-steps = 10
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Compiler.Source != "prog.pl0" {
		t.Errorf("compiler source = %q, want prog.pl0", m.Compiler.Source)
	}
	if got, want := m.Path(m.Compiler.Tokens), filepath.Join(m.Dir, "out", "tokens.txt"); got != want {
		t.Errorf("tokens path = %q, want %q", got, want)
	}
	if m.ProgramFormat() != vm.FormatImage {
		t.Errorf("format = %q, want cbor", m.ProgramFormat())
	}
	if m.ListingEnabled() {
		t.Error("listing enabled, want disabled")
	}
	if m.VM.Memory != 2048 || m.VM.MaxSteps != 5000 || m.TraceEnabled() {
		t.Errorf("vm = %+v", m.VM)
	}
	if m.Server.Addr != "127.0.0.1:9000" || m.Server.MaxSteps != 10 {
		t.Errorf("server = %+v", m.Server)
	}
	if m.Server.Memory != 2048 {
		t.Errorf("server memory = %d, want the vm memory 2048", m.Server.Memory)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Compiler.Tokens != DefaultTokens || m.Compiler.Output != DefaultOutput {
		t.Errorf("compiler = %+v", m.Compiler)
	}
	if m.ProgramFormat() != vm.FormatText {
		t.Errorf("format = %q, want text", m.ProgramFormat())
	}
	if !m.ListingEnabled() || !m.TraceEnabled() {
		t.Error("listing and trace should default to on")
	}
	if m.VM.Memory != vm.DefaultMemory {
		t.Errorf("memory = %d, want %d", m.VM.Memory, vm.DefaultMemory)
	}
	if m.VM.MaxSteps != 0 {
		t.Errorf("vm max-steps = %d, want unlimited", m.VM.MaxSteps)
	}
	if m.Server.Addr != DefaultAddr || m.Server.MaxSteps != DefaultServerMaxSteps {
		t.Errorf("server = %+v", m.Server)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[compiler\n"},
		{"format", "[compiler]\nformat = \"yaml\"\n"},
		{"memory", "[vm]\nmemory = -1\n"},
		{"steps", "[server]\nmax-steps = -5\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			if _, err := Load(dir); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load without pl0.toml succeeded")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[vm]\nmemory = 1000\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("manifest not found walking up")
	}
	if m.VM.Memory != 1000 {
		t.Errorf("memory = %d, want 1000", m.VM.Memory)
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadOrDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Compiler.Output != DefaultOutput {
		t.Errorf("output = %q", m.Compiler.Output)
	}
	if got := m.Path("elf.txt"); filepath.Dir(got) != m.Dir {
		t.Errorf("Path(elf.txt) = %q, not under %q", got, m.Dir)
	}
	if got := m.Path("/abs/file"); got != "/abs/file" {
		t.Errorf("absolute path rewritten to %q", got)
	}
}
