package integration_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/chazu/pl0/compiler"
	"github.com/chazu/pl0/vm"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

const examplesDir = "../../examples"

// lexFile scans a source file and passes the tokens through a token file,
// the way pl0lex hands them to pl0c.
func lexFile(t *testing.T, dir, path string) []compiler.Token {
	t.Helper()
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	toks := compiler.NewLexer(string(src)).Tokens()
	for _, tok := range toks {
		if tok.Kind == compiler.TokenSkip {
			t.Fatalf("%s:%d:%d: %s", path, tok.Pos.Line, tok.Pos.Column, tok.Text)
		}
	}

	tokenFile := filepath.Join(dir, compiler.DefaultTokenFile)
	if err := compiler.WriteTokenFile(tokenFile, toks); err != nil {
		t.Fatal(err)
	}
	read, err := compiler.ReadTokenFile(tokenFile)
	if err != nil {
		t.Fatal(err)
	}
	return read
}

// storeAndLoad writes prog in format and loads it back.
func storeAndLoad(t *testing.T, dir string, prog vm.Program, format vm.Format) vm.Program {
	t.Helper()
	path := filepath.Join(dir, "elf-"+string(format))
	if err := vm.WriteProgramFile(path, prog, format); err != nil {
		t.Fatal(err)
	}
	loaded, err := vm.LoadProgramFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return loaded
}

// execute runs prog against input and returns everything it wrote.
func execute(t *testing.T, prog vm.Program, input ...int) []int {
	t.Helper()
	console := vm.NewBufferConsole(input...)
	m, err := vm.New(prog, vm.WithConsole(console), vm.WithMaxSteps(1_000_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(t.Context()); err != nil {
		t.Fatalf("run: %v\n%s", err, vm.Disassemble(prog))
	}
	return console.Output
}

// ---------------------------------------------------------------------------
// Example programs through the whole toolchain
// ---------------------------------------------------------------------------

func TestExamplePrograms(t *testing.T) {
	tests := []struct {
		file  string
		input []int
		want  []int
	}{
		{"factorial.pl0", []int{5}, []int{120}},
		{"factorial.pl0", []int{0}, []int{1}},
		{"gcd.pl0", []int{48, 18}, []int{6}},
		{"gcd.pl0", []int{17, 5}, []int{1}},
		{"parity.pl0", []int{1, 2, 3, 4}, []int{-1, 2, -3, 4, 2}},
		{"nested.pl0", nil, []int{13, 3}},
		{"primes.pl0", nil, []int{2, 3, 5, 7, 11, 13, 17, 19}},
	}

	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			dir := t.TempDir()
			toks := lexFile(t, dir, filepath.Join(examplesDir, tc.file))

			res, err := compiler.Compile(toks)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}

			for _, format := range []vm.Format{vm.FormatText, vm.FormatImage} {
				prog := storeAndLoad(t, dir, res.Program, format)
				if !slices.Equal(prog, res.Program) {
					t.Fatalf("%v file changed the program:\n%s\nwant\n%s",
						format, vm.Disassemble(prog), vm.Disassemble(res.Program))
				}
				if got := execute(t, prog, tc.input...); !slices.Equal(got, tc.want) {
					t.Errorf("%v: output = %v, want %v", format, got, tc.want)
				}
			}
		})
	}
}

func TestExamplesHaveNoUnusedSymbols(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(examplesDir, "*.pl0"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no example programs found")
	}
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		res, err := compiler.CompileSource(string(src))
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		for _, sym := range res.Symbols.Entries() {
			if !sym.Used {
				t.Errorf("%s: %s declared but never used", filepath.Base(path), sym.Name)
			}
		}
	}
}
