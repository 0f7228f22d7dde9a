package compiler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/pl0/vm"
)

// run compiles src and executes it with the given input, returning what the
// program wrote.
func run(t *testing.T, src string, input ...int) []int {
	t.Helper()
	res := mustCompile(t, src)
	console := vm.NewBufferConsole(input...)
	m, err := vm.New(res.Program, vm.WithConsole(console))
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v\n%s", err, vm.Disassemble(res.Program))
	}
	return console.Output
}

func checkOutput(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("output = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output = %v, want %v", got, want)
		}
	}
}

func TestIntegrationPrograms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input []int
		want  []int
	}{
		{
			name: "const plus var",
			src:  `const a=5; var b; begin b:=a+3; write b end.`,
			want: []int{8},
		},
		{
			name: "arithmetic",
			src:  `write (7 - 10) * 4 / 3 + 1.`,
			want: []int{-3},
		},
		{
			name: "if else",
			src: `var x; begin read x;
				if x > 10 then write 1 else write 0 fi;
				if x = 3 then write 3 fi
			end.`,
			input: []int{3},
			want:  []int{0, 3},
		},
		{
			name: "while loop",
			src: `var i, s; begin
				i := 1; s := 0;
				while i <= 10 do begin s := s + i; i := i + 1 end;
				write s
			end.`,
			want: []int{55},
		},
		{
			name: "even",
			src: `var i; begin i := 0;
				while i < 4 do begin
					if even i then write i else write 0 - i fi;
					i := i + 1
				end
			end.`,
			want: []int{0, -1, 2, -3},
		},
		{
			name: "recursion through globals",
			src: `var n, f;
			procedure fact
				begin
					if n > 1 then begin f := f * n; n := n - 1; call fact end fi
				end;
			begin n := 5; f := 1; call fact; write f end.`,
			want: []int{120},
		},
		{
			name: "static links",
			src: `var a;
			procedure outer
				var b;
				procedure inner
					begin b := b + a; a := a + 1 end;
				begin b := 10; call inner; call inner; write b end;
			begin a := 1; call outer; write a end.`,
			want: []int{13, 3},
		},
		{
			name: "echo input",
			src: `var x, y; begin read x; read y; write y; write x end.`,
			input: []int{4, 9},
			want:  []int{9, 4},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			checkOutput(t, run(t, tc.src, tc.input...), tc.want)
		})
	}
}

func TestRoundTripDeterministic(t *testing.T) {
	res := mustCompile(t, `const a=5; var b; begin b:=a+3; write b end.`)
	dir := t.TempDir()

	for _, format := range []vm.Format{vm.FormatText, vm.FormatImage} {
		path := filepath.Join(dir, "elf."+string(format))
		if err := vm.WriteProgramFile(path, res.Program, format); err != nil {
			t.Fatalf("WriteProgramFile(%s): %v", format, err)
		}
		for i := 0; i < 3; i++ {
			prog, err := vm.LoadProgramFile(path)
			if err != nil {
				t.Fatalf("LoadProgramFile(%s): %v", format, err)
			}
			console := vm.NewBufferConsole()
			m, err := vm.New(prog, vm.WithConsole(console))
			if err != nil {
				t.Fatal(err)
			}
			if err := m.Run(context.Background()); err != nil {
				t.Fatalf("%s run %d: %v", format, i, err)
			}
			checkOutput(t, console.Output, []int{8})
		}
	}
}

func TestCallReturnSymmetry(t *testing.T) {
	res := mustCompile(t, `
var depth, total;
procedure c
	begin total := total + 1 end;
procedure b
	procedure d
		begin call c; total := total + 10 end;
	begin call c; call d end;
procedure a
	begin call b; call c; depth := depth + 1 end;
begin call a; call a; call b; write total; write depth end.`)

	console := vm.NewBufferConsole()
	m, err := vm.New(res.Program, vm.WithConsole(console))
	if err != nil {
		t.Fatal(err)
	}
	startBP := m.BP()
	mainTop := startBP + 1 - (vm.InstructionWidth + 2) // header plus two locals

	for !m.Done() {
		in := m.Current()
		bp, sp := m.BP(), m.SP()
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
		if in.Op != vm.OpCAL || len(m.Frames()) != 2 {
			continue
		}
		// Run the outermost call to completion and compare registers.
		for len(m.Frames()) > 1 {
			if err := m.Step(); err != nil {
				t.Fatal(err)
			}
		}
		if m.BP() != bp || m.SP() != sp {
			t.Errorf("after call at %d: bp=%d sp=%d, want bp=%d sp=%d", m.Index(), m.BP(), m.SP(), bp, sp)
		}
	}

	checkOutput(t, console.Output, []int{38, 2})
	if m.BP() != startBP {
		t.Errorf("final bp = %d, want %d", m.BP(), startBP)
	}
	if m.SP() != mainTop {
		t.Errorf("final sp = %d, want %d", m.SP(), mainTop)
	}
}

func TestRuntimeDivisionByZero(t *testing.T) {
	res := mustCompile(t, `var z; write 1 / z.`)
	m, err := vm.New(res.Program, vm.WithConsole(vm.NewBufferConsole()))
	if err != nil {
		t.Fatal(err)
	}
	err = m.Run(context.Background())
	if !errors.Is(err, vm.ErrDivisionByZero) {
		t.Fatalf("err = %v, want division by zero", err)
	}
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) || rerr.Instr.Op != vm.OpOPR {
		t.Errorf("err = %#v, want RuntimeError at OPR", err)
	}
}

func TestListing(t *testing.T) {
	res := mustCompile(t, `const a=5; var b; b := a.`)
	var sb strings.Builder
	if err := WriteListing(&sb, res); err != nil {
		t.Fatal(err)
	}
	want := "Assembly code:\n\n" +
		"  Line    OP     L     M\n" +
		"     0   JMP     0     3\n" +
		"     1   INC     0     4\n" +
		"     2   LIT     0     5\n" +
		"     3   STO     0     3\n" +
		"     4   SYS     0     3\n" +
		"\n" +
		"Symbol Table:\n\n" +
		"Kind |        Name | Value | Level | Address | Mark\n" +
		"---------------------------------------------------\n" +
		"   1 |           a |     5 |     0 |       0 |    1\n" +
		"   2 |           b |     0 |     0 |       3 |    1\n"
	if got := sb.String(); got != want {
		t.Errorf("listing:\n%s\nwant:\n%s", got, want)
	}
}
