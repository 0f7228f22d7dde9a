package vm

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var sampleProgram = Program{
	{OpJMP, 0, 3},
	{OpINC, 0, 4},
	{OpLIT, 0, 5},
	{OpLIT, 0, -3},
	{OpOPR, 0, OprADD},
	{OpSTO, 0, 3},
	{OpLOD, 0, 3},
	{OpSYS, 0, SysOUT},
	{OpSYS, 0, SysHALT},
}

func TestWriteProgramFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteProgram(&buf, sampleProgram[:3]); err != nil {
		t.Fatal(err)
	}
	want := "7 0 3\n6 0 4\n1 0 5\n"
	if buf.String() != want {
		t.Errorf("WriteProgram = %q, want %q", buf.String(), want)
	}
}

func TestTextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteProgram(&buf, sampleProgram); err != nil {
		t.Fatal(err)
	}
	got, err := ReadProgram(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(sampleProgram) {
		t.Fatalf("read %d instructions, want %d", len(got), len(sampleProgram))
	}
	for i := range got {
		if got[i] != sampleProgram[i] {
			t.Errorf("instruction %d = %v, want %v", i, got[i], sampleProgram[i])
		}
	}
}

func TestReadProgramWhitespace(t *testing.T) {
	got, err := ReadProgram(strings.NewReader("  7 0\t3\n\n6\n0 4 \r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != (Instruction{OpINC, 0, 4}) {
		t.Errorf("got %v", got)
	}
}

func TestReadProgramMalformed(t *testing.T) {
	for _, input := range []string{"7 0", "7 0 3 1", "7 zero 3", "1.5 0 0"} {
		if _, err := ReadProgram(strings.NewReader(input)); !errors.Is(err, ErrMalformedProgram) {
			t.Errorf("ReadProgram(%q): err = %v, want ErrMalformedProgram", input, err)
		}
	}
}

func TestProgramFiles(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []Format{FormatText, FormatImage} {
		path := filepath.Join(dir, "prog."+string(format))
		if err := WriteProgramFile(path, sampleProgram, format); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if IsImage(data) != (format == FormatImage) {
			t.Errorf("%s: IsImage = %v", format, IsImage(data))
		}
		got, err := LoadProgramFile(path)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if len(got) != len(sampleProgram) || got[3] != sampleProgram[3] {
			t.Errorf("%s: loaded %v", format, got)
		}
	}

	if _, err := LoadProgramFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("LoadProgramFile on a missing file succeeded")
	}
	if err := WriteProgramFile(filepath.Join(dir, "x"), sampleProgram, "yaml"); err == nil {
		t.Error("WriteProgramFile accepted an unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatText, true},
		{"text", FormatText, true},
		{"cbor", FormatImage, true},
		{"json", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
