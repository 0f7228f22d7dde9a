package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/pl0/compiler"
)

func TestScanToTokenFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.pl0")
	if err := os.WriteFile(src, []byte("var x; begin x := 10; write x end."), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "tokens.txt")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-o", out, src}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	const want = "29 2 x 17 20 2 x 19 3 10 17 31 2 x 21 18"
	if got := strings.TrimSpace(string(data)); got != want {
		t.Errorf("token file = %q, want %q", got, want)
	}

	toks, err := compiler.ReadTokenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := compiler.Compile(toks); err != nil {
		t.Errorf("token file does not compile: %v", err)
	}
}

func TestLexicalErrorsReported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.pl0")
	if err := os.WriteFile(src, []byte("var 1x;\nwrite 1."), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "tokens.txt")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-o", out, src}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr.String(), src+":1:5:") {
		t.Errorf("stderr = %q, want a positioned warning", stderr.String())
	}

	toks, err := compiler.ReadTokenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == compiler.TokenSkip {
			found = true
		}
	}
	if !found {
		t.Error("skip token not written")
	}
}

func TestArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err == nil {
		t.Error("run without a source file succeeded")
	}
	if err := run([]string{filepath.Join(t.TempDir(), "missing.pl0")}, &stdout, &stderr); err == nil {
		t.Error("run with a missing source file succeeded")
	}
}
