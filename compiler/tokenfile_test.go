package compiler

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTokens(t *testing.T) {
	// var x; begin x := 7 end.
	input := "29 2 x 17\n20 2 x 19 3 7 21 18\n"
	toks, err := ReadTokens(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTokens: %v", err)
	}
	want := []Token{
		{Kind: TokenVar},
		{Kind: TokenIdent, Text: "x"},
		{Kind: TokenSemicolon},
		{Kind: TokenBegin},
		{Kind: TokenIdent, Text: "x"},
		{Kind: TokenBecomes},
		{Kind: TokenNumber, Text: "7"},
		{Kind: TokenEnd},
		{Kind: TokenPeriod},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token[%d] = %+v, want %+v", i, toks[i], want[i])
		}
	}
}

func TestReadTokensErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a number", "29 x"},
		{"unknown kind", "29 99"},
		{"zero kind", "0"},
		{"missing text", "29 2"},
		{"text too long", "2 abcdefghijk"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTokens(strings.NewReader(tc.input))
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if cerr.Kind != LexicalError {
				t.Errorf("kind = %v, want lexical", cerr.Kind)
			}
		})
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	src := `const n = 3;
var i;
begin
  i := 0;
  while i < n do begin write i; i := i + 1 end
end.`
	toks := NewLexer(src).Tokens()

	path := filepath.Join(t.TempDir(), DefaultTokenFile)
	if err := WriteTokenFile(path, toks); err != nil {
		t.Fatalf("WriteTokenFile: %v", err)
	}
	got, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile: %v", err)
	}
	if len(got) != len(toks) {
		t.Fatalf("got %d tokens, want %d", len(got), len(toks))
	}
	for i := range toks {
		if got[i].Kind != toks[i].Kind || got[i].Text != toks[i].Text {
			t.Errorf("token[%d] = %v, want %v", i, got[i], toks[i])
		}
	}
}

func TestWriteTokensSkipHasNoText(t *testing.T) {
	var buf bytes.Buffer
	toks := []Token{{Kind: TokenVar}, {Kind: TokenSkip, Text: "invalid symbol '#'"}}
	if err := WriteTokens(&buf, toks); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "29 1\n" {
		t.Errorf("WriteTokens = %q, want %q", got, "29 1\n")
	}
}
