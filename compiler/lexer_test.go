package compiler

import (
	"strings"
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `+ - * / = <> < <= > >= ( ) , ; . :=`
	expected := []TokenKind{
		TokenPlus, TokenMinus, TokenMult, TokenSlash,
		TokenEql, TokenNeq, TokenLss, TokenLeq, TokenGtr, TokenGeq,
		TokenLParen, TokenRParen, TokenComma, TokenSemicolon, TokenPeriod,
		TokenBecomes, TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Kind != want {
			t.Errorf("token[%d] kind = %v, want %v", i, tok.Kind, want)
		}
	}
}

func TestLexerAdjacentOperators(t *testing.T) {
	toks := NewLexer("x:=y<=3").Tokens()
	want := []TokenKind{TokenIdent, TokenBecomes, TokenIdent, TokenLeq, TokenNumber}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	for word, kind := range reservedWords {
		tok := NewLexer(word).NextToken()
		if tok.Kind != kind {
			t.Errorf("Lexer(%q): kind = %v, want %v", word, tok.Kind, kind)
		}
		if tok.Text != "" {
			t.Errorf("Lexer(%q): text = %q, want empty", word, tok.Text)
		}
	}
	if got := len(Keywords()); got != len(reservedWords) {
		t.Errorf("Keywords() returned %d words, want %d", got, len(reservedWords))
	}
}

func TestLexerIdentifiersAndNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
		text  string
	}{
		{"x", TokenIdent, "x"},
		{"counter1", TokenIdent, "counter1"},
		{"abcdefghij", TokenIdent, "abcdefghij"},
		{"Begin", TokenIdent, "Begin"},
		{"evens", TokenIdent, "evens"},
		{"0", TokenNumber, "0"},
		{"42", TokenNumber, "42"},
		{"1234567890", TokenNumber, "1234567890"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Kind != tc.kind {
			t.Errorf("Lexer(%q): kind = %v, want %v", tc.input, tok.Kind, tc.kind)
		}
		if tok.Text != tc.text {
			t.Errorf("Lexer(%q): text = %q, want %q", tc.input, tok.Text, tc.text)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abcdefghijk", "longer than 10"},
		{"12345678901", "longer than 10"},
		{"3abc", "starts with a digit"},
		{"x # y", "invalid symbol"},
		{":", "invalid symbol"},
		{"/* never closed", "unterminated comment"},
	}

	for _, tc := range tests {
		var found *Token
		for _, tok := range NewLexer(tc.input).Tokens() {
			if tok.Kind == TokenSkip {
				tok := tok
				found = &tok
				break
			}
		}
		if found == nil {
			t.Errorf("Lexer(%q): no skip token", tc.input)
			continue
		}
		if !strings.Contains(found.Text, tc.want) {
			t.Errorf("Lexer(%q): message = %q, want it to contain %q", tc.input, found.Text, tc.want)
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := `/* header */ var /* inline * / still comment */ x; /**/`
	toks := NewLexer(input).Tokens()
	want := []TokenKind{TokenVar, TokenIdent, TokenSemicolon}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want kinds %v", toks, want)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token[%d] = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	input := "var x;\n  x := 1"
	want := []Position{{1, 1}, {1, 5}, {1, 6}, {2, 3}, {2, 5}, {2, 8}}
	toks := NewLexer(input).Tokens()
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, pos := range want {
		if toks[i].Pos != pos {
			t.Errorf("token[%d] %v at %v, want %v", i, toks[i], toks[i].Pos, pos)
		}
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("x")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Kind != TokenEOF {
			t.Fatalf("call %d after end: got %v, want EOF", i, tok)
		}
	}
}

func TestTokenKindWireValues(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want int
	}{
		{TokenSkip, 1},
		{TokenIdent, 2},
		{TokenNumber, 3},
		{TokenBecomes, 19},
		{TokenBegin, 20},
		{TokenFi, 23},
		{TokenProcedure, 30},
		{TokenElse, 33},
		{TokenEven, 34},
	}
	for _, tc := range tests {
		if int(tc.kind) != tc.want {
			t.Errorf("%v = %d, want %d", tc.kind, int(tc.kind), tc.want)
		}
	}
	if TokenEOF.Valid() {
		t.Error("EOF must not be a wire value")
	}
}
