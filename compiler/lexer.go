package compiler

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for PL/0 source
// ---------------------------------------------------------------------------

// Lexer tokenizes PL/0 source text. Problems are reported in-band as
// TokenSkip tokens whose Text describes the error, which is how the token
// file contract signals a lexical error to the compiler.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.col}
}

// NextToken returns the next token. At end of input it returns TokenEOF
// indefinitely.
func (l *Lexer) NextToken() Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	pos := l.position()
	if l.ch == 0 && l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Pos: pos}
	}

	switch {
	case isLetter(l.ch):
		return l.readWord(pos)
	case isDigit(l.ch):
		return l.readNumber(pos)
	}

	ch := l.ch
	l.readChar()
	simple := func(k TokenKind) Token { return Token{Kind: k, Pos: pos} }

	switch ch {
	case '+':
		return simple(TokenPlus)
	case '-':
		return simple(TokenMinus)
	case '*':
		return simple(TokenMult)
	case '/':
		return simple(TokenSlash)
	case '=':
		return simple(TokenEql)
	case '(':
		return simple(TokenLParen)
	case ')':
		return simple(TokenRParen)
	case ',':
		return simple(TokenComma)
	case ';':
		return simple(TokenSemicolon)
	case '.':
		return simple(TokenPeriod)
	case '<':
		switch l.ch {
		case '>':
			l.readChar()
			return simple(TokenNeq)
		case '=':
			l.readChar()
			return simple(TokenLeq)
		}
		return simple(TokenLss)
	case '>':
		if l.ch == '=' {
			l.readChar()
			return simple(TokenGeq)
		}
		return simple(TokenGtr)
	case ':':
		if l.ch == '=' {
			l.readChar()
			return simple(TokenBecomes)
		}
	}
	return Token{Kind: TokenSkip, Text: fmt.Sprintf("invalid symbol %q", ch), Pos: pos}
}

// Tokens scans the whole input. The EOF token is not included.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// skipWhitespaceAndComments skips whitespace and /* */ comments. It returns
// false and a skip token when a comment is left open.
func (l *Lexer) skipWhitespaceAndComments() (Token, bool) {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.position()
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.ch == 0 && l.pos >= len(l.input) {
					return Token{Kind: TokenSkip, Text: "unterminated comment", Pos: pos}, false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
			continue
		}
		return Token{}, true
	}
}

// readWord reads an identifier or reserved word.
func (l *Lexer) readWord(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.pos]
	if kind, ok := reservedWords[word]; ok {
		return Token{Kind: kind, Pos: pos}
	}
	if len(word) > MaxTextLen {
		return Token{Kind: TokenSkip, Text: fmt.Sprintf("identifier %q is longer than %d characters", word, MaxTextLen), Pos: pos}
	}
	return Token{Kind: TokenIdent, Text: word, Pos: pos}
}

// readNumber reads a decimal literal. A letter directly after the digits
// makes the whole run invalid.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if isLetter(l.ch) {
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return Token{Kind: TokenSkip, Text: fmt.Sprintf("identifier %q starts with a digit", l.input[start:l.pos]), Pos: pos}
	}
	digits := l.input[start:l.pos]
	if len(digits) > MaxTextLen {
		return Token{Kind: TokenSkip, Text: fmt.Sprintf("number %s is longer than %d digits", digits, MaxTextLen), Pos: pos}
	}
	return Token{Kind: TokenNumber, Text: digits, Pos: pos}
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
