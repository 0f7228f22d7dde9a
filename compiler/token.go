package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the PL/0 scanner
// ---------------------------------------------------------------------------

// TokenKind classifies a token. The numeric values are the token file
// encoding shared with external scanners.
type TokenKind int

const (
	TokenEOF TokenKind = iota // end of input; never written to token files

	TokenSkip      // lexical error signalled by the scanner
	TokenIdent     // identifier, Text holds the name
	TokenNumber    // number literal, Text holds the digits
	TokenPlus      // +
	TokenMinus     // -
	TokenMult      // *
	TokenSlash     // /
	TokenEql       // =
	TokenNeq       // <>
	TokenLss       // <
	TokenLeq       // <=
	TokenGtr       // >
	TokenGeq       // >=
	TokenLParen    // (
	TokenRParen    // )
	TokenComma     // ,
	TokenSemicolon // ;
	TokenPeriod    // .
	TokenBecomes   // :=
	TokenBegin
	TokenEnd
	TokenIf
	TokenFi
	TokenThen
	TokenWhile
	TokenDo
	TokenCall
	TokenConst
	TokenVar
	TokenProcedure
	TokenWrite
	TokenRead
	TokenElse
	TokenEven
)

// MaxTextLen bounds the text of identifier and number tokens.
const MaxTextLen = 10

var tokenNames = map[TokenKind]string{
	TokenEOF:       "EOF",
	TokenSkip:      "SKIP",
	TokenIdent:     "IDENT",
	TokenNumber:    "NUMBER",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenMult:      "*",
	TokenSlash:     "/",
	TokenEql:       "=",
	TokenNeq:       "<>",
	TokenLss:       "<",
	TokenLeq:       "<=",
	TokenGtr:       ">",
	TokenGeq:       ">=",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenComma:     ",",
	TokenSemicolon: ";",
	TokenPeriod:    ".",
	TokenBecomes:   ":=",
	TokenBegin:     "begin",
	TokenEnd:       "end",
	TokenIf:        "if",
	TokenFi:        "fi",
	TokenThen:      "then",
	TokenWhile:     "while",
	TokenDo:        "do",
	TokenCall:      "call",
	TokenConst:     "const",
	TokenVar:       "var",
	TokenProcedure: "procedure",
	TokenWrite:     "write",
	TokenRead:      "read",
	TokenElse:      "else",
	TokenEven:      "even",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Valid reports whether k is a token file value (anything but EOF).
func (k TokenKind) Valid() bool {
	return k >= TokenSkip && k <= TokenEven
}

// HasText reports whether tokens of this kind carry text.
func (k TokenKind) HasText() bool {
	return k == TokenIdent || k == TokenNumber
}

// Reserved words mapped to their token kinds.
var reservedWords = map[string]TokenKind{
	"const":     TokenConst,
	"var":       TokenVar,
	"procedure": TokenProcedure,
	"call":      TokenCall,
	"begin":     TokenBegin,
	"end":       TokenEnd,
	"if":        TokenIf,
	"fi":        TokenFi,
	"then":      TokenThen,
	"else":      TokenElse,
	"while":     TokenWhile,
	"do":        TokenDo,
	"read":      TokenRead,
	"write":     TokenWrite,
	"even":      TokenEven,
}

// Keywords returns the reserved words of the language.
func Keywords() []string {
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	return words
}

// Position is a location in source text. The zero Position means unknown,
// as for tokens read from a token file.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
}

// IsValid reports whether the position is known.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical unit.
type Token struct {
	Kind TokenKind
	Text string   // identifier name or number digits; scanner message for TokenSkip
	Pos  Position // start position
}

func (t Token) String() string {
	if t.Kind.HasText() {
		return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
	}
	return t.Kind.String()
}
