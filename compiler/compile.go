package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/vm"
)

var log = commonlog.GetLogger("pl0.compiler")

// Result is the output of a compilation.
type Result struct {
	Program vm.Program
	Symbols *SymbolTable
}

// Option configures a compilation.
type Option func(*Compiler)

// WithSymbolLimit overrides the symbol table capacity.
func WithSymbolLimit(n int) Option {
	return func(c *Compiler) { c.symbols.limit = n }
}

// Compiler holds the state of one compilation: the token cursor, the symbol
// table, the code being emitted and the current lexical level. A Compiler is
// used once; separate compilations share nothing.
type Compiler struct {
	tokens []Token
	pos    int
	tok    Token // current token, TokenEOF past the end

	symbols *SymbolTable
	code    *vm.Builder
	level   int
}

// NewCompiler creates a compiler over tokens.
func NewCompiler(tokens []Token, opts ...Option) *Compiler {
	c := &Compiler{
		tokens:  tokens,
		symbols: NewSymbolTable(),
		code:    vm.NewBuilder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pos = -1
	c.next()
	return c
}

// Compile translates one complete program. Compilation stops at the first
// error; the partial result is returned alongside it so callers can report
// what had been declared and emitted.
func Compile(tokens []Token, opts ...Option) (*Result, error) {
	return NewCompiler(tokens, opts...).Compile()
}

// CompileSource scans src and compiles the resulting tokens.
func CompileSource(src string, opts ...Option) (*Result, error) {
	return Compile(NewLexer(src).Tokens(), opts...)
}

// Compile runs the compiler.
func (c *Compiler) Compile() (*Result, error) {
	res := &Result{Symbols: c.symbols}
	for _, tok := range c.tokens {
		if tok.Kind == TokenSkip {
			msg := "Scanning error detected by lexer (skipsym present)"
			if tok.Text != "" {
				msg += ": " + tok.Text
			}
			return res, &Error{Kind: LexicalError, Pos: tok.Pos, Msg: msg}
		}
	}

	err := c.program()
	res.Program = c.code.Program()
	if err != nil {
		log.Debugf("compile failed after %d instructions: %v", len(res.Program), err)
		return res, err
	}
	log.Debugf("compiled %d tokens into %d instructions, %d symbols",
		len(c.tokens), len(res.Program), c.symbols.Len())
	return res, nil
}

// ---------------------------------------------------------------------------
// Token cursor
// ---------------------------------------------------------------------------

func (c *Compiler) next() {
	if c.pos < len(c.tokens) {
		c.pos++
	}
	if c.pos < len(c.tokens) {
		c.tok = c.tokens[c.pos]
		return
	}
	eof := Token{Kind: TokenEOF}
	if n := len(c.tokens); n > 0 {
		eof.Pos = c.tokens[n-1].Pos
	}
	c.tok = eof
}

func (c *Compiler) at(kind TokenKind) bool {
	return c.tok.Kind == kind
}

// expect consumes a token of the given kind or fails with msg.
func (c *Compiler) expect(kind TokenKind, msg string) error {
	if !c.at(kind) {
		return c.syntaxError(msg)
	}
	c.next()
	return nil
}

func (c *Compiler) syntaxError(msg string) *Error {
	return errorAt(SyntaxError, c.tok, "%s", msg)
}

func (c *Compiler) semanticError(tok Token, msg string) *Error {
	return errorAt(SemanticError, tok, "%s", msg)
}
