package compiler

import "fmt"

// ErrorKind classifies compile failures.
type ErrorKind int

const (
	LexicalError  ErrorKind = iota + 1 // the scanner rejected the input
	SyntaxError                        // an expected token is missing
	SemanticError                      // a name is undeclared, redeclared or used as the wrong kind
	ResourceError                      // a fixed capacity was exceeded
)

func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical"
	case SyntaxError:
		return "syntax"
	case SemanticError:
		return "semantic"
	case ResourceError:
		return "resource"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a fatal compile error. Compilation stops at the first one.
type Error struct {
	Kind ErrorKind
	Pos  Position // position of the offending token, zero if unknown
	Msg  string
}

// Error returns the user-facing message, which is also what the compiler
// writes into the output file.
func (e *Error) Error() string {
	return "Error: " + e.Msg
}

func errorAt(kind ErrorKind, tok Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}
