package compiler

import (
	"strconv"

	"github.com/chazu/pl0/vm"
)

// ---------------------------------------------------------------------------
// Parser: program structure and declarations
// ---------------------------------------------------------------------------

const (
	msgIdentAfterDecl = "const, var, and read keywords must be followed by identifier"
	msgIdentAfterProc = "const, var, read, procedure, and call keywords must be followed by identifier"
	msgDeclSemicolon  = "constant and variable declarations must be followed by a semicolon"
)

// program := block '.'
func (c *Compiler) program() error {
	if err := c.block(); err != nil {
		return err
	}
	if !c.at(TokenPeriod) {
		return c.syntaxError("program must end with period")
	}
	c.next()
	c.code.Emit(vm.OpSYS, 0, vm.SysHALT)
	return nil
}

// block := constDecl? varDecl? procDecl* statement
//
// The block's first instruction jumps over the code of its nested procedures
// to the INC that allocates its frame.
func (c *Compiler) block() error {
	jump := c.code.EmitJump(vm.OpJMP)

	if c.at(TokenConst) {
		if err := c.constDecl(); err != nil {
			return err
		}
	}
	nvars := 0
	if c.at(TokenVar) {
		n, err := c.varDecl()
		if err != nil {
			return err
		}
		nvars = n
	}
	for c.at(TokenProcedure) {
		if err := c.procDecl(); err != nil {
			return err
		}
	}

	c.code.PatchJump(jump)
	c.code.Emit(vm.OpINC, 0, vm.InstructionWidth+nvars)
	return c.statement()
}

// constDecl := 'const' ident '=' number {',' ident '=' number} ';'
func (c *Compiler) constDecl() error {
	for {
		c.next() // const or ,
		if !c.at(TokenIdent) {
			return c.syntaxError(msgIdentAfterDecl)
		}
		name := c.tok
		if _, ok := c.symbols.Lookup(name.Text); ok {
			return c.semanticError(name, "symbol name has already been declared")
		}
		c.next()
		if !c.at(TokenEql) {
			return c.syntaxError("constants must be assigned with =")
		}
		c.next()
		if !c.at(TokenNumber) {
			return c.syntaxError("constants must be assigned an integer value")
		}
		value, err := c.number()
		if err != nil {
			return err
		}
		if _, err := c.symbols.Declare(Symbol{
			Kind:  Constant,
			Name:  name.Text,
			Value: value,
			Level: c.level,
			Pos:   name.Pos,
		}); err != nil {
			return err
		}
		c.next()
		if !c.at(TokenComma) {
			break
		}
	}
	return c.expect(TokenSemicolon, msgDeclSemicolon)
}

// varDecl := 'var' ident {',' ident} ';'
//
// It returns the number of variables declared.
func (c *Compiler) varDecl() (int, error) {
	n := 0
	for {
		c.next() // var or ,
		if !c.at(TokenIdent) {
			return n, c.syntaxError(msgIdentAfterDecl)
		}
		if _, err := c.symbols.Declare(Symbol{
			Kind:    Variable,
			Name:    c.tok.Text,
			Level:   c.level,
			Address: vm.InstructionWidth + n,
			Pos:     c.tok.Pos,
		}); err != nil {
			return n, err
		}
		n++
		c.next()
		if !c.at(TokenComma) {
			break
		}
	}
	return n, c.expect(TokenSemicolon, msgDeclSemicolon)
}

// procDecl := 'procedure' ident block ';'
func (c *Compiler) procDecl() error {
	c.next()
	if !c.at(TokenIdent) {
		return c.syntaxError(msgIdentAfterProc)
	}
	if _, err := c.symbols.Declare(Symbol{
		Kind:    Procedure,
		Name:    c.tok.Text,
		Level:   c.level,
		Address: c.code.Len(),
		Pos:     c.tok.Pos,
	}); err != nil {
		return err
	}
	c.next()

	c.level++
	err := c.block()
	c.level--
	if err != nil {
		return err
	}
	c.code.Emit(vm.OpOPR, 0, vm.OprRTN)

	return c.expect(TokenSemicolon, "procedure declaration must be followed by a semicolon")
}

// number converts the current number token.
func (c *Compiler) number() (int, error) {
	v, err := strconv.Atoi(c.tok.Text)
	if err != nil {
		return 0, errorAt(LexicalError, c.tok, "invalid number %q", c.tok.Text)
	}
	return v, nil
}

// resolve looks up the identifier under the cursor.
func (c *Compiler) resolve() (*Symbol, error) {
	sym, ok := c.symbols.Lookup(c.tok.Text)
	if !ok {
		return nil, c.semanticError(c.tok, "undeclared identifier")
	}
	return sym, nil
}

// levelDiff computes the L operand for a reference from the current level.
// Lookup is flat, so a name declared inside a procedure stays visible after
// it; such a reference from an outer level addresses the current frame.
func (c *Compiler) levelDiff(sym *Symbol) int {
	return max(c.level-sym.Level, 0)
}
