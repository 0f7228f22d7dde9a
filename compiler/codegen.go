package compiler

import (
	"github.com/chazu/pl0/vm"
)

// ---------------------------------------------------------------------------
// Codegen: statements, conditions and expressions
// ---------------------------------------------------------------------------

var relationalOps = map[TokenKind]int{
	TokenEql: vm.OprEQL,
	TokenNeq: vm.OprNEQ,
	TokenLss: vm.OprLSS,
	TokenLeq: vm.OprLEQ,
	TokenGtr: vm.OprGTR,
	TokenGeq: vm.OprGEQ,
}

// statement compiles one statement. Anything that does not start a
// statement is the empty statement.
func (c *Compiler) statement() error {
	switch c.tok.Kind {
	case TokenIdent:
		return c.assignment()
	case TokenCall:
		return c.callStatement()
	case TokenBegin:
		return c.compound()
	case TokenIf:
		return c.ifStatement()
	case TokenWhile:
		return c.whileStatement()
	case TokenRead:
		return c.readStatement()
	case TokenWrite:
		return c.writeStatement()
	}
	return nil
}

// assignment := ident ':=' expression
func (c *Compiler) assignment() error {
	name := c.tok
	sym, err := c.resolve()
	if err != nil {
		return err
	}
	if sym.Kind != Variable {
		return c.semanticError(name, "only variable values may be altered")
	}
	l := c.levelDiff(sym)
	c.next()
	if err := c.expect(TokenBecomes, "assignment statements must use :="); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	c.code.Emit(vm.OpSTO, l, sym.Address)
	return nil
}

// callStatement := 'call' ident
func (c *Compiler) callStatement() error {
	c.next()
	if !c.at(TokenIdent) {
		return c.syntaxError(msgIdentAfterProc)
	}
	name := c.tok
	sym, err := c.resolve()
	if err != nil {
		return err
	}
	if sym.Kind != Procedure {
		return c.semanticError(name, "call statement may only target procedures")
	}
	l := c.levelDiff(sym)
	c.code.Emit(vm.OpCAL, l, vm.CodeAddress(sym.Address))
	c.next()
	return nil
}

// compound := 'begin' statement {';' statement} 'end'
func (c *Compiler) compound() error {
	c.next()
	if err := c.statement(); err != nil {
		return err
	}
	for c.at(TokenSemicolon) {
		c.next()
		if err := c.statement(); err != nil {
			return err
		}
	}
	return c.expect(TokenEnd, "begin must be followed by end")
}

// ifStatement := 'if' condition 'then' statement ['else' statement] 'fi'
func (c *Compiler) ifStatement() error {
	c.next()
	if err := c.condition(); err != nil {
		return err
	}
	if err := c.expect(TokenThen, "if must be followed by then"); err != nil {
		return err
	}
	skipThen := c.code.EmitJump(vm.OpJPC)
	if err := c.statement(); err != nil {
		return err
	}

	if !c.at(TokenElse) {
		c.code.PatchJump(skipThen)
		return c.expect(TokenFi, "if statement must end with fi")
	}

	skipElse := c.code.EmitJump(vm.OpJMP)
	c.code.PatchJump(skipThen)
	c.next()
	if err := c.statement(); err != nil {
		return err
	}
	c.code.PatchJump(skipElse)
	return c.expect(TokenFi, "else must be followed by fi")
}

// whileStatement := 'while' condition 'do' statement
func (c *Compiler) whileStatement() error {
	c.next()
	loop := c.code.Len()
	if err := c.condition(); err != nil {
		return err
	}
	if err := c.expect(TokenDo, "while must be followed by do"); err != nil {
		return err
	}
	exit := c.code.EmitJump(vm.OpJPC)
	if err := c.statement(); err != nil {
		return err
	}
	c.code.EmitJumpTo(vm.OpJMP, loop)
	c.code.PatchJump(exit)
	return nil
}

// readStatement := 'read' ident
func (c *Compiler) readStatement() error {
	c.next()
	if !c.at(TokenIdent) {
		return c.syntaxError(msgIdentAfterDecl)
	}
	name := c.tok
	sym, err := c.resolve()
	if err != nil {
		return err
	}
	if sym.Kind != Variable {
		return c.semanticError(name, "only variable values may be altered")
	}
	l := c.levelDiff(sym)
	c.code.Emit(vm.OpSYS, 0, vm.SysREAD)
	c.code.Emit(vm.OpSTO, l, sym.Address)
	c.next()
	return nil
}

// writeStatement := 'write' expression
func (c *Compiler) writeStatement() error {
	c.next()
	if err := c.expression(); err != nil {
		return err
	}
	c.code.Emit(vm.OpSYS, 0, vm.SysOUT)
	return nil
}

// condition := 'even' expression | expression relop expression
func (c *Compiler) condition() error {
	if c.at(TokenEven) {
		c.next()
		if err := c.expression(); err != nil {
			return err
		}
		c.code.Emit(vm.OpOPR, 0, vm.OprEVEN)
		return nil
	}

	if err := c.expression(); err != nil {
		return err
	}
	op, ok := relationalOps[c.tok.Kind]
	if !ok {
		return c.syntaxError("condition must contain comparison operator")
	}
	c.next()
	if err := c.expression(); err != nil {
		return err
	}
	c.code.Emit(vm.OpOPR, 0, op)
	return nil
}

// expression := term {('+'|'-') term}
func (c *Compiler) expression() error {
	if err := c.term(); err != nil {
		return err
	}
	for c.at(TokenPlus) || c.at(TokenMinus) {
		op := vm.OprADD
		if c.at(TokenMinus) {
			op = vm.OprSUB
		}
		c.next()
		if err := c.term(); err != nil {
			return err
		}
		c.code.Emit(vm.OpOPR, 0, op)
	}
	return nil
}

// term := factor {('*'|'/') factor}
func (c *Compiler) term() error {
	if err := c.factor(); err != nil {
		return err
	}
	for c.at(TokenMult) || c.at(TokenSlash) {
		op := vm.OprMUL
		if c.at(TokenSlash) {
			op = vm.OprDIV
		}
		c.next()
		if err := c.factor(); err != nil {
			return err
		}
		c.code.Emit(vm.OpOPR, 0, op)
	}
	return nil
}

// factor := ident | number | '(' expression ')'
func (c *Compiler) factor() error {
	switch c.tok.Kind {
	case TokenIdent:
		name := c.tok
		sym, err := c.resolve()
		if err != nil {
			return err
		}
		switch sym.Kind {
		case Constant:
			c.code.Emit(vm.OpLIT, 0, sym.Value)
		case Variable:
			l := c.levelDiff(sym)
			c.code.Emit(vm.OpLOD, l, sym.Address)
		default:
			return c.semanticError(name, "procedure names are not values")
		}
		c.next()
		return nil

	case TokenNumber:
		v, err := c.number()
		if err != nil {
			return err
		}
		c.code.Emit(vm.OpLIT, 0, v)
		c.next()
		return nil

	case TokenLParen:
		c.next()
		if err := c.expression(); err != nil {
			return err
		}
		return c.expect(TokenRParen, "right parenthesis must follow left parenthesis")
	}
	return c.syntaxError("arithmetic equations must contain operands, parentheses, numbers, or symbols")
}
