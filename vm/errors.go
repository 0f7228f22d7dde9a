package vm

import (
	"errors"
	"fmt"
)

// Runtime failures. Each is fatal to the run that raised it; the machine
// wraps them in a *RuntimeError identifying the faulting instruction.
var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrProgramTooLarge    = errors.New("program does not fit in memory")
	ErrInput              = errors.New("invalid input")
	ErrStepLimit          = errors.New("step limit exceeded")
)

// RuntimeError reports a failure while executing one instruction.
type RuntimeError struct {
	PC    int         // physical address of the instruction
	Index int         // logical instruction index
	Instr Instruction // the decoded instruction
	Err   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Error: %v (instruction %d: %s)", e.Err, e.Index, e.Instr)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInstruction, fmt.Sprintf(format, args...))
}
