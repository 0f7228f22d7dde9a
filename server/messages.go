package server

import (
	"github.com/chazu/pl0/compiler"
	"github.com/chazu/pl0/vm"
)

// ---------------------------------------------------------------------------
// pl0.v1 message types
// ---------------------------------------------------------------------------

// Instruction is the JSON form of one PM/0 instruction.
type Instruction struct {
	Op int `json:"op"`
	L  int `json:"l"`
	M  int `json:"m"`
}

// Symbol is the JSON form of one symbol table entry.
type Symbol struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Value   int    `json:"value"`
	Level   int    `json:"level"`
	Address int    `json:"address"`
	Used    bool   `json:"used"`
}

// CompileRequest asks for PL/0 source to be compiled.
type CompileRequest struct {
	Source string `json:"source"`
}

// CompileResponse carries the compiled program or the compile error.
type CompileResponse struct {
	Success bool          `json:"success"`
	Code    []Instruction `json:"code,omitempty"`
	Listing string        `json:"listing,omitempty"`
	Symbols []Symbol      `json:"symbols,omitempty"`
	Error   string        `json:"error,omitempty"`
	Line    int           `json:"line,omitempty"`
	Column  int           `json:"column,omitempty"`
}

// RunRequest asks for a program to be executed. Source is compiled first;
// otherwise Code is run as given.
type RunRequest struct {
	Source string        `json:"source,omitempty"`
	Code   []Instruction `json:"code,omitempty"`
	Input  []int         `json:"input,omitempty"`
}

// RunResponse reports what the program wrote and how it ended.
type RunResponse struct {
	Success bool   `json:"success"`
	Output  []int  `json:"output"`
	Steps   int    `json:"steps"`
	Error   string `json:"error,omitempty"`
}

func toInstructions(p vm.Program) []Instruction {
	out := make([]Instruction, len(p))
	for i, in := range p {
		out[i] = Instruction{Op: int(in.Op), L: in.L, M: in.M}
	}
	return out
}

func fromInstructions(code []Instruction) vm.Program {
	p := make(vm.Program, len(code))
	for i, in := range code {
		p[i] = vm.Instruction{Op: vm.Opcode(in.Op), L: in.L, M: in.M}
	}
	return p
}

func toSymbols(t *compiler.SymbolTable) []Symbol {
	if t == nil {
		return nil
	}
	entries := t.Entries()
	out := make([]Symbol, len(entries))
	for i, sym := range entries {
		out[i] = Symbol{
			Kind:    sym.Kind.String(),
			Name:    sym.Name,
			Value:   sym.Value,
			Level:   sym.Level,
			Address: sym.Address,
			Used:    sym.Used,
		}
	}
	return out
}
