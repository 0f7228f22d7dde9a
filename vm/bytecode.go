package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents the operation field of a PM/0 instruction.
type Opcode int

const (
	OpLIT Opcode = 1 // push literal M
	OpOPR Opcode = 2 // arithmetic/relational/return, selected by M
	OpLOD Opcode = 3 // push word M of the frame L static links up
	OpSTO Opcode = 4 // pop into word M of the frame L static links up
	OpCAL Opcode = 5 // call procedure at code address M, static link L levels up
	OpINC Opcode = 6 // reserve M words for the new frame
	OpJMP Opcode = 7 // jump to code address M
	OpJPC Opcode = 8 // pop, jump to code address M if zero
	OpSYS Opcode = 9 // system call selected by M
)

// OPR sub-operations, carried in the M field.
const (
	OprRTN  = 0
	OprADD  = 1
	OprSUB  = 2
	OprMUL  = 3
	OprDIV  = 4
	OprEQL  = 5
	OprNEQ  = 6
	OprLSS  = 7
	OprLEQ  = 8
	OprGTR  = 9
	OprGEQ  = 10
	OprEVEN = 11
)

// SYS selectors, carried in the M field.
const (
	SysOUT  = 1 // pop and print
	SysREAD = 2 // read an integer and push it
	SysHALT = 3 // stop the machine
)

// InstructionWidth is the number of memory words one instruction occupies.
const InstructionWidth = 3

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name     string // mnemonic
	UsesL    bool   // the L field is meaningful
	CodeAddr bool   // M is a code address subject to address translation
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpLIT: {"LIT", false, false},
	OpOPR: {"OPR", false, false},
	OpLOD: {"LOD", true, false},
	OpSTO: {"STO", true, false},
	OpCAL: {"CAL", true, true},
	OpINC: {"INC", false, false},
	OpJMP: {"JMP", false, true},
	OpJPC: {"JPC", false, true},
	OpSYS: {"SYS", false, false},
}

var oprNames = []string{
	OprRTN:  "RTN",
	OprADD:  "ADD",
	OprSUB:  "SUB",
	OprMUL:  "MUL",
	OprDIV:  "DIV",
	OprEQL:  "EQL",
	OprNEQ:  "NEQ",
	OprLSS:  "LSS",
	OprLEQ:  "LEQ",
	OprGTR:  "GTR",
	OprGEQ:  "GEQ",
	OprEVEN: "EVEN",
}

var sysNames = []string{
	SysOUT:  "OUT",
	SysREAD: "READ",
	SysHALT: "HALT",
}

// Valid reports whether op is one of the nine defined opcodes.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("OP(%d)", int(op))}
}

// Name returns the mnemonic for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ParseOpcode maps a mnemonic (case-insensitive) back to its opcode.
func ParseOpcode(name string) (Opcode, bool) {
	name = strings.ToUpper(name)
	for op, info := range opcodeTable {
		if info.Name == name {
			return op, true
		}
	}
	return 0, false
}

// OprName returns the mnemonic of an OPR sub-operation.
func OprName(m int) string {
	if m >= 0 && m < len(oprNames) {
		return oprNames[m]
	}
	return fmt.Sprintf("OPR(%d)", m)
}

// SysName returns the mnemonic of a SYS selector.
func SysName(m int) string {
	if m > 0 && m < len(sysNames) {
		return sysNames[m]
	}
	return fmt.Sprintf("SYS(%d)", m)
}

// ---------------------------------------------------------------------------
// Instructions and programs
// ---------------------------------------------------------------------------

// Instruction is one PM/0 instruction: opcode, lexical level difference and
// an opcode-dependent operand.
type Instruction struct {
	Op Opcode
	L  int
	M  int
}

// Mnemonic returns the instruction's display name. OPR instructions are named
// by their sub-operation.
func (in Instruction) Mnemonic() string {
	if in.Op == OpOPR {
		return OprName(in.M)
	}
	return in.Op.Name()
}

func (in Instruction) String() string {
	return fmt.Sprintf("%s %d %d", in.Op.Name(), in.L, in.M)
}

// Program is an ordered list of instructions. The index of an instruction is
// its logical program counter value.
type Program []Instruction

// Len returns the number of instructions.
func (p Program) Len() int {
	return len(p)
}

// Words returns the number of memory words the program occupies once loaded.
func (p Program) Words() int {
	return len(p) * InstructionWidth
}

// CodeAddress converts an instruction index into the operand value used by
// JMP, JPC and CAL.
func CodeAddress(index int) int {
	return index * InstructionWidth
}

// InstructionIndex converts a JMP/JPC/CAL operand back to an instruction
// index. ok is false when m does not fall on an instruction boundary.
func InstructionIndex(m int) (index int, ok bool) {
	if m < 0 || m%InstructionWidth != 0 {
		return 0, false
	}
	return m / InstructionWidth, true
}

// ---------------------------------------------------------------------------
// Builder: Helper for constructing programs
// ---------------------------------------------------------------------------

// Builder appends instructions and patches forward jumps.
type Builder struct {
	code Program
}

// NewBuilder creates a new, empty builder.
func NewBuilder() *Builder {
	return &Builder{code: make(Program, 0, 64)}
}

// Program returns the instructions emitted so far.
func (b *Builder) Program() Program {
	return b.code
}

// Len returns the index the next emitted instruction will receive.
func (b *Builder) Len() int {
	return len(b.code)
}

// Emit appends an instruction and returns its index.
func (b *Builder) Emit(op Opcode, l, m int) int {
	b.code = append(b.code, Instruction{Op: op, L: l, M: m})
	return len(b.code) - 1
}

// EmitJump appends a jump with a placeholder target and returns its index
// for a later PatchJump.
func (b *Builder) EmitJump(op Opcode) int {
	return b.Emit(op, 0, 0)
}

// EmitJumpTo appends a jump to an already known instruction index.
func (b *Builder) EmitJumpTo(op Opcode, target int) int {
	return b.Emit(op, 0, CodeAddress(target))
}

// PatchJump points the jump at index at the next instruction to be emitted.
func (b *Builder) PatchJump(index int) {
	b.PatchJumpTo(index, len(b.code))
}

// PatchJumpTo points the jump at index at the given instruction index.
func (b *Builder) PatchJumpTo(index, target int) {
	b.code[index].M = CodeAddress(target)
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction formats one instruction with its index. Jump and
// call targets are annotated with the instruction index they resolve to.
func DisassembleInstruction(index int, in Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%4d  %-4s %d %d", index, in.Mnemonic(), in.L, in.M)
	switch {
	case in.Op.Info().CodeAddr:
		if target, ok := InstructionIndex(in.M); ok {
			fmt.Fprintf(&sb, " (-> %d)", target)
		}
	case in.Op == OpSYS:
		fmt.Fprintf(&sb, " ; %s", SysName(in.M))
	}
	return sb.String()
}

// Disassemble returns a full listing of a program, one instruction per line.
func Disassemble(p Program) string {
	lines := make([]string, len(p))
	for i, in := range p {
		lines[i] = DisassembleInstruction(i, in)
	}
	return strings.Join(lines, "\n")
}
