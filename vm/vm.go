package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

// DefaultMemory is the default capacity of the machine's word array.
const DefaultMemory = 500

var log = commonlog.GetLogger("pl0.vm")

// ---------------------------------------------------------------------------
// Address translation
// ---------------------------------------------------------------------------

// PhysicalAddress converts a JMP/JPC/CAL operand into the program counter
// value a jump leaves behind, in a memory of the given capacity. The extra
// instruction width is consumed by the decrement that ends every cycle.
func PhysicalAddress(capacity, m int) int {
	return (capacity - 1 - m) + InstructionWidth
}

// LogicalAddress inverts PhysicalAddress.
func LogicalAddress(capacity, pc int) int {
	return capacity - 1 - (pc - InstructionWidth)
}

// ---------------------------------------------------------------------------
// Machine
// ---------------------------------------------------------------------------

// Machine is a PM/0 virtual machine. Code and stack share one word array:
// the program is loaded at the high end, three words per instruction growing
// downward, and the stack lives below it. Pushing decrements sp.
//
// A Machine runs one program once and is not safe for concurrent use.
type Machine struct {
	mem      []int
	codeBase int // lowest word index occupied by code
	count    int // number of loaded instructions

	pc int // physical address of the current instruction
	bp int // base of the current activation record (its static link word)
	sp int // top of stack

	mainBase int
	frames   []int // bases of live activation records, outermost first

	console  Console
	tracer   *Tracer
	profiler *Profiler
	maxSteps int
	steps    int
}

// Option configures a Machine.
type Option func(*config)

type config struct {
	memory   int
	console  Console
	trace    io.Writer
	profiler *Profiler
	maxSteps int
}

// WithMemory sets the capacity of the word array.
func WithMemory(words int) Option {
	return func(c *config) { c.memory = words }
}

// WithConsole sets the console used by SYS 1 and SYS 2.
func WithConsole(console Console) Option {
	return func(c *config) { c.console = console }
}

// WithTrace enables the execution trace, written to w.
func WithTrace(w io.Writer) Option {
	return func(c *config) { c.trace = w }
}

// WithProfiler records every executed instruction in p.
func WithProfiler(p *Profiler) Option {
	return func(c *config) { c.profiler = p }
}

// WithMaxSteps bounds the number of executed instructions. Zero means no
// limit.
func WithMaxSteps(n int) Option {
	return func(c *config) { c.maxSteps = n }
}

// New loads prog into a fresh machine.
func New(prog Program, opts ...Option) (*Machine, error) {
	cfg := &config{memory: DefaultMemory}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.console == nil {
		cfg.console = NewStdConsole(os.Stdin, os.Stdout)
	}

	if len(prog) == 0 {
		return nil, fmt.Errorf("%w: empty program", ErrMalformedProgram)
	}
	// The code plus the outermost frame header must fit.
	if prog.Words()+InstructionWidth > cfg.memory {
		return nil, fmt.Errorf("%w: %d instructions need %d words, memory holds %d",
			ErrProgramTooLarge, len(prog), prog.Words()+InstructionWidth, cfg.memory)
	}

	m := &Machine{
		mem:      make([]int, cfg.memory),
		count:    len(prog),
		console:  cfg.console,
		profiler: cfg.profiler,
		maxSteps: cfg.maxSteps,
	}

	// Each instruction is stored opcode, level, operand from the top down.
	addr := cfg.memory - 1
	for _, in := range prog {
		m.mem[addr] = int(in.Op)
		m.mem[addr-1] = in.L
		m.mem[addr-2] = in.M
		addr -= InstructionWidth
	}
	m.codeBase = addr + 1

	m.pc = cfg.memory - 1
	m.bp = addr
	m.sp = m.bp + 1
	m.mainBase = m.bp
	m.frames = []int{m.bp}

	if cfg.trace != nil {
		m.tracer = NewTracer(cfg.trace)
	}

	log.Debugf("loaded %d instructions into %d of %d words", len(prog), prog.Words(), cfg.memory)
	return m, nil
}

// Capacity returns the size of the word array.
func (m *Machine) Capacity() int {
	return len(m.mem)
}

// PC returns the program counter (a physical address).
func (m *Machine) PC() int { return m.pc }

// BP returns the base pointer.
func (m *Machine) BP() int { return m.bp }

// SP returns the stack pointer.
func (m *Machine) SP() int { return m.sp }

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int { return m.steps }

// Word returns the memory word at a physical address.
func (m *Machine) Word(addr int) int {
	return m.mem[addr]
}

// Frames returns the bases of the live activation records, outermost first.
func (m *Machine) Frames() []int {
	out := make([]int, len(m.frames))
	copy(out, m.frames)
	return out
}

// Stack returns the live stack words from the outermost frame base down to
// the top of stack.
func (m *Machine) Stack() []int {
	var out []int
	for i := m.mainBase; i >= m.sp && i >= 0; i-- {
		out = append(out, m.mem[i])
	}
	return out
}

// Done reports whether the machine has stopped: the halt syscall or a return
// from the outermost frame leaves the base pointer at or above the program
// counter.
func (m *Machine) Done() bool {
	return m.bp >= m.pc
}

// Current decodes the instruction the program counter points at, the one the
// next Step will execute.
func (m *Machine) Current() Instruction {
	return m.fetch()
}

// Index returns the logical instruction index the program counter points at.
func (m *Machine) Index() int {
	return (len(m.mem) - 1 - m.pc) / InstructionWidth
}
