package vm

import (
	"context"
	"fmt"
)

// ---------------------------------------------------------------------------
// Interpreter: fetch, decode, execute
// ---------------------------------------------------------------------------

// Run executes instructions until the program halts, fails, or ctx is
// cancelled.
func (m *Machine) Run(ctx context.Context) error {
	if m.tracer != nil {
		m.tracer.Start(m)
	}
	for !m.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return &RuntimeError{PC: m.pc, Index: m.Index(), Instr: m.fetch(), Err: ErrStepLimit}
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	log.Debugf("halted after %d steps", m.steps)
	return nil
}

// Step executes exactly one instruction.
func (m *Machine) Step() error {
	pc, index := m.pc, m.Index()
	if err := m.checkPC(); err != nil {
		return &RuntimeError{PC: pc, Index: index, Err: err}
	}
	in := m.fetch()
	if err := m.execute(in); err != nil {
		return &RuntimeError{PC: pc, Index: index, Instr: in, Err: err}
	}
	m.pc -= InstructionWidth
	m.steps++
	if m.profiler != nil {
		m.profiler.Record(index, in)
	}
	if m.tracer != nil {
		m.tracer.Record(m, in)
	}
	return nil
}

func (m *Machine) fetch() Instruction {
	if m.pc-2 < 0 || m.pc >= len(m.mem) {
		return Instruction{}
	}
	return Instruction{Op: Opcode(m.mem[m.pc]), L: m.mem[m.pc-1], M: m.mem[m.pc-2]}
}

// checkPC ensures the program counter sits on an instruction boundary inside
// the code region.
func (m *Machine) checkPC() error {
	if m.pc < m.codeBase || m.pc >= len(m.mem) || (len(m.mem)-1-m.pc)%InstructionWidth != 0 {
		return invalidf("program counter %d outside code", m.pc)
	}
	return nil
}

func (m *Machine) execute(in Instruction) error {
	switch in.Op {
	case OpLIT:
		return m.push(in.M)

	case OpOPR:
		return m.operate(in.M)

	case OpLOD:
		addr, err := m.frameWord(in.L, in.M)
		if err != nil {
			return err
		}
		return m.push(m.mem[addr])

	case OpSTO:
		addr, err := m.frameWord(in.L, in.M)
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.mem[addr] = v
		return nil

	case OpCAL:
		target, err := m.target(in.M)
		if err != nil {
			return err
		}
		link, err := m.base(in.L)
		if err != nil {
			return err
		}
		if m.sp-InstructionWidth < 0 {
			return ErrStackOverflow
		}
		// Header: static link, dynamic link, then the return continuation,
		// which points at the instruction after this CAL.
		m.mem[m.sp-1] = link
		m.mem[m.sp-2] = m.bp
		m.mem[m.sp-3] = m.pc - InstructionWidth
		m.sp -= InstructionWidth
		m.bp = m.sp + 2
		m.frames = append(m.frames, m.bp)
		m.pc = target
		return nil

	case OpINC:
		if in.M < 0 {
			return invalidf("INC %d", in.M)
		}
		if m.sp-in.M < 0 {
			return ErrStackOverflow
		}
		m.sp -= in.M
		return nil

	case OpJMP:
		target, err := m.target(in.M)
		if err != nil {
			return err
		}
		m.pc = target
		return nil

	case OpJPC:
		target, err := m.target(in.M)
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			m.pc = target
		}
		return nil

	case OpSYS:
		return m.syscall(in.M)
	}
	return invalidf("opcode %d", int(in.Op))
}

func (m *Machine) operate(sel int) error {
	switch sel {
	case OprRTN:
		return m.ret()

	case OprEVEN:
		if m.sp >= m.codeBase {
			return ErrStackUnderflow
		}
		if m.mem[m.sp]%2 == 0 {
			m.mem[m.sp] = 1
		} else {
			m.mem[m.sp] = 0
		}
		return nil

	case OprADD, OprSUB, OprMUL, OprDIV,
		OprEQL, OprNEQ, OprLSS, OprLEQ, OprGTR, OprGEQ:
		top, err := m.pop()
		if err != nil {
			return err
		}
		second, err := m.pop()
		if err != nil {
			return err
		}
		result, err := binary(sel, second, top)
		if err != nil {
			return err
		}
		return m.push(result)
	}
	return invalidf("OPR selector %d", sel)
}

// binary applies an arithmetic or relational OPR to second (the deeper
// operand) and top.
func binary(sel, second, top int) (int, error) {
	switch sel {
	case OprADD:
		return second + top, nil
	case OprSUB:
		return second - top, nil
	case OprMUL:
		return second * top, nil
	case OprDIV:
		if top == 0 {
			return 0, ErrDivisionByZero
		}
		return second / top, nil
	case OprEQL:
		return truth(second == top), nil
	case OprNEQ:
		return truth(second != top), nil
	case OprLSS:
		return truth(second < top), nil
	case OprLEQ:
		return truth(second <= top), nil
	case OprGTR:
		return truth(second > top), nil
	case OprGEQ:
		return truth(second >= top), nil
	}
	return 0, invalidf("OPR selector %d", sel)
}

func truth(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ret pops the current activation record. Returning from the outermost
// frame stops the machine.
func (m *Machine) ret() error {
	if len(m.frames) <= 1 {
		m.frames = m.frames[:0]
		m.sp = m.bp + 1
		m.pc = m.bp
		return nil
	}
	base := m.bp
	m.sp = base + 1
	m.pc = m.mem[base-2] + InstructionWidth
	m.bp = m.mem[base-1]
	m.frames = m.frames[:len(m.frames)-1]
	return nil
}

func (m *Machine) syscall(sel int) error {
	switch sel {
	case SysOUT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		return m.console.WriteInt(v)

	case SysREAD:
		v, err := m.console.ReadInt()
		if err != nil {
			return err
		}
		return m.push(v)

	case SysHALT:
		m.pc = m.bp
		return nil
	}
	return invalidf("SYS selector %d", sel)
}

// ---------------------------------------------------------------------------
// Stack and frame helpers
// ---------------------------------------------------------------------------

func (m *Machine) push(v int) error {
	if m.sp-1 < 0 {
		return ErrStackOverflow
	}
	m.sp--
	m.mem[m.sp] = v
	return nil
}

func (m *Machine) pop() (int, error) {
	if m.sp >= m.codeBase {
		return 0, ErrStackUnderflow
	}
	v := m.mem[m.sp]
	m.mem[m.sp] = 0
	m.sp++
	return v, nil
}

// base follows l static links from the current frame. The chain ends at the
// outermost frame.
func (m *Machine) base(l int) (int, error) {
	if l < 0 {
		return 0, invalidf("negative level %d", l)
	}
	b := m.bp
	for ; l > 0 && b != m.mainBase; l-- {
		b = m.mem[b]
		if b < 0 || b >= m.codeBase {
			return 0, invalidf("static link %d outside stack", b)
		}
	}
	return b, nil
}

// frameWord resolves the address of word offset in the frame l levels up.
func (m *Machine) frameWord(l, offset int) (int, error) {
	b, err := m.base(l)
	if err != nil {
		return 0, err
	}
	addr := b - offset
	if offset < 0 || addr < 0 {
		return 0, invalidf("frame offset %d", offset)
	}
	return addr, nil
}

// target validates a code address operand and translates it to a program
// counter value.
func (m *Machine) target(operand int) (int, error) {
	index, ok := InstructionIndex(operand)
	if !ok || index >= m.count {
		return 0, invalidf("code address %d outside program of %d instructions", operand, m.count)
	}
	return PhysicalAddress(len(m.mem), operand), nil
}

// String summarises the registers, for diagnostics.
func (m *Machine) String() string {
	return fmt.Sprintf("pc=%d bp=%d sp=%d", m.pc, m.bp, m.sp)
}
