package vm

import (
	"bufio"
	"fmt"
	"io"
)

// Tracer prints one line per executed instruction: mnemonic, operands,
// registers after execution, and the live stack with "|" marking the start
// of each nested activation record.
type Tracer struct {
	w   *bufio.Writer
	err error
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: bufio.NewWriter(w)}
}

// Start prints the column header and the initial register values.
func (t *Tracer) Start(m *Machine) {
	t.printf("\tL\tM\tPC\tBP\tSP\tstack\n")
	t.printf("Initial values: \t%d\t%d\t%d\n", m.pc, m.bp, m.sp)
	t.flush()
}

// Record prints the state after in has executed.
func (t *Tracer) Record(m *Machine, in Instruction) {
	t.printf("%s\t%d\t%d\t%d\t%d\t%d\t", in.Mnemonic(), in.L, in.M, m.pc, m.bp, m.sp)
	for i := m.mainBase; i >= m.sp && i >= 0; i-- {
		for _, b := range m.frames[min(1, len(m.frames)):] {
			if i == b {
				t.printf("  |")
			}
		}
		t.printf("%5d", m.mem[i])
	}
	t.printf("\n")
	// Program output shares the terminal, so keep the trace in step with it.
	t.flush()
}

// Err returns the first write error, if any.
func (t *Tracer) Err() error {
	return t.err
}

func (t *Tracer) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *Tracer) flush() {
	if t.err == nil {
		t.err = t.w.Flush()
	}
}
