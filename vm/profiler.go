package vm

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Profiler tracks how often each instruction executes and how often each
// procedure is entered. A procedure is identified by the index of the
// instruction its CAL targets.
type Profiler struct {
	counts map[int]uint64    // instruction index -> executions
	ops    map[Opcode]uint64 // opcode -> executions
	calls  map[int]*ProcedureProfile

	// HotThreshold is the number of calls after which a procedure is hot.
	HotThreshold uint64

	// OnHot is called once for each procedure that becomes hot.
	OnHot func(entry int, profile *ProcedureProfile)

	total uint64
}

// ProcedureProfile holds profiling data for a single procedure.
type ProcedureProfile struct {
	Entry int    // index of the procedure's first instruction
	Calls uint64 // number of CAL instructions that entered it
	IsHot bool   // true once Calls reached the threshold
}

// NewProfiler creates a new profiler with the default threshold.
func NewProfiler() *Profiler {
	return &Profiler{
		counts:       make(map[int]uint64),
		ops:          make(map[Opcode]uint64),
		calls:        make(map[int]*ProcedureProfile),
		HotThreshold: 100,
	}
}

// Record counts one execution of in at the given index. It reports whether
// the execution made a procedure hot.
func (p *Profiler) Record(index int, in Instruction) bool {
	p.counts[index]++
	p.ops[in.Op]++
	p.total++

	if in.Op != OpCAL {
		return false
	}
	entry, ok := InstructionIndex(in.M)
	if !ok {
		return false
	}
	profile := p.calls[entry]
	if profile == nil {
		profile = &ProcedureProfile{Entry: entry}
		p.calls[entry] = profile
	}
	profile.Calls++
	if !profile.IsHot && profile.Calls >= p.HotThreshold {
		profile.IsHot = true
		if p.OnHot != nil {
			p.OnHot(entry, profile)
		}
		return true
	}
	return false
}

// Count returns how many times the instruction at index executed.
func (p *Profiler) Count(index int) uint64 {
	return p.counts[index]
}

// OpcodeCount returns how many instructions with opcode op executed.
func (p *Profiler) OpcodeCount(op Opcode) uint64 {
	return p.ops[op]
}

// Total returns the number of recorded executions.
func (p *Profiler) Total() uint64 {
	return p.total
}

// Procedure returns the profile of the procedure entered at entry, or nil
// if it was never called.
func (p *Profiler) Procedure(entry int) *ProcedureProfile {
	return p.calls[entry]
}

// HotProcedures returns the entries of all hot procedures in ascending
// order.
func (p *Profiler) HotProcedures() []int {
	var hot []int
	for entry, profile := range p.calls {
		if profile.IsHot {
			hot = append(hot, entry)
		}
	}
	sort.Ints(hot)
	return hot
}

// Reset clears all profiling data.
func (p *Profiler) Reset() {
	clear(p.counts)
	clear(p.ops)
	clear(p.calls)
	p.total = 0
}

// WriteReport prints the per-opcode totals, the called procedures and the
// executed instructions of prog, most frequent first.
func (p *Profiler) WriteReport(w io.Writer, prog Program) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Profile: %d instructions executed\n\n", p.total)

	ops := make([]Opcode, 0, len(p.ops))
	for op := range p.ops {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	fmt.Fprintf(bw, "%5s %10s\n", "OP", "Count")
	for _, op := range ops {
		fmt.Fprintf(bw, "%5s %10d\n", op.Name(), p.ops[op])
	}

	if len(p.calls) > 0 {
		entries := make([]int, 0, len(p.calls))
		for entry := range p.calls {
			entries = append(entries, entry)
		}
		sort.Ints(entries)
		fmt.Fprintf(bw, "\n%6s %10s %4s\n", "Entry", "Calls", "Hot")
		for _, entry := range entries {
			profile := p.calls[entry]
			hot := ""
			if profile.IsHot {
				hot = "*"
			}
			fmt.Fprintf(bw, "%6d %10d %4s\n", entry, profile.Calls, hot)
		}
	}

	indexes := make([]int, 0, len(p.counts))
	for index := range p.counts {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool {
		ci, cj := p.counts[indexes[i]], p.counts[indexes[j]]
		if ci != cj {
			return ci > cj
		}
		return indexes[i] < indexes[j]
	})
	fmt.Fprintf(bw, "\n%6s %5s %5s %5s %10s\n", "Line", "OP", "L", "M", "Count")
	for _, index := range indexes {
		if index < 0 || index >= len(prog) {
			continue
		}
		in := prog[index]
		fmt.Fprintf(bw, "%6d %5s %5d %5d %10d\n", index, in.Mnemonic(), in.L, in.M, p.counts[index])
	}
	return bw.Flush()
}
