package compiler

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/pl0/vm"
)

// WriteAssembly prints the instruction table shown after a successful
// compilation.
func WriteAssembly(w io.Writer, p vm.Program) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Assembly code:\n\n")
	fmt.Fprintf(bw, "%6s %5s %5s %5s\n", "Line", "OP", "L", "M")
	for i, in := range p {
		fmt.Fprintf(bw, "%6d %5s %5d %5d\n", i, in.Op.Name(), in.L, in.M)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}

// WriteSymbols prints the symbol table.
func WriteSymbols(w io.Writer, t *SymbolTable) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Symbol Table:\n\n")
	fmt.Fprintf(bw, "%4s | %11s | %5s | %5s | %7s | %4s\n",
		"Kind", "Name", "Value", "Level", "Address", "Mark")
	fmt.Fprintf(bw, "---------------------------------------------------\n")
	for _, sym := range t.Entries() {
		mark := 0
		if sym.Used {
			mark = 1
		}
		fmt.Fprintf(bw, "%4d | %11s | %5d | %5d | %7d | %4d\n",
			int(sym.Kind), sym.Name, sym.Value, sym.Level, sym.Address, mark)
	}
	return bw.Flush()
}

// WriteListing prints the assembly table followed by the symbol table.
func WriteListing(w io.Writer, res *Result) error {
	if err := WriteAssembly(w, res.Program); err != nil {
		return err
	}
	return WriteSymbols(w, res.Symbols)
}
