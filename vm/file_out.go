package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteProgram writes p in the text wire format: one instruction per line,
// "opcode level operand", in program order with no header or trailer.
func WriteProgram(w io.Writer, p Program) error {
	bw := bufio.NewWriter(w)
	for _, in := range p {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", int(in.Op), in.L, in.M); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteProgramFile writes p to path in the given format.
func WriteProgramFile(path string, p Program, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	switch format {
	case FormatText:
		return WriteProgram(f, p)
	case FormatImage:
		data, err := EncodeImage(p)
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	default:
		return fmt.Errorf("unknown program format %q", format)
	}
}
