package vm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Format selects an on-disk program representation.
type Format string

const (
	FormatText  Format = "text" // "op l m" lines
	FormatImage Format = "cbor" // binary program image
)

// ParseFormat validates a format name from configuration or flags.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatImage:
		return FormatImage, nil
	}
	return "", fmt.Errorf("unknown program format %q (want text or cbor)", s)
}

// ErrMalformedProgram is returned when a program file cannot be decoded.
var ErrMalformedProgram = errors.New("malformed program")

// ReadProgram decodes the text wire format. Words may be separated by any
// whitespace; the word count must be a multiple of three.
func ReadProgram(r io.Reader) (Program, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	var (
		prog   Program
		fields [InstructionWidth]int
		n      int
	)
	for sc.Scan() {
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: instruction %d: %q is not an integer",
				ErrMalformedProgram, len(prog), sc.Text())
		}
		fields[n] = v
		n++
		if n == InstructionWidth {
			prog = append(prog, Instruction{Op: Opcode(fields[0]), L: fields[1], M: fields[2]})
			n = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n != 0 {
		return nil, fmt.Errorf("%w: trailing partial instruction (%d of %d words)",
			ErrMalformedProgram, n, InstructionWidth)
	}
	return prog, nil
}

// LoadProgramFile reads a program from path, accepting either the text wire
// format or a binary image (recognised by its magic bytes).
func LoadProgramFile(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if IsImage(data) {
		return DecodeImage(data)
	}
	return ReadProgram(bytes.NewReader(data))
}
