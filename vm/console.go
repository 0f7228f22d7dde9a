package vm

import (
	"bufio"
	"fmt"
	"io"
)

// Console is the program's I/O channel, used by SYS 1 (write) and SYS 2
// (read).
type Console interface {
	WriteInt(v int) error
	ReadInt() (int, error)
}

// OutputLabel prefixes every value written by SYS 1 on a StdConsole.
const OutputLabel = "Output result is: "

// InputPrompt is printed by a StdConsole before reading for SYS 2.
const InputPrompt = "Please Enter an Integer: "

// StdConsole reads integers from a reader and writes labelled results to a
// writer, normally standard input and output.
type StdConsole struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdConsole creates a console over in and out.
func NewStdConsole(in io.Reader, out io.Writer) *StdConsole {
	return &StdConsole{in: bufio.NewReader(in), out: out}
}

func (c *StdConsole) WriteInt(v int) error {
	_, err := fmt.Fprintf(c.out, "%s%d\n", OutputLabel, v)
	return err
}

func (c *StdConsole) ReadInt() (int, error) {
	if _, err := fmt.Fprint(c.out, InputPrompt); err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Fscan(c.in, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return v, nil
}

// BufferConsole serves reads from a fixed input list and records writes.
type BufferConsole struct {
	Input  []int
	Output []int
}

// NewBufferConsole creates a console that will answer reads with input, in
// order.
func NewBufferConsole(input ...int) *BufferConsole {
	return &BufferConsole{Input: input}
}

func (c *BufferConsole) WriteInt(v int) error {
	c.Output = append(c.Output, v)
	return nil
}

func (c *BufferConsole) ReadInt() (int, error) {
	if len(c.Input) == 0 {
		return 0, fmt.Errorf("%w: input exhausted", ErrInput)
	}
	v := c.Input[0]
	c.Input = c.Input[1:]
	return v, nil
}
