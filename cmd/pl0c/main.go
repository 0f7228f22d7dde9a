// pl0c compiles a PL/0 token file (or source file) into PM/0 code.
//
// Paths come from pl0.toml; without one, pl0c reads lex_output.txt and writes
// elf.txt in the current directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/compiler"
	"github.com/chazu/pl0/manifest"
	"github.com/chazu/pl0/vm"

	_ "github.com/tliron/commonlog/simple"
)

// errReported marks a failure whose message has already been printed.
var errReported = errors.New("error reported")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) && err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "pl0c: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pl0c", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config", ".", "Directory to search upward for pl0.toml")
	format := fs.String("format", "", "Output format, text or cbor (overrides pl0.toml)")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pl0c [options]\n\n")
		fmt.Fprintf(stderr, "Compiles the token file named in pl0.toml (default %s) into %s.\n\n",
			manifest.DefaultTokens, manifest.DefaultOutput)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("unexpected arguments %q; input and output paths are configured in %s",
			fs.Args(), manifest.FileName)
	}
	if *verbose {
		commonlog.Configure(2, nil)
	}

	m, err := manifest.LoadOrDefault(*configDir)
	if err != nil {
		return err
	}
	output := m.Path(m.Compiler.Output)
	outFormat := m.ProgramFormat()
	if *format != "" {
		if outFormat, err = vm.ParseFormat(*format); err != nil {
			return err
		}
	}

	tokens, err := readInput(m)
	if err != nil {
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			return reportCompileError(stdout, output, cerr)
		}
		return err
	}

	res, err := compiler.Compile(tokens)
	if err != nil {
		return reportCompileError(stdout, output, err)
	}

	if err := vm.WriteProgramFile(output, res.Program, outFormat); err != nil {
		return err
	}
	if m.ListingEnabled() {
		if err := compiler.WriteListing(stdout, res); err != nil {
			return err
		}
	}
	if *verbose {
		fmt.Fprintf(stdout, "Wrote %d instructions to %s\n", len(res.Program), output)
	}
	return nil
}

// readInput returns the tokens to compile: the configured source file when
// one is set, otherwise the token file.
func readInput(m *manifest.Manifest) ([]compiler.Token, error) {
	if m.Compiler.Source != "" {
		path := m.Path(m.Compiler.Source)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		return compiler.NewLexer(string(src)).Tokens(), nil
	}
	return compiler.ReadTokenFile(m.Path(m.Compiler.Tokens))
}

// reportCompileError prints the error on the console and leaves it in the
// output file in place of code.
func reportCompileError(stdout io.Writer, output string, cerr error) error {
	msg := cerr.Error()
	fmt.Fprintln(stdout, msg)
	if err := os.WriteFile(output, []byte(msg+"\n"), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", output, err)
	}
	return errReported
}
