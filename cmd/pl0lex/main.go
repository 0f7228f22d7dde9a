// pl0lex scans PL/0 source and writes the token file read by pl0c.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/compiler"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "pl0lex: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pl0lex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", compiler.DefaultTokenFile, "Token file to write")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pl0lex [options] source.pl0\n\n")
		fmt.Fprintf(stderr, "Scans a PL/0 source file into the token file compiled by pl0c.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one source file, got %d", fs.NArg())
	}
	if *verbose {
		commonlog.Configure(2, nil)
	}

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	tokens := compiler.NewLexer(string(src)).Tokens()
	for _, tok := range tokens {
		if tok.Kind == compiler.TokenSkip {
			fmt.Fprintf(stderr, "%s:%s: %s\n", path, tok.Pos, tok.Text)
		}
	}
	if err := compiler.WriteTokenFile(*output, tokens); err != nil {
		return err
	}
	if *verbose {
		fmt.Fprintf(stdout, "Wrote %d tokens to %s\n", len(tokens), *output)
	}
	return nil
}
