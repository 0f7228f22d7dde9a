// pl0vm runs a PM/0 program file, tracing every instruction.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/manifest"
	"github.com/chazu/pl0/vm"

	_ "github.com/tliron/commonlog/simple"
)

// errReported marks a failure whose message has already been printed.
var errReported = errors.New("error reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) && err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "pl0vm: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pl0vm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config", ".", "Directory to search upward for pl0.toml")
	quiet := fs.Bool("q", false, "Do not trace execution")
	profile := fs.Bool("profile", false, "Print instruction counts after the run")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pl0vm [options] program\n\n")
		fmt.Fprintf(stderr, "Runs a PM/0 program in text or binary image format.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one program file, got %d", fs.NArg())
	}
	if *verbose {
		commonlog.Configure(2, nil)
	}

	m, err := manifest.LoadOrDefault(*configDir)
	if err != nil {
		return err
	}

	prog, err := vm.LoadProgramFile(fs.Arg(0))
	if err != nil {
		return err
	}

	opts := []vm.Option{
		vm.WithMemory(m.VM.Memory),
		vm.WithMaxSteps(m.VM.MaxSteps),
		vm.WithConsole(vm.NewStdConsole(stdin, stdout)),
	}
	if m.TraceEnabled() && !*quiet {
		opts = append(opts, vm.WithTrace(stdout))
	}
	var profiler *vm.Profiler
	if *profile {
		profiler = vm.NewProfiler()
		opts = append(opts, vm.WithProfiler(profiler))
	}
	machine, err := vm.New(prog, opts...)
	if err != nil {
		return err
	}

	runErr := machine.Run(ctx)
	if profiler != nil {
		fmt.Fprintln(stdout)
		if err := profiler.WriteReport(stdout, prog); err != nil {
			return err
		}
	}
	if err := runErr; err != nil {
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) {
			fmt.Fprintln(stdout, rerr.Error())
			return errReported
		}
		return err
	}
	return nil
}
