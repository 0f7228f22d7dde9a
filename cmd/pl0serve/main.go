// pl0serve serves the PL/0 toolchain over Connect, or as a language server
// on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/manifest"
	"github.com/chazu/pl0/server"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	configDir := flag.String("config", ".", "Directory to search upward for pl0.toml")
	addr := flag.String("addr", "", "Listen address (overrides [server] addr)")
	lspMode := flag.Bool("lsp", false, "Run the language server on stdio")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pl0serve [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pl0serve                 # Connect service on %s\n", manifest.DefaultAddr)
		fmt.Fprintf(os.Stderr, "  pl0serve -addr :8080     # Connect service on :8080\n")
		fmt.Fprintf(os.Stderr, "  pl0serve -lsp            # Language server on stdin/stdout\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if *lspMode {
		if err := server.NewLSP().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	m, err := manifest.LoadOrDefault(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	listen := m.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	srv := server.New(
		server.WithMemory(m.Server.Memory),
		server.WithMaxSteps(m.Server.MaxSteps),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(shutdownCtx)
	}()

	if err := srv.ListenAndServe(listen); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
