// Package server exposes the PL/0 toolchain over the network: a Connect
// service that compiles and runs programs, and a language server for
// editors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/pl0/vm"
)

var log = commonlog.GetLogger("pl0.server")

// Server is the toolchain server. It serves Connect (HTTP/JSON) and gRPC
// on the same port.
type Server struct {
	worker *VMWorker
	mux    *http.ServeMux

	mu   sync.Mutex
	http *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	memory   int
	maxSteps int
}

// WithMemory sets the word capacity of every machine the server creates.
func WithMemory(words int) ServerOption {
	return func(c *serverConfig) { c.memory = words }
}

// WithMaxSteps bounds how many instructions a single run may execute. Zero
// means no limit.
func WithMaxSteps(n int) ServerOption {
	return func(c *serverConfig) { c.maxSteps = n }
}

// New creates a Server.
func New(opts ...ServerOption) *Server {
	cfg := &serverConfig{memory: vm.DefaultMemory}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewVMWorker()
	s := &Server{
		worker: worker,
		mux:    http.NewServeMux(),
	}

	toolchainSvc := NewToolchainService(worker, cfg.memory, cfg.maxSteps)
	toolchainPath, toolchainHandler := NewToolchainServiceHandler(toolchainSvc)
	s.mux.Handle(toolchainPath, toolchainHandler)

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)
	srv := &http.Server{Addr: addr, Handler: s.mux, Protocols: &protocols}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	fmt.Printf("PL/0 toolchain server listening on %s\n", addr)
	fmt.Printf("  Connect (HTTP/JSON): http://%s%s\n", addr, ToolchainServiceCompileProcedure)
	fmt.Printf("  gRPC (h2c):          grpc://%s\n", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.worker.Stop()
	log.Info("server stopped")
	return err
}
