package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/pl0/compiler"
	"github.com/chazu/pl0/vm"
)

// ToolchainServiceName is the fully-qualified name of the toolchain service.
const ToolchainServiceName = "pl0.v1.ToolchainService"

// Procedure paths of the toolchain service.
const (
	ToolchainServiceCompileProcedure = "/" + ToolchainServiceName + "/Compile"
	ToolchainServiceRunProcedure     = "/" + ToolchainServiceName + "/Run"
)

// ToolchainService compiles and runs PL/0 programs over Connect.
type ToolchainService struct {
	worker   *VMWorker
	memory   int
	maxSteps int
}

// NewToolchainService creates a ToolchainService that executes programs on
// worker with the given machine memory and step bound.
func NewToolchainService(worker *VMWorker, memory, maxSteps int) *ToolchainService {
	if memory <= 0 {
		memory = vm.DefaultMemory
	}
	return &ToolchainService{worker: worker, memory: memory, maxSteps: maxSteps}
}

// Compile compiles PL/0 source. Compile errors are reported in the response
// rather than as RPC errors.
func (s *ToolchainService) Compile(
	ctx context.Context,
	req *connect.Request[CompileRequest],
) (*connect.Response[CompileResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	res, err := compiler.CompileSource(source)
	if err != nil {
		resp := &CompileResponse{Success: false, Error: err.Error()}
		var cerr *compiler.Error
		if errors.As(err, &cerr) {
			resp.Line = cerr.Pos.Line
			resp.Column = cerr.Pos.Column
		}
		return connect.NewResponse(resp), nil
	}

	var listing bytes.Buffer
	if err := compiler.WriteListing(&listing, res); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&CompileResponse{
		Success: true,
		Code:    toInstructions(res.Program),
		Listing: listing.String(),
		Symbols: toSymbols(res.Symbols),
	}), nil
}

// Run executes a program, compiling it first when source is given. Input
// values answer the program's reads in order.
func (s *ToolchainService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	msg := req.Msg
	var prog vm.Program
	switch {
	case msg.Source != "":
		res, err := compiler.CompileSource(msg.Source)
		if err != nil {
			return connect.NewResponse(&RunResponse{Success: false, Error: err.Error()}), nil
		}
		prog = res.Program
	case len(msg.Code) > 0:
		prog = fromInstructions(msg.Code)
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source or code is required"))
	}

	console := vm.NewBufferConsole(msg.Input...)
	m, err := vm.New(prog,
		vm.WithMemory(s.memory),
		vm.WithConsole(console),
		vm.WithMaxSteps(s.maxSteps),
	)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := s.worker.Do(ctx, func() interface{} {
		return m.Run(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, connect.NewError(connect.CodeCanceled, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &RunResponse{Success: true, Output: console.Output, Steps: m.Steps()}
	if resp.Output == nil {
		resp.Output = []int{}
	}
	if runErr, _ := result.(error); runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return nil, connect.NewError(connect.CodeCanceled, runErr)
		}
		log.Infof("program failed after %d steps: %v", m.Steps(), runErr)
		resp.Success = false
		resp.Error = runErr.Error()
	}
	return connect.NewResponse(resp), nil
}

// NewToolchainServiceHandler builds an HTTP handler for svc. It returns the
// path on which to mount the handler and the handler itself. Messages are
// accepted as JSON or binary protobuf from Connect, gRPC and gRPC-Web
// clients.
func NewToolchainServiceHandler(svc *ToolchainService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithCodec(protoCodec{}),
	}, opts...)
	compileHandler := connect.NewUnaryHandler(
		ToolchainServiceCompileProcedure,
		svc.Compile,
		opts...,
	)
	runHandler := connect.NewUnaryHandler(
		ToolchainServiceRunProcedure,
		svc.Run,
		opts...,
	)
	return "/" + ToolchainServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ToolchainServiceCompileProcedure:
			compileHandler.ServeHTTP(w, r)
		case ToolchainServiceRunProcedure:
			runHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ToolchainClient is a client for the toolchain service.
type ToolchainClient struct {
	compile *connect.Client[CompileRequest, CompileResponse]
	run     *connect.Client[RunRequest, RunResponse]
}

// NewToolchainClient constructs a client for the toolchain service at
// baseURL, for example http://localhost:4680. It speaks Connect with JSON
// unless opts choose another protocol or codec.
func NewToolchainClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ToolchainClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ToolchainClient{
		compile: connect.NewClient[CompileRequest, CompileResponse](
			httpClient, baseURL+ToolchainServiceCompileProcedure, opts...,
		),
		run: connect.NewClient[RunRequest, RunResponse](
			httpClient, baseURL+ToolchainServiceRunProcedure, opts...,
		),
	}
}

// Compile calls pl0.v1.ToolchainService.Compile.
func (c *ToolchainClient) Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error) {
	resp, err := c.compile.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Run calls pl0.v1.ToolchainService.Run.
func (c *ToolchainClient) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	resp, err := c.run.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
