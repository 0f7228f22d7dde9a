package server

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"connectrpc.com/connect"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

var testWorker *VMWorker

// TestMain starts one worker shared by every service test.
func TestMain(m *testing.M) {
	testWorker = NewVMWorker()

	code := m.Run()

	testWorker.Stop()
	os.Exit(code)
}

// newTestToolchainService creates a ToolchainService on the shared worker
// with a small step bound.
func newTestToolchainService() *ToolchainService {
	return NewToolchainService(testWorker, 0, 10_000)
}

// newTestClient serves a fresh Server over httptest and returns a client
// for it.
func newTestClient(t *testing.T, opts ...ServerOption) *ToolchainClient {
	t.Helper()
	srv := New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop(context.Background())
	})
	return NewToolchainClient(ts.Client(), ts.URL)
}

// ---------------------------------------------------------------------------
// Request builder helpers.
// ---------------------------------------------------------------------------

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}
