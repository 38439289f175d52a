package server

import (
	"bytes"
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/vm"
)

// newTestWorker bootstraps a fresh universe behind a worker. Universes are
// cheap enough that every test gets its own.
func newTestWorker(t *testing.T) *VMWorker {
	t.Helper()
	var out bytes.Buffer
	u, err := compiler.NewUniverse(vm.WithStdout(&out), vm.WithStderr(&out), vm.WithStackChecks(true))
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	w := NewVMWorker(u)
	t.Cleanup(w.Stop)
	return w
}

func bg() context.Context {
	return context.Background()
}

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}
