package server

import (
	"net/http"

	"github.com/tliron/commonlog"

	"github.com/chazu/som/vm"
)

var log = commonlog.GetLogger("som.server")

// SomServer is the evaluation server wrapping a running universe.
// Connect, gRPC and gRPC-Web clients are served on the same port.
type SomServer struct {
	worker *VMWorker
	mux    *http.ServeMux
}

// New creates a SomServer wrapping the given universe.
func New(u *vm.Universe) *SomServer {
	worker := NewVMWorker(u)

	s := &SomServer{
		worker: worker,
		mux:    http.NewServeMux(),
	}

	evalPath, evalHandler := NewEvalService(worker).Handler()
	s.mux.Handle(evalPath, evalHandler)

	return s
}

// Handler returns the HTTP handler serving every service.
func (s *SomServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *SomServer) ListenAndServe(addr string) error {
	log.Noticef("SOM evaluation server listening on %s", addr)
	log.Noticef("  Connect (HTTP/JSON): http://%s%s", addr, EvaluateProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server.
func (s *SomServer) Stop() {
	s.worker.Stop()
}
