package server

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/tapir/vm"
)

// Server serves the RunService over Connect (HTTP/JSON).
type Server struct {
	engine *vm.Engine
	mux    *http.ServeMux
	log    commonlog.Logger
}

// New creates a Server around the given engine and registers its handlers.
func New(engine *vm.Engine) *Server {
	s := &Server{
		engine: engine,
		mux:    http.NewServeMux(),
		log:    commonlog.GetLogger("tapir.server"),
	}

	svc := NewRunService(engine)
	codec := connect.WithCodec(jsonCodec{})
	s.mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, svc.Run, codec))
	s.mux.Handle(ParseProcedure, connect.NewUnaryHandler(ParseProcedure, svc.Parse, codec))

	return s
}

// Handler exposes the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address. The address
// should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	fmt.Printf("tapir server listening on %s\n", addr)
	fmt.Printf("  Connect (HTTP/JSON): http://%s%s\n", addr, RunProcedure)
	return http.ListenAndServe(addr, s.mux)
}
