package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/tapir/compiler"
	"github.com/chazu/tapir/vm"
)

// Connect procedure paths served by RunService.
const (
	RunProcedure   = "/tapir.v1.RunService/Run"
	ParseProcedure = "/tapir.v1.RunService/Parse"
)

// RunRequest asks for one execution of a program.
type RunRequest struct {
	Source   string `json:"source"`
	Input    string `json:"input,omitempty"`
	Opt      string `json:"opt,omitempty"`      // default O2
	Strategy string `json:"strategy,omitempty"` // default interpret
}

// RunResponse reports the outcome of an execution. Runtime failures come
// back in Status/Detail with the partial output; only malformed requests
// become Connect errors.
type RunResponse struct {
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Output  string `json:"output"`
	Steps   uint64 `json:"steps"`
	Pointer int    `json:"pointer"`
}

// ParseRequest asks for a syntax check and program listing.
type ParseRequest struct {
	Source string `json:"source"`
	Opt    string `json:"opt,omitempty"`
}

// ParseResponse reports syntax validity. For valid programs it carries the
// instruction count and disassembly; for invalid ones the error position.
type ParseResponse struct {
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Ops     int    `json:"ops,omitempty"`
	Listing string `json:"listing,omitempty"`
}

// RunService executes and inspects programs over Connect.
type RunService struct {
	engine *vm.Engine
	log    commonlog.Logger
}

// NewRunService creates a RunService backed by the given engine.
func NewRunService(engine *vm.Engine) *RunService {
	return &RunService{
		engine: engine,
		log:    commonlog.GetLogger("tapir.server"),
	}
}

// Run compiles and executes a program.
func (s *RunService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	if req.Msg.Source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	level := compiler.O2
	if req.Msg.Opt != "" {
		var err error
		level, err = compiler.ParseOptLevel(req.Msg.Opt)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	strategy, err := vm.ParseStrategy(req.Msg.Strategy)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	prog, err := vm.Compile(req.Msg.Source, level)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	s.log.Debugf("running %s at %s (%s)", prog.HashString()[:16], level, strategy)
	result, err := s.engine.Execute(ctx, prog, strings.NewReader(req.Msg.Input), strategy)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&RunResponse{
		Status:  result.Status.String(),
		Detail:  result.Detail,
		Output:  string(result.Output),
		Steps:   result.Steps,
		Pointer: result.Pointer,
	}), nil
}

// Parse checks syntax and returns the compiled listing without executing.
func (s *RunService) Parse(
	ctx context.Context,
	req *connect.Request[ParseRequest],
) (*connect.Response[ParseResponse], error) {
	if req.Msg.Source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	level := compiler.O2
	if req.Msg.Opt != "" {
		var err error
		level, err = compiler.ParseOptLevel(req.Msg.Opt)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	prog, err := vm.Compile(req.Msg.Source, level)
	if err != nil {
		var parseErr *compiler.ParseError
		if errors.As(err, &parseErr) {
			return connect.NewResponse(&ParseResponse{
				Valid:  false,
				Error:  parseErr.Msg,
				Line:   parseErr.Pos.Line,
				Column: parseErr.Pos.Column,
			}), nil
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&ParseResponse{
		Valid:   true,
		Ops:     len(prog.Ops),
		Listing: vm.Disassemble(prog),
	}), nil
}
