package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Execution dispatcher
// ---------------------------------------------------------------------------

// Strategy selects the execution mechanism behind the uniform Execute
// contract.
type Strategy int

const (
	// StrategyInterpret walks the linear program directly.
	StrategyInterpret Strategy = iota

	// StrategyCompileAndRun translates the program into a native plugin
	// ahead of execution and invokes it. Observable behavior (output,
	// status taxonomy) matches StrategyInterpret exactly.
	StrategyCompileAndRun
)

func (s Strategy) String() string {
	switch s {
	case StrategyInterpret:
		return "interpret"
	case StrategyCompileAndRun:
		return "compile"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a CLI/config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "interpret", "":
		return StrategyInterpret, nil
	case "compile":
		return StrategyCompileAndRun, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want interpret or compile)", s)
}

// Engine executes programs under a fixed tape configuration and step
// budget. Compiled programs are cached per source hash for the engine's
// lifetime, so repeated compiled runs pay the go build cost once.
type Engine struct {
	cfg      TapeConfig
	maxSteps uint64
	workDir  string
	log      commonlog.Logger

	// Profiler, when set, is attached to interpreted runs.
	Profiler *Profiler

	mu       sync.Mutex
	compiled map[[32]byte]CompiledRun
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTapeConfig overrides the default tape configuration.
func WithTapeConfig(cfg TapeConfig) EngineOption {
	return func(e *Engine) { e.cfg = cfg }
}

// WithMaxSteps overrides the default step budget.
func WithMaxSteps(n uint64) EngineOption {
	return func(e *Engine) { e.maxSteps = n }
}

// WithWorkDir sets the directory where plugin sources and .so files are
// built. Defaults to a per-engine temp directory.
func WithWorkDir(dir string) EngineOption {
	return func(e *Engine) { e.workDir = dir }
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:      DefaultTapeConfig(),
		maxSteps: DefaultMaxSteps,
		log:      commonlog.GetLogger("tapir.engine"),
		compiled: make(map[[32]byte]CompiledRun),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TapeConfig returns the engine's tape configuration.
func (e *Engine) TapeConfig() TapeConfig {
	return e.cfg
}

// MaxSteps returns the engine's step budget.
func (e *Engine) MaxSteps() uint64 {
	return e.maxSteps
}

// Execute runs prog against input under the given strategy and the
// engine's step budget. Runtime failures are reported inside the
// ExecutionResult; the returned error is reserved for setup failures
// (plugin generation or build).
func (e *Engine) Execute(ctx context.Context, prog *Program, input io.Reader, strategy Strategy) (*ExecutionResult, error) {
	return e.ExecuteWithBudget(ctx, prog, input, strategy, 0)
}

// ExecuteWithBudget is Execute with an explicit step budget for this run.
// A zero budget falls back to the engine's configured budget. The budget
// is a call parameter of the compiled form too, so overriding it does not
// invalidate cached plugins.
func (e *Engine) ExecuteWithBudget(ctx context.Context, prog *Program, input io.Reader, strategy Strategy, maxSteps uint64) (*ExecutionResult, error) {
	if maxSteps == 0 {
		maxSteps = e.maxSteps
	}

	switch strategy {
	case StrategyInterpret:
		in := NewInterpreter(prog, input, e.cfg, maxSteps)
		in.Profiler = e.Profiler
		return in.Run(ctx), nil

	case StrategyCompileAndRun:
		run, err := e.compiledFor(prog)
		if err != nil {
			return nil, err
		}
		// The compiled calling convention takes the input up front; the
		// step budget bounds the run, so reading eagerly is safe.
		var data []byte
		if input != nil {
			data, err = io.ReadAll(input)
			if err != nil {
				return &ExecutionResult{Status: StatusIO, Detail: err.Error()}, nil
			}
		}
		output, memory, pointer, steps, status := run(data, maxSteps)
		res := &ExecutionResult{
			Status:  Status(status),
			Output:  output,
			Steps:   steps,
			Pointer: int(pointer),
			Memory:  memory,
		}
		if !res.OK() {
			res.Detail = res.Status.String()
		}
		return res, nil
	}

	return nil, fmt.Errorf("unknown strategy %d", strategy)
}

// compiledFor returns the cached compiled form of prog, building it on
// first use: generate source, type-check it in memory, go build it as a
// plugin, and load the Run symbol.
func (e *Engine) compiledFor(prog *Program) (CompiledRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if run, ok := e.compiled[prog.Hash]; ok {
		return run, nil
	}

	dir := e.workDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "tapir-aot-*")
		if err != nil {
			return nil, fmt.Errorf("creating build dir: %w", err)
		}
		e.workDir = dir
	}

	name := "bf_" + prog.HashString()[:16]
	source := NewAOTCompiler(e.cfg).CompileProgram(prog)
	if err := ValidateSource(source); err != nil {
		return nil, err
	}

	sourceFile, err := writeSource(source, dir, name)
	if err != nil {
		return nil, err
	}
	e.log.Infof("building plugin for %s", prog.HashString()[:16])

	pluginFile, err := BuildPlugin(sourceFile)
	if err != nil {
		return nil, err
	}
	run, err := LoadPlugin(pluginFile)
	if err != nil {
		return nil, err
	}

	e.compiled[prog.Hash] = run
	return run, nil
}
