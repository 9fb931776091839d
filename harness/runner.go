package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/tapir/compiler"
	"github.com/chazu/tapir/vm"
)

// ---------------------------------------------------------------------------
// Suite runner
// ---------------------------------------------------------------------------

// FailureKind classifies one way a case can fail. A single case may
// accumulate several failures; the kinds are not mutually exclusive.
type FailureKind int

const (
	// FailRuntime means the execution finished with a status other than
	// the one the case expects.
	FailRuntime FailureKind = iota

	// FailNonZeroPointer means the cursor did not come to rest at cell
	// zero.
	FailNonZeroPointer

	// FailNonZeroMemory means the tape was not all zero at the end.
	FailNonZeroMemory

	// FailIncorrectOutput means the produced output differs from the
	// expected output.
	FailIncorrectOutput

	// FailStrategyMismatch means the interpreted and compiled runs of
	// the same case disagree with each other.
	FailStrategyMismatch
)

func (k FailureKind) String() string {
	switch k {
	case FailRuntime:
		return "runtime error"
	case FailNonZeroPointer:
		return "nonzero pointer"
	case FailNonZeroMemory:
		return "nonzero memory"
	case FailIncorrectOutput:
		return "incorrect output"
	case FailStrategyMismatch:
		return "strategy mismatch"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is one classified case failure with detail for the report.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Suite string
	Case  string

	// Strategies lists every strategy the case ran under, in execution
	// order. Result holds the outcome of the first one.
	Strategies []vm.Strategy

	Failures []Failure
	Result   *vm.ExecutionResult
	Duration time.Duration
}

// Passed reports whether the case accumulated no failures.
func (r *CaseResult) Passed() bool {
	return len(r.Failures) == 0
}

// SuiteResult aggregates the case results of one suite run.
type SuiteResult struct {
	Suite   string
	Opt     compiler.OptLevel
	Cases   []CaseResult
	Started time.Time
}

// Passed reports whether every case passed.
func (r *SuiteResult) Passed() bool {
	for i := range r.Cases {
		if !r.Cases[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the number of failing cases.
func (r *SuiteResult) Failed() int {
	n := 0
	for i := range r.Cases {
		if !r.Cases[i].Passed() {
			n++
		}
	}
	return n
}

// Runner executes suites against an engine. Each case gets a fresh tape;
// nothing leaks between cases.
type Runner struct {
	engine *vm.Engine
	log    commonlog.Logger

	// Parallelism caps concurrent cases. Zero or one runs sequentially.
	Parallelism int

	// History, when set, records every finished suite.
	History *History
}

// NewRunner creates a runner backed by the given engine.
func NewRunner(engine *vm.Engine) *Runner {
	return &Runner{
		engine: engine,
		log:    commonlog.GetLogger("tapir.harness"),
	}
}

// RunSuite compiles the suite's program and runs every case. The returned
// error covers compilation and setup; case failures live in the result.
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) (*SuiteResult, error) {
	level, err := compiler.ParseOptLevel(suite.Opt)
	if err != nil {
		return nil, err
	}
	prog, err := vm.Compile(suite.Source, level)
	if err != nil {
		return nil, fmt.Errorf("compiling suite program: %w", err)
	}

	strategies, err := suiteStrategies(suite.Strategy)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{
		Suite:   suite.Name,
		Opt:     level,
		Cases:   make([]CaseResult, len(suite.Cases)),
		Started: time.Now(),
	}
	r.log.Infof("running suite %q: %d cases at %s", suite.Name, len(suite.Cases), level)

	limit := r.Parallelism
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := range suite.Cases {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			result.Cases[i] = r.runCase(ctx, suite, prog, &suite.Cases[i], strategies)
		}(i)
	}
	wg.Wait()

	for i := range result.Cases {
		c := &result.Cases[i]
		if !c.Passed() {
			r.log.Errorf("case %q failed: %v", c.Case, c.Failures)
		}
	}

	if r.History != nil {
		if err := r.History.Record(result); err != nil {
			r.log.Warningf("recording history: %v", err)
		}
	}
	return result, nil
}

// runCase executes one case under the configured strategies and classifies
// every divergence from the expectations. The suite's max_steps, when set,
// overrides the engine's budget for each execution.
func (r *Runner) runCase(ctx context.Context, suite *Suite, prog *vm.Program, c *Case, strategies []vm.Strategy) CaseResult {
	start := time.Now()
	res := CaseResult{Suite: suite.Name, Case: c.Name, Strategies: strategies}

	outcomes := make([]*vm.ExecutionResult, 0, len(strategies))
	for _, strategy := range strategies {
		exec, err := r.engine.ExecuteWithBudget(ctx, prog, strings.NewReader(c.Input), strategy, suite.MaxSteps)
		if err != nil {
			res.Failures = append(res.Failures, Failure{
				Kind:   FailRuntime,
				Detail: fmt.Sprintf("%s setup: %v", strategy, err),
			})
			res.Duration = time.Since(start)
			return res
		}
		outcomes = append(outcomes, exec)
	}
	res.Result = outcomes[0]
	res.Duration = time.Since(start)

	exec := outcomes[0]
	if got := exec.Status.String(); got != c.Status {
		detail := got
		if exec.Detail != "" {
			detail = fmt.Sprintf("%s (%s)", got, exec.Detail)
		}
		res.Failures = append(res.Failures, Failure{
			Kind:   FailRuntime,
			Detail: fmt.Sprintf("status %s, expected %s", detail, c.Status),
		})
	}

	if string(exec.Output) != c.Output {
		res.Failures = append(res.Failures, Failure{
			Kind:   FailIncorrectOutput,
			Detail: fmt.Sprintf("got %q, expected %q", exec.Output, c.Output),
		})
	}

	if exec.OK() {
		if suite.PointerChecked() && exec.Pointer != 0 {
			res.Failures = append(res.Failures, Failure{
				Kind:   FailNonZeroPointer,
				Detail: fmt.Sprintf("cursor at %d", exec.Pointer),
			})
		}
		if suite.MemoryChecked() && len(exec.Memory) != 0 {
			res.Failures = append(res.Failures, Failure{
				Kind:   FailNonZeroMemory,
				Detail: fmt.Sprintf("%d cells still set", countNonZero(exec.Memory)),
			})
		}
	}

	for i := 1; i < len(outcomes); i++ {
		other := outcomes[i]
		if other.Status != exec.Status || string(other.Output) != string(exec.Output) ||
			other.Pointer != exec.Pointer {
			res.Failures = append(res.Failures, Failure{
				Kind: FailStrategyMismatch,
				Detail: fmt.Sprintf("%s: status %s output %q cursor %d; %s: status %s output %q cursor %d",
					strategies[0], exec.Status, exec.Output, exec.Pointer,
					strategies[i], other.Status, other.Output, other.Pointer),
			})
		}
	}

	return res
}

func countNonZero(memory []byte) int {
	n := 0
	for _, c := range memory {
		if c != 0 {
			n++
		}
	}
	return n
}

// suiteStrategies expands the manifest strategy field. "both" runs the
// interpreter first and the compiled form after it for comparison.
func suiteStrategies(s string) ([]vm.Strategy, error) {
	if s == "both" {
		return []vm.Strategy{vm.StrategyInterpret, vm.StrategyCompileAndRun}, nil
	}
	strategy, err := vm.ParseStrategy(s)
	if err != nil {
		return nil, err
	}
	return []vm.Strategy{strategy}, nil
}
