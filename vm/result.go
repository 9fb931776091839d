package vm

import "fmt"

// ---------------------------------------------------------------------------
// Execution outcome
// ---------------------------------------------------------------------------

// Status classifies how an execution ended. Runtime failures terminate the
// execution immediately and are reported here rather than as Go errors, so
// a harness can collect pass/fail/error uniformly.
type Status int32

const (
	// StatusOK means the operation cursor passed the end of the program.
	StatusOK Status = iota

	// StatusBounds means the tape cursor left the tape, or a cell
	// overflowed with wrapping disabled.
	StatusBounds

	// StatusIO means input was exhausted (under the fail policy) or an
	// input read failed.
	StatusIO

	// StatusTimeout means the step budget was exceeded or the context was
	// cancelled before the program terminated.
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBounds:
		return "bounds error"
	case StatusIO:
		return "io error"
	case StatusTimeout:
		return "timeout"
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// ExecutionResult captures the outcome of one run. It is produced at the
// end of the run and owned by the caller.
type ExecutionResult struct {
	Status  Status
	Detail  string // human-readable failure detail, empty on StatusOK
	Output  []byte
	Steps   uint64
	Pointer int

	// Memory is the tape trimmed to the last nonzero cell, for the
	// harness's memory-hygiene check. Empty when the whole tape is zero.
	Memory []byte
}

// OK reports whether the execution terminated normally.
func (r *ExecutionResult) OK() bool {
	return r.Status == StatusOK
}

func (r *ExecutionResult) String() string {
	if r.OK() {
		return fmt.Sprintf("ok: %d bytes out, %d steps", len(r.Output), r.Steps)
	}
	return fmt.Sprintf("%s: %s (%d steps)", r.Status, r.Detail, r.Steps)
}
