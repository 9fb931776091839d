package vm

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// ---------------------------------------------------------------------------
// Interpreter: direct execution of a linear program
// ---------------------------------------------------------------------------

// DefaultMaxSteps is the default execution budget, generous enough for
// real programs while still terminating runaway loops quickly.
const DefaultMaxSteps uint64 = 10_000_000

// ctxCheckMask controls how often the interpreter polls the context:
// every 4096 steps.
const ctxCheckMask = 0xFFF

// Interpreter executes one Program against one Tape. It is single-use:
// create a fresh Interpreter (and Tape) per execution. The Program itself
// is never mutated and may back many concurrent interpreters.
type Interpreter struct {
	prog     *Program
	tape     *Tape
	input    *bufio.Reader
	maxSteps uint64

	// Profiler is optional; when set, opcode and loop-iteration counts
	// are recorded during the run.
	Profiler *Profiler
}

// NewInterpreter creates an interpreter for prog reading from input.
// A nil input behaves as immediately-exhausted input.
func NewInterpreter(prog *Program, input io.Reader, cfg TapeConfig, maxSteps uint64) *Interpreter {
	if input == nil {
		input = eofReader{}
	}
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Interpreter{
		prog:     prog,
		tape:     NewTape(cfg),
		input:    bufio.NewReader(input),
		maxSteps: maxSteps,
	}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// Run executes the program to completion or to its first runtime failure.
// Runtime failures (bounds, I/O, budget) come back inside the
// ExecutionResult, never as a panic or Go error.
func (in *Interpreter) Run(ctx context.Context) *ExecutionResult {
	var (
		output []byte
		steps  uint64
		ops    = in.prog.Ops
		tape   = in.tape
		ip     = 0
	)

	fail := func(status Status, detail string) *ExecutionResult {
		return &ExecutionResult{
			Status:  status,
			Detail:  detail,
			Output:  output,
			Steps:   steps,
			Pointer: tape.Pointer(),
			Memory:  tape.Snapshot(),
		}
	}

	for ip < len(ops) {
		steps++
		if steps > in.maxSteps {
			return fail(StatusTimeout, "step budget exceeded")
		}
		if steps&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return fail(StatusTimeout, err.Error())
			}
		}

		op := ops[ip]
		if in.Profiler != nil {
			in.Profiler.RecordOp(op.Code)
		}

		switch op.Code {
		case OpAdd:
			if err := tape.AddAt(op.Offset, op.X); err != nil {
				return fail(StatusBounds, err.Error())
			}

		case OpSet:
			if err := tape.SetAt(op.Offset, op.X); err != nil {
				return fail(StatusBounds, err.Error())
			}

		case OpMul:
			base, err := tape.At(op.Offset)
			if err != nil {
				return fail(StatusBounds, err.Error())
			}
			if err := tape.AddAt(op.Offset+op.X, int(base)*op.Y); err != nil {
				return fail(StatusBounds, err.Error())
			}

		case OpMove:
			if err := tape.Move(op.X); err != nil {
				return fail(StatusBounds, err.Error())
			}

		case OpPrint:
			cell, err := tape.At(op.Offset)
			if err != nil {
				return fail(StatusBounds, err.Error())
			}
			for i := 0; i < op.X; i++ {
				output = append(output, cell)
			}

		case OpRead:
			b, err := in.input.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					if in.tape.cfg.EOF == EOFSentinel {
						b = in.tape.cfg.EOFByte
					} else {
						return fail(StatusIO, "input exhausted")
					}
				} else {
					return fail(StatusIO, err.Error())
				}
			}
			if err := tape.SetAt(op.Offset, int(b)); err != nil {
				return fail(StatusBounds, err.Error())
			}

		case OpJumpZero:
			cell, err := tape.At(0)
			if err != nil {
				return fail(StatusBounds, err.Error())
			}
			if cell == 0 {
				ip = op.Target
				continue
			}

		case OpJumpNonZero:
			cell, err := tape.At(0)
			if err != nil {
				return fail(StatusBounds, err.Error())
			}
			if cell != 0 {
				if in.Profiler != nil {
					in.Profiler.RecordLoopIteration(op.Target - 1)
				}
				ip = op.Target
				continue
			}
		}

		ip++
	}

	return &ExecutionResult{
		Status:  StatusOK,
		Output:  output,
		Steps:   steps,
		Pointer: tape.Pointer(),
		Memory:  tape.Snapshot(),
	}
}
