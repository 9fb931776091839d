package vm

import (
	"crypto/sha256"
	"fmt"

	"github.com/chazu/tapir/compiler"
)

// ---------------------------------------------------------------------------
// Linear program
// ---------------------------------------------------------------------------

// Op is one instruction of a flattened program. Which operands are
// meaningful depends on the opcode; Target is only used by jumps and is a
// resolved instruction index, computed once at build time.
type Op struct {
	Code   Opcode `cbor:"c"`
	X      int    `cbor:"x,omitempty"`
	Y      int    `cbor:"y,omitempty"`
	Offset int    `cbor:"o,omitempty"`
	Target int    `cbor:"t,omitempty"`
}

// Program is an immutable, executable instruction sequence. It is safe to
// share one Program across concurrent executions; all mutable run state
// lives in the Tape and Interpreter.
type Program struct {
	Ops  []Op              `cbor:"ops"`
	Opt  compiler.OptLevel `cbor:"opt"`
	Hash [32]byte          `cbor:"hash"` // sha256 of the raw source text
}

// Compile parses and optimizes source at the given level and flattens the
// result into a Program. The only error condition is a *compiler.ParseError.
func Compile(src string, level compiler.OptLevel) (*Program, error) {
	nodes, err := compiler.Optimize(src, level)
	if err != nil {
		return nil, err
	}
	prog := &Program{
		Ops:  flatten(nodes, nil),
		Opt:  level,
		Hash: sha256.Sum256([]byte(src)),
	}
	return prog, nil
}

// flatten appends the linear form of an IR sequence to ops. Loops become a
// JZ/JNZ pair cross-linked with each other's resolved index: JZ jumps past
// the JNZ when the cell is zero, JNZ jumps back to the first body
// instruction while it is nonzero.
func flatten(nodes []compiler.Node, ops []Op) []Op {
	for _, n := range nodes {
		switch n := n.(type) {
		case *compiler.Add:
			ops = append(ops, Op{Code: OpAdd, X: n.X, Offset: n.Offset})
		case *compiler.Move:
			ops = append(ops, Op{Code: OpMove, X: n.Over})
		case *compiler.Print:
			ops = append(ops, Op{Code: OpPrint, X: n.Times, Offset: n.Offset})
		case *compiler.Read:
			ops = append(ops, Op{Code: OpRead, Offset: n.Offset})
		case *compiler.Set:
			ops = append(ops, Op{Code: OpSet, X: n.X, Offset: n.Offset})
		case *compiler.Mul:
			ops = append(ops, Op{Code: OpMul, X: n.X, Y: n.Y, Offset: n.Offset})
		case *compiler.Loop:
			open := len(ops)
			ops = append(ops, Op{Code: OpJumpZero})
			ops = flatten(n.Body, ops)
			close := len(ops)
			ops = append(ops, Op{Code: OpJumpNonZero, Target: open + 1})
			ops[open].Target = close + 1
		}
	}
	return ops
}

// Validate checks the structural invariants of the jump cross-links. A
// Program built by Compile always passes; this guards programs loaded from
// a cache or received over the wire.
func (p *Program) Validate() error {
	for i, op := range p.Ops {
		switch op.Code {
		case OpJumpZero:
			if op.Target < 1 || op.Target > len(p.Ops) {
				return fmt.Errorf("op %d: JZ target %d out of range", i, op.Target)
			}
			close := op.Target - 1
			if p.Ops[close].Code != OpJumpNonZero {
				return fmt.Errorf("op %d: JZ target %d does not follow a JNZ", i, op.Target)
			}
			if p.Ops[close].Target != i+1 {
				return fmt.Errorf("op %d: JZ/JNZ cross-link broken (JNZ at %d targets %d)",
					i, close, p.Ops[close].Target)
			}
		case OpJumpNonZero:
			if op.Target < 1 || op.Target > len(p.Ops) {
				return fmt.Errorf("op %d: JNZ target %d out of range", i, op.Target)
			}
			open := op.Target - 1
			if p.Ops[open].Code != OpJumpZero {
				return fmt.Errorf("op %d: JNZ target %d does not follow a JZ", i, op.Target)
			}
		}
	}
	return nil
}

// HashString returns the program's source hash in hex form.
func (p *Program) HashString() string {
	return fmt.Sprintf("%x", p.Hash)
}
