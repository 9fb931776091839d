package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// AOT compiler: linear program -> Go plugin source
// ---------------------------------------------------------------------------

// RunSymbol is the fixed symbol name exported by generated plugins.
const RunSymbol = "Run"

// CompiledRun is the calling convention of the generated Run symbol.
// status uses the same codes as Status; memory is the tape trimmed to the
// last nonzero cell, mirroring Tape.Snapshot.
type CompiledRun func(input []byte, maxSteps uint64) (output []byte, memory []byte, pointer int64, steps uint64, status int32)

// AOTCompiler translates a linear program into a self-contained Go source
// file. The generated code eliminates dispatch overhead by turning each
// instruction into straight-line Go, with labels and gotos for the
// resolved jump targets.
type AOTCompiler struct {
	sb     strings.Builder
	indent int
	cfg    TapeConfig
}

// NewAOTCompiler creates a compiler generating code for the given tape
// configuration. The policy choices (wrapping, growth, EOF) are baked into
// the generated code so the compiled program observes the exact contract
// the interpreter would.
func NewAOTCompiler(cfg TapeConfig) *AOTCompiler {
	return &AOTCompiler{cfg: cfg}
}

// CompileProgram generates a complete plugin source file for prog.
func (c *AOTCompiler) CompileProgram(prog *Program) string {
	c.sb.Reset()
	c.indent = 0

	size := c.cfg.Size
	if size <= 0 {
		size = DefaultTapeSize
	}

	c.writeLine("// Code generated by tapir. DO NOT EDIT.")
	c.writeLine("// program %s (%s)", prog.HashString()[:16], prog.Opt)
	c.writeLine("")
	c.writeLine("package main")
	c.writeLine("")
	c.writeLine("// Run executes the compiled program. Status codes: 0 ok,")
	c.writeLine("// 1 bounds, 2 io, 3 timeout.")
	c.writeLine("func %s(input []byte, maxSteps uint64) (output []byte, memory []byte, pointer int64, steps uint64, status int32) {", RunSymbol)
	c.indent++
	c.writeLine("mem := make([]byte, %d)", size)
	c.writeLine("var p int64")
	c.writeLine("in := 0")
	c.writeLine("_ = in")
	c.writeLine("defer func() {")
	c.indent++
	c.writeLine("pointer = p")
	c.writeLine("last := -1")
	c.writeLine("for i, cell := range mem {")
	c.indent++
	c.writeLine("if cell != 0 {")
	c.indent++
	c.writeLine("last = i")
	c.indent--
	c.writeLine("}")
	c.indent--
	c.writeLine("}")
	c.writeLine("if last >= 0 {")
	c.indent++
	c.writeLine("memory = append([]byte(nil), mem[:last+1]...)")
	c.indent--
	c.writeLine("}")
	c.indent--
	c.writeLine("}()")
	c.writeLine("")

	targets := jumpTargets(prog)
	for i, op := range prog.Ops {
		if targets[i] {
			c.label(i)
		}
		c.compileOp(op)
	}
	if targets[len(prog.Ops)] {
		c.label(len(prog.Ops))
	}

	c.writeLine("return")
	c.indent--
	c.writeLine("}")

	return c.sb.String()
}

// jumpTargets returns the set of instruction indices that need a label.
func jumpTargets(prog *Program) map[int]bool {
	targets := make(map[int]bool)
	for _, op := range prog.Ops {
		if op.Code == OpJumpZero || op.Code == OpJumpNonZero {
			targets[op.Target] = true
		}
	}
	return targets
}

// compileOp emits one instruction. Each instruction body is wrapped in a
// block so its local index variables stay out of the goto scope: a forward
// goto may not jump over declarations at its own block level.
func (c *AOTCompiler) compileOp(op Op) {
	c.writeLine("{")
	c.indent++
	c.step()
	switch op.Code {
	case OpAdd:
		c.cell("q", op.Offset)
		if c.cfg.WrapCells {
			c.writeLine("mem[q] += %d", byte(op.X))
		} else {
			c.writeLine("if v := int(mem[q]) + %d; v < 0 || v > 255 { status = 1; return } else { mem[q] = byte(v) }", op.X)
		}

	case OpSet:
		c.cell("q", op.Offset)
		c.writeLine("mem[q] = %d", byte(op.X))

	case OpMul:
		c.cell("q", op.Offset)
		c.cell("r", op.Offset+op.X)
		if c.cfg.WrapCells {
			c.writeLine("mem[r] += byte(int(mem[q]) * %d)", op.Y)
		} else {
			c.writeLine("if v := int(mem[r]) + int(mem[q])*%d; v < 0 || v > 255 { status = 1; return } else { mem[r] = byte(v) }", op.Y)
		}

	case OpMove:
		c.writeLine("p += %d", op.X)
		c.writeLine("if p < 0 { status = 1; return }")
		if c.cfg.Grow {
			c.growCheck("p")
		} else {
			c.writeLine("if p >= int64(len(mem)) { status = 1; return }")
		}

	case OpPrint:
		c.cell("q", op.Offset)
		if op.X == 1 {
			c.writeLine("output = append(output, mem[q])")
		} else {
			c.writeLine("for i := 0; i < %d; i++ { output = append(output, mem[q]) }", op.X)
		}

	case OpRead:
		c.cell("q", op.Offset)
		if c.cfg.EOF == EOFSentinel {
			c.writeLine("if in < len(input) { mem[q] = input[in]; in++ } else { mem[q] = %d }", c.cfg.EOFByte)
		} else {
			c.writeLine("if in >= len(input) { status = 2; return }")
			c.writeLine("mem[q] = input[in]")
			c.writeLine("in++")
		}

	case OpJumpZero:
		c.writeLine("if mem[p] == 0 { goto L%d }", op.Target)

	case OpJumpNonZero:
		c.writeLine("if mem[p] != 0 { goto L%d }", op.Target)
	}
	c.indent--
	c.writeLine("}")
}

// cell emits the bounds-checked resolution of cursor+offset into name.
func (c *AOTCompiler) cell(name string, offset int) {
	if offset == 0 {
		c.writeLine("%s := p", name)
		return
	}
	c.writeLine("%s := p + %d", name, offset)
	c.writeLine("if %s < 0 { status = 1; return }", name)
	if c.cfg.Grow {
		c.growCheck(name)
	} else {
		c.writeLine("if %s >= int64(len(mem)) { status = 1; return }", name)
	}
}

// growCheck emits tape growth for an index that may exceed the tape.
func (c *AOTCompiler) growCheck(name string) {
	c.writeLine("for %s >= int64(len(mem)) {", name)
	c.indent++
	c.writeLine("grown := make([]byte, len(mem)*2)")
	c.writeLine("copy(grown, mem)")
	c.writeLine("mem = grown")
	c.indent--
	c.writeLine("}")
}

// step emits the per-instruction budget check.
func (c *AOTCompiler) step() {
	c.writeLine("steps++")
	c.writeLine("if steps > maxSteps { status = 3; return }")
}

func (c *AOTCompiler) label(index int) {
	c.indent--
	c.writeLine("L%d:", index)
	c.indent++
}

func (c *AOTCompiler) writeLine(format string, args ...interface{}) {
	for i := 0; i < c.indent; i++ {
		c.sb.WriteString("\t")
	}
	fmt.Fprintf(&c.sb, format, args...)
	c.sb.WriteString("\n")
}
