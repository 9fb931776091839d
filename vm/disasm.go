package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders a program as one instruction per line, with resolved
// jump targets, for the CLI and for debugging optimizer output.
func Disassemble(p *Program) string {
	var sb strings.Builder
	for i, op := range p.Ops {
		fmt.Fprintf(&sb, "%04d  %s", i, formatOp(op))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatOp(op Op) string {
	switch op.Code {
	case OpAdd:
		return fmt.Sprintf("ADD   %+d @%d", op.X, op.Offset)
	case OpSet:
		return fmt.Sprintf("SET   %d @%d", op.X, op.Offset)
	case OpMul:
		return fmt.Sprintf("MUL   cell[@%d+%d] += cell[@%d] * %d", op.Offset, op.X, op.Offset, op.Y)
	case OpMove:
		return fmt.Sprintf("MOVE  %+d", op.X)
	case OpPrint:
		return fmt.Sprintf("PRINT x%d @%d", op.X, op.Offset)
	case OpRead:
		return fmt.Sprintf("READ  @%d", op.Offset)
	case OpJumpZero:
		return fmt.Sprintf("JZ    -> %04d", op.Target)
	case OpJumpNonZero:
		return fmt.Sprintf("JNZ   -> %04d", op.Target)
	}
	return op.Code.String()
}
