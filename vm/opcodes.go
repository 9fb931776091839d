package vm

import "fmt"

// Opcode identifies one linear-program instruction.
type Opcode byte

const (
	// ========================================================================
	// Cell updates (0x00-0x0F)
	// ========================================================================

	OpAdd Opcode = 0x00 // Add X to cell at cursor+Offset
	OpSet Opcode = 0x01 // Store X into cell at cursor+Offset
	OpMul Opcode = 0x02 // Add cell(cursor+Offset) * Y into cell at cursor+Offset+X

	// ========================================================================
	// Cursor (0x10-0x1F)
	// ========================================================================

	OpMove Opcode = 0x10 // Move cursor by X

	// ========================================================================
	// I/O (0x20-0x2F)
	// ========================================================================

	OpPrint Opcode = 0x20 // Write cell at cursor+Offset to output X times
	OpRead  Opcode = 0x21 // Read one input byte into cell at cursor+Offset

	// ========================================================================
	// Control flow (0x30-0x3F)
	// ========================================================================

	OpJumpZero    Opcode = 0x30 // Loop open: if cell is zero, jump to Target
	OpJumpNonZero Opcode = 0x31 // Loop close: if cell is nonzero, jump to Target
)

func (op Opcode) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpSet:
		return "SET"
	case OpMul:
		return "MUL"
	case OpMove:
		return "MOVE"
	case OpPrint:
		return "PRINT"
	case OpRead:
		return "READ"
	case OpJumpZero:
		return "JZ"
	case OpJumpNonZero:
		return "JNZ"
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}
