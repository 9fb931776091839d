package compiler

import "fmt"

// TokenType identifies one of the eight Brainfuck commands.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenPlus          // +  increment current cell
	TokenMinus         // -  decrement current cell
	TokenRight         // >  move cursor right
	TokenLeft          // <  move cursor left
	TokenPrint         // .  write current cell to output
	TokenRead          // ,  read one byte into current cell
	TokenOpen          // [  loop open
	TokenClose         // ]  loop close
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenRight:
		return ">"
	case TokenLeft:
		return "<"
	case TokenPrint:
		return "."
	case TokenRead:
		return ","
	case TokenOpen:
		return "["
	case TokenClose:
		return "]"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position is a location in the source text. Line and Column are 1-based,
// Offset is the 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single command with its source position.
type Token struct {
	Type TokenType
	Pos  Position
}
