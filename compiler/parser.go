package compiler

import "fmt"

// ParseError reports malformed loop nesting. Parse errors are fatal before
// execution begins and carry the position of the offending bracket.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Parse scans the source left to right and builds the unoptimized IR tree.
// Loop nesting is checked with an explicit stack of pending opens: a close
// pops the stack, end-of-input with a non-empty stack is an unmatched open,
// and a close on an empty stack is an unmatched close.
func Parse(src string) ([]Node, error) {
	type openLoop struct {
		pos  Position
		body []Node
	}

	var current []Node
	var stack []openLoop

	lex := NewLexer(src)
	for {
		tok := lex.NextToken()
		if tok.Type == TokenEOF {
			break
		}

		switch tok.Type {
		case TokenPlus:
			current = append(current, &Add{X: 1, At: tok.Pos})
		case TokenMinus:
			current = append(current, &Add{X: -1, At: tok.Pos})
		case TokenRight:
			current = append(current, &Move{Over: 1, At: tok.Pos})
		case TokenLeft:
			current = append(current, &Move{Over: -1, At: tok.Pos})
		case TokenPrint:
			current = append(current, &Print{Times: 1, At: tok.Pos})
		case TokenRead:
			current = append(current, &Read{At: tok.Pos})
		case TokenOpen:
			stack = append(stack, openLoop{pos: tok.Pos, body: current})
			current = nil
		case TokenClose:
			if len(stack) == 0 {
				return nil, &ParseError{Pos: tok.Pos, Msg: "unmatched ']'"}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			loop := &Loop{Body: current, At: top.pos}
			current = append(top.body, loop)
		}
	}

	if len(stack) != 0 {
		top := stack[len(stack)-1]
		return nil, &ParseError{Pos: top.pos, Msg: "unmatched '['"}
	}

	return current, nil
}
