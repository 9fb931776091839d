package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Intermediate representation
// ---------------------------------------------------------------------------

// Node is one instruction in the optimizer's tree-shaped IR. The tree form
// mirrors the loop nesting of the source; the vm package flattens it into
// a linear program with resolved jump targets.
//
// Offsets address cells relative to the cursor without moving it, which is
// what lets the optimizer delete Move instructions.
type Node interface {
	Pos() Position
	irNode()
}

// Add adds X (possibly negative) to the cell at cursor+Offset.
type Add struct {
	X      int
	Offset int
	At     Position
}

// Move moves the cursor by Over (possibly negative).
type Move struct {
	Over int
	At   Position
}

// Print writes the cell at cursor+Offset to the output Times times.
type Print struct {
	Times  int
	Offset int
	At     Position
}

// Read stores one input byte into the cell at cursor+Offset.
type Read struct {
	Offset int
	At     Position
}

// Set stores the exact value X into the cell at cursor+Offset.
// The optimizer produces Set{X: 0} for clear loops like [-].
type Set struct {
	X      int
	Offset int
	At     Position
}

// Mul adds cell(cursor+Offset) * Y into the cell at cursor+Offset+X.
// Produced by the copy/multiply loop pass.
type Mul struct {
	X      int
	Y      int
	Offset int
	At     Position
}

// Loop executes Body repeatedly while the cell under the cursor is nonzero.
type Loop struct {
	Body []Node
	At   Position
}

func (n *Add) Pos() Position   { return n.At }
func (n *Move) Pos() Position  { return n.At }
func (n *Print) Pos() Position { return n.At }
func (n *Read) Pos() Position  { return n.At }
func (n *Set) Pos() Position   { return n.At }
func (n *Mul) Pos() Position   { return n.At }
func (n *Loop) Pos() Position  { return n.At }

func (*Add) irNode()   {}
func (*Move) irNode()  {}
func (*Print) irNode() {}
func (*Read) irNode()  {}
func (*Set) irNode()   {}
func (*Mul) irNode()   {}
func (*Loop) irNode()  {}

func (n *Add) String() string {
	return fmt.Sprintf("Add{x: %d, offset: %d}", n.X, n.Offset)
}

func (n *Move) String() string {
	return fmt.Sprintf("Move{over: %d}", n.Over)
}

func (n *Print) String() string {
	return fmt.Sprintf("Print{times: %d, offset: %d}", n.Times, n.Offset)
}

func (n *Read) String() string {
	return fmt.Sprintf("Read{offset: %d}", n.Offset)
}

func (n *Set) String() string {
	return fmt.Sprintf("Set{x: %d, offset: %d}", n.X, n.Offset)
}

func (n *Mul) String() string {
	return fmt.Sprintf("Mul{x: %d, y: %d, offset: %d}", n.X, n.Y, n.Offset)
}

func (n *Loop) String() string {
	parts := make([]string, len(n.Body))
	for i, inner := range n.Body {
		parts[i] = fmt.Sprint(inner)
	}
	return "Loop{" + strings.Join(parts, " ") + "}"
}

// Dump renders an IR sequence on one line, mostly for tests and debugging.
func Dump(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
