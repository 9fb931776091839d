package compiler

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Optimization levels
// ---------------------------------------------------------------------------

// OptLevel selects how aggressively the IR is rewritten before flattening.
type OptLevel int

const (
	// O0 is the plain parse with no rewriting.
	O0 OptLevel = iota

	// O1 folds adjacent instructions, turns clear loops into Set 0, and
	// deletes loops that can never run.
	O1

	// O2 tracks cell offsets so Move instructions between cell updates
	// disappear, and merges non-adjacent updates to the same cell.
	O2

	// O3 additionally rewrites balanced multiply/copy loops into Mul.
	O3
)

func (l OptLevel) String() string {
	if l < O0 || l > O3 {
		return fmt.Sprintf("OptLevel(%d)", int(l))
	}
	return fmt.Sprintf("O%d", int(l))
}

// ParseOptLevel maps a CLI/config string like "O2" to an OptLevel.
func ParseOptLevel(s string) (OptLevel, error) {
	switch s {
	case "O0", "0":
		return O0, nil
	case "O1", "1":
		return O1, nil
	case "O2", "2":
		return O2, nil
	case "O3", "3":
		return O3, nil
	}
	return 0, fmt.Errorf("unknown optimization level %q (want O0..O3)", s)
}

// Optimize parses the source and applies the rewrite passes for the given
// level. Level passes are cumulative: O2 includes O1, O3 includes O2.
func Optimize(src string, level OptLevel) ([]Node, error) {
	nodes, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if level >= O1 {
		nodes = foldPass(nodes, true)
	}
	if level >= O2 {
		nodes = offsetPass(nodes)
	}
	if level >= O3 {
		nodes = mulPass(nodes)
	}
	return nodes, nil
}

// ---------------------------------------------------------------------------
// O1: instruction folding
// ---------------------------------------------------------------------------

// foldPass joins adjacent Add, Move, and Print instructions, rewrites [-]
// and [+] into Set 0, drops Adds and Set 0s that a Read immediately
// overwrites, and drops loops whose test cell is known to be zero (a loop
// directly after another loop, after a Set 0, or at program start).
//
// programStart seeds an implicit Set 0: at program start every cell is
// zero, so a leading loop can never execute. The seed is removed again
// before returning.
func foldPass(nodes []Node, programStart bool) []Node {
	var result []Node
	if programStart {
		result = append(result, &Set{X: 0, Offset: 0})
	}

	for _, n := range nodes {
		if len(result) == 0 {
			result = append(result, foldInto(n))
			continue
		}

		last := result[len(result)-1]
		switch prev := last.(type) {
		case *Add:
			if add, ok := n.(*Add); ok && prev.Offset == 0 && add.Offset == 0 {
				prev.X += add.X
				continue
			}
			if rd, ok := n.(*Read); ok && prev.Offset == 0 && rd.Offset == 0 {
				// The read overwrites whatever the add produced.
				result[len(result)-1] = rd
				continue
			}
		case *Move:
			if mv, ok := n.(*Move); ok {
				prev.Over += mv.Over
				continue
			}
		case *Print:
			if pr, ok := n.(*Print); ok {
				prev.Times += pr.Times
				continue
			}
		case *Set:
			if prev.X == 0 && prev.Offset == 0 {
				if rd, ok := n.(*Read); ok && rd.Offset == 0 {
					result[len(result)-1] = rd
					continue
				}
				if _, ok := n.(*Loop); ok {
					// Cell is known zero, the loop can never run.
					continue
				}
			}
		case *Loop:
			if _, ok := n.(*Loop); ok {
				// A loop leaves its test cell at zero, so a loop
				// immediately after a loop never runs.
				continue
			}
		}

		result = append(result, foldInto(n))
	}

	if programStart {
		return result[1:]
	}
	return result
}

// foldInto rewrites a single node for the fold pass, recursing into loops
// and turning [-] / [+] into Set 0.
func foldInto(n Node) Node {
	loop, ok := n.(*Loop)
	if !ok {
		return n
	}
	if len(loop.Body) == 1 {
		if add, ok := loop.Body[0].(*Add); ok && add.Offset == 0 && (add.X == 1 || add.X == -1) {
			return &Set{X: 0, Offset: 0, At: loop.At}
		}
	}
	return &Loop{Body: foldPass(loop.Body, false), At: loop.At}
}

// ---------------------------------------------------------------------------
// O2: offset tracking
// ---------------------------------------------------------------------------

// cellBehavior records the pending effect on one cell: either a relative
// add or an exact value. Pending effects are flushed before anything that
// observes or branches on memory.
type cellBehavior struct {
	exact bool
	x     int
}

// offsetPass removes Move instructions by tracking the cursor offset within
// a straight-line block and attaching it to cell updates. Non-adjacent
// updates to the same cell merge in the pending map. Loops force a flush
// and a single Move so the loop test still sees the real cursor; any
// residual offset at block end becomes one trailing Move, keeping the
// final cursor position identical to the unoptimized program's.
func offsetPass(nodes []Node) []Node {
	var result []Node
	pending := make(map[int]cellBehavior)
	offset := 0

	flush := func() {
		// Deterministic emission order; the updates are independent.
		offs := make([]int, 0, len(pending))
		for o := range pending {
			offs = append(offs, o)
		}
		sort.Ints(offs)
		for _, o := range offs {
			b := pending[o]
			if b.exact {
				result = append(result, &Set{X: b.x, Offset: o})
			} else if b.x != 0 {
				result = append(result, &Add{X: b.x, Offset: o})
			}
		}
		pending = make(map[int]cellBehavior)
	}

	for _, n := range nodes {
		switch n := n.(type) {
		case *Move:
			offset += n.Over

		case *Add:
			b, ok := pending[offset+n.Offset]
			if !ok {
				pending[offset+n.Offset] = cellBehavior{x: n.X}
			} else {
				b.x += n.X
				pending[offset+n.Offset] = b
			}

		case *Set:
			pending[offset+n.Offset] = cellBehavior{exact: true, x: n.X}

		case *Read:
			// The read clobbers the cell, so its pending effect dies.
			delete(pending, offset+n.Offset)
			result = append(result, &Read{Offset: offset + n.Offset, At: n.At})

		case *Print:
			at := offset + n.Offset
			if b, ok := pending[at]; ok {
				if b.exact {
					result = append(result, &Set{X: b.x, Offset: at})
				} else if b.x != 0 {
					result = append(result, &Add{X: b.x, Offset: at})
				}
				delete(pending, at)
			}
			result = append(result, &Print{Times: n.Times, Offset: at, At: n.At})

		case *Loop:
			if b, ok := pending[offset]; ok && b.exact && b.x == 0 {
				// Test cell is exactly zero, the loop never runs.
				continue
			}
			flush()
			if offset != 0 {
				result = append(result, &Move{Over: offset})
			}
			result = append(result, &Loop{Body: offsetPass(n.Body), At: n.At})
			offset = 0

		case *Mul:
			flush()
			result = append(result, &Mul{X: n.X, Y: n.Y, Offset: offset + n.Offset, At: n.At})
		}
	}

	flush()
	if offset != 0 {
		result = append(result, &Move{Over: offset})
	}
	return result
}

// ---------------------------------------------------------------------------
// O3: multiply/copy loops
// ---------------------------------------------------------------------------

// mulPass rewrites balanced loops whose body is only cell updates with a
// net -1 on the test cell, e.g. [->++>+<<], into a run of Mul instructions
// followed by Set 0. After the offset pass such loops have no Move left in
// the body, so the rewrite is a shape check on Add nodes.
func mulPass(nodes []Node) []Node {
	var result []Node
	for _, n := range nodes {
		loop, ok := n.(*Loop)
		if !ok {
			result = append(result, n)
			continue
		}

		factors, ok := mulFactors(loop)
		if !ok {
			result = append(result, &Loop{Body: mulPass(loop.Body), At: loop.At})
			continue
		}

		offs := make([]int, 0, len(factors))
		for o := range factors {
			offs = append(offs, o)
		}
		sort.Ints(offs)
		for _, o := range offs {
			result = append(result, &Mul{X: o, Y: factors[o], Offset: 0, At: loop.At})
		}
		result = append(result, &Set{X: 0, Offset: 0, At: loop.At})
	}
	return result
}

// mulFactors returns the per-cell multipliers for a multiply loop, or
// ok=false if the loop does not have the required shape: every body node
// is an Add, the test cell changes by exactly -1 per iteration, and at
// least the test cell is touched.
func mulFactors(loop *Loop) (map[int]int, bool) {
	deltas := make(map[int]int)
	for _, n := range loop.Body {
		add, ok := n.(*Add)
		if !ok {
			return nil, false
		}
		deltas[add.Offset] += add.X
	}
	if deltas[0] != -1 {
		return nil, false
	}
	delete(deltas, 0)
	return deltas, true
}
