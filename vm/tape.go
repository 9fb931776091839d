package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Tape
// ---------------------------------------------------------------------------

// DefaultTapeSize matches the classic 64K-cell machine.
const DefaultTapeSize = 65536

// ErrTapeBounds reports a cursor access outside the tape.
var ErrTapeBounds = errors.New("tape cursor out of bounds")

// ErrCellBounds reports cell overflow/underflow when wrapping is disabled.
var ErrCellBounds = errors.New("cell value out of bounds")

// EOFPolicy controls what a read does once input is exhausted.
type EOFPolicy int

const (
	// EOFError fails the execution with an I/O error.
	EOFError EOFPolicy = iota

	// EOFSentinel stores a fixed sentinel byte instead of failing.
	EOFSentinel
)

// TapeConfig holds the policy choices the language itself leaves open.
// The defaults are: 8-bit wrapping cells, a fixed 64K tape, and a hard
// failure on exhausted input.
type TapeConfig struct {
	Size      int       // initial cell count
	Grow      bool      // grow on upper-bound overflow instead of failing
	WrapCells bool      // modular cell arithmetic; off means ErrCellBounds
	EOF       EOFPolicy // read behavior on exhausted input
	EOFByte   byte      // sentinel stored under EOFSentinel
}

// DefaultTapeConfig returns the documented default configuration.
func DefaultTapeConfig() TapeConfig {
	return TapeConfig{
		Size:      DefaultTapeSize,
		WrapCells: true,
		EOF:       EOFError,
	}
}

// Tape is the linear cell memory plus the cursor. A Tape is created fresh
// per execution and owned exclusively by that execution.
type Tape struct {
	cells   []byte
	pointer int
	cfg     TapeConfig
}

// NewTape creates a zeroed tape for the given configuration.
func NewTape(cfg TapeConfig) *Tape {
	if cfg.Size <= 0 {
		cfg.Size = DefaultTapeSize
	}
	return &Tape{cells: make([]byte, cfg.Size), cfg: cfg}
}

// Pointer returns the current cursor position.
func (t *Tape) Pointer() int {
	return t.pointer
}

// Move shifts the cursor by over. Moving below zero always fails; moving
// past the upper bound grows the tape or fails, per configuration.
func (t *Tape) Move(over int) error {
	p := t.pointer + over
	if p < 0 {
		return fmt.Errorf("%w: cursor %d", ErrTapeBounds, p)
	}
	if p >= len(t.cells) {
		if !t.cfg.Grow {
			return fmt.Errorf("%w: cursor %d (tape size %d)", ErrTapeBounds, p, len(t.cells))
		}
		t.grow(p)
	}
	t.pointer = p
	return nil
}

// index resolves cursor+offset to a cell index, growing if configured.
func (t *Tape) index(offset int) (int, error) {
	i := t.pointer + offset
	if i < 0 {
		return 0, fmt.Errorf("%w: cell %d", ErrTapeBounds, i)
	}
	if i >= len(t.cells) {
		if !t.cfg.Grow {
			return 0, fmt.Errorf("%w: cell %d (tape size %d)", ErrTapeBounds, i, len(t.cells))
		}
		t.grow(i)
	}
	return i, nil
}

func (t *Tape) grow(need int) {
	size := len(t.cells) * 2
	for size <= need {
		size *= 2
	}
	grown := make([]byte, size)
	copy(grown, t.cells)
	t.cells = grown
}

// At returns the cell value at cursor+offset.
func (t *Tape) At(offset int) (byte, error) {
	i, err := t.index(offset)
	if err != nil {
		return 0, err
	}
	return t.cells[i], nil
}

// AddAt adds delta to the cell at cursor+offset, with modular arithmetic
// when wrapping is configured and a bounds failure otherwise.
func (t *Tape) AddAt(offset, delta int) error {
	i, err := t.index(offset)
	if err != nil {
		return err
	}
	if t.cfg.WrapCells {
		t.cells[i] = byte(int(t.cells[i]) + delta)
		return nil
	}
	v := int(t.cells[i]) + delta
	if v < 0 || v > 255 {
		return fmt.Errorf("%w: cell %d would become %d", ErrCellBounds, i, v)
	}
	t.cells[i] = byte(v)
	return nil
}

// SetAt stores value into the cell at cursor+offset.
func (t *Tape) SetAt(offset, value int) error {
	i, err := t.index(offset)
	if err != nil {
		return err
	}
	t.cells[i] = byte(value)
	return nil
}

// Snapshot returns a copy of the tape trimmed to the last nonzero cell.
func (t *Tape) Snapshot() []byte {
	last := -1
	for i, c := range t.cells {
		if c != 0 {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	out := make([]byte, last+1)
	copy(out, t.cells[:last+1])
	return out
}
