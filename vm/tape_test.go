package vm

import (
	"bytes"
	"errors"
	"testing"
)

func TestTapeMoveBounds(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 4})

	if err := tape.Move(-1); !errors.Is(err, ErrTapeBounds) {
		t.Errorf("Move(-1) = %v, want ErrTapeBounds", err)
	}
	if err := tape.Move(3); err != nil {
		t.Errorf("Move(3) failed: %v", err)
	}
	if err := tape.Move(1); !errors.Is(err, ErrTapeBounds) {
		t.Errorf("Move past upper bound = %v, want ErrTapeBounds", err)
	}
	if got := tape.Pointer(); got != 3 {
		t.Errorf("Pointer() = %d after failed move, want 3", got)
	}
}

func TestTapeGrowth(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 4, Grow: true})

	if err := tape.Move(10); err != nil {
		t.Fatalf("Move(10) with growth failed: %v", err)
	}
	if err := tape.SetAt(0, 7); err != nil {
		t.Fatalf("SetAt after growth failed: %v", err)
	}
	v, err := tape.At(0)
	if err != nil || v != 7 {
		t.Errorf("At(0) = (%d, %v), want (7, nil)", v, err)
	}

	// Growth never relaxes the lower bound.
	if err := tape.Move(-11); !errors.Is(err, ErrTapeBounds) {
		t.Errorf("Move below zero = %v, want ErrTapeBounds", err)
	}
}

func TestTapeOffsetAccess(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 8})

	if err := tape.AddAt(3, 5); err != nil {
		t.Fatalf("AddAt(3, 5) failed: %v", err)
	}
	v, err := tape.At(3)
	if err != nil || v != 5 {
		t.Errorf("At(3) = (%d, %v), want (5, nil)", v, err)
	}
	if _, err := tape.At(-1); !errors.Is(err, ErrTapeBounds) {
		t.Errorf("At(-1) = %v, want ErrTapeBounds", err)
	}
	if _, err := tape.At(8); !errors.Is(err, ErrTapeBounds) {
		t.Errorf("At(8) = %v, want ErrTapeBounds", err)
	}
}

func TestTapeCellWrapping(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 4, WrapCells: true})

	if err := tape.AddAt(0, -1); err != nil {
		t.Fatalf("AddAt(0, -1) failed: %v", err)
	}
	if v, _ := tape.At(0); v != 255 {
		t.Errorf("cell after 0-1 = %d, want 255", v)
	}
	if err := tape.AddAt(0, 1); err != nil {
		t.Fatalf("AddAt(0, 1) failed: %v", err)
	}
	if v, _ := tape.At(0); v != 0 {
		t.Errorf("cell after 255+1 = %d, want 0", v)
	}
}

func TestTapeCellStrict(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 4, WrapCells: false})

	if err := tape.AddAt(0, -1); !errors.Is(err, ErrCellBounds) {
		t.Errorf("underflow = %v, want ErrCellBounds", err)
	}
	if err := tape.AddAt(0, 255); err != nil {
		t.Fatalf("AddAt(0, 255) failed: %v", err)
	}
	if err := tape.AddAt(0, 1); !errors.Is(err, ErrCellBounds) {
		t.Errorf("overflow = %v, want ErrCellBounds", err)
	}
}

func TestTapeSnapshotTrims(t *testing.T) {
	tape := NewTape(TapeConfig{Size: 8})

	if got := tape.Snapshot(); got != nil {
		t.Errorf("Snapshot of zeroed tape = %v, want nil", got)
	}
	tape.SetAt(2, 9)
	if got := tape.Snapshot(); !bytes.Equal(got, []byte{0, 0, 9}) {
		t.Errorf("Snapshot = %v, want [0 0 9]", got)
	}
}
