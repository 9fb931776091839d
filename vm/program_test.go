package vm

import (
	"testing"

	"github.com/chazu/tapir/compiler"
)

func TestCompileFlattensLoops(t *testing.T) {
	prog, err := Compile("+[-]", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := []Op{
		{Code: OpAdd, X: 1},
		{Code: OpJumpZero, Target: 4},
		{Code: OpAdd, X: -1},
		{Code: OpJumpNonZero, Target: 2},
	}
	if len(prog.Ops) != len(want) {
		t.Fatalf("got %d ops, want %d", len(prog.Ops), len(want))
	}
	for i, op := range prog.Ops {
		if op != want[i] {
			t.Errorf("op %d: got %+v, want %+v", i, op, want[i])
		}
	}
}

func TestCompileNestedLoopTargets(t *testing.T) {
	prog, err := Compile("[[+]]", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// Ops: JZ JZ Add JNZ JNZ. The outer pair wraps the inner pair; each
	// JZ jumps past its matching JNZ and each JNZ back to its body start.
	if got := prog.Ops[0].Target; got != 5 {
		t.Errorf("outer JZ target = %d, want 5", got)
	}
	if got := prog.Ops[4].Target; got != 1 {
		t.Errorf("outer JNZ target = %d, want 1", got)
	}
	if got := prog.Ops[1].Target; got != 4 {
		t.Errorf("inner JZ target = %d, want 4", got)
	}
	if got := prog.Ops[3].Target; got != 2 {
		t.Errorf("inner JNZ target = %d, want 2", got)
	}
}

func TestCompileHashDependsOnSource(t *testing.T) {
	a, err := Compile("+", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	b, err := Compile("-", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if a.Hash == b.Hash {
		t.Error("different sources produced the same hash")
	}
	if a.HashString() == "" || len(a.HashString()) != 64 {
		t.Errorf("HashString() = %q, want 64 hex chars", a.HashString())
	}
}

func TestCompileParseErrorPropagates(t *testing.T) {
	_, err := Compile("[", compiler.O2)
	if err == nil {
		t.Fatal("expected parse error for unmatched bracket")
	}
}

func TestValidate(t *testing.T) {
	prog, err := Compile("+[>+<-]", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := prog.Validate(); err != nil {
		t.Errorf("valid program failed validation: %v", err)
	}

	tampered := *prog
	tampered.Ops = append([]Op(nil), prog.Ops...)
	tampered.Ops[1].Target = 2
	if err := tampered.Validate(); err == nil {
		t.Error("broken cross-link passed validation")
	}

	tampered.Ops[1].Target = 99
	if err := tampered.Validate(); err == nil {
		t.Error("out-of-range target passed validation")
	}
}
