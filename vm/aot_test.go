package vm

import (
	"strings"
	"testing"

	"github.com/chazu/tapir/compiler"
)

func TestAOTCompileProgramShape(t *testing.T) {
	prog, err := Compile("+[>+<-]>.", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	source := NewAOTCompiler(DefaultTapeConfig()).CompileProgram(prog)

	for _, want := range []string{
		"package main",
		"func Run(input []byte, maxSteps uint64) (output []byte, memory []byte, pointer int64, steps uint64, status int32) {",
		"if steps > maxSteps { status = 3; return }",
		"goto L",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("generated source missing %q", want)
		}
	}

	// Every goto has a matching label.
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "if mem[p]") {
			label := trimmed[strings.Index(trimmed, "goto ")+len("goto "):]
			label = strings.TrimSuffix(label, " }")
			if !strings.Contains(source, label+":\n") {
				t.Errorf("goto %s has no label", label)
			}
		}
	}
}

func TestAOTCompileDeterministic(t *testing.T) {
	prog, err := Compile("++[->+<]", compiler.O2)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	a := NewAOTCompiler(DefaultTapeConfig()).CompileProgram(prog)
	b := NewAOTCompiler(DefaultTapeConfig()).CompileProgram(prog)
	if a != b {
		t.Error("repeated compilations differ")
	}
}

func TestAOTCompileBakesPolicies(t *testing.T) {
	prog, err := Compile(",-", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	strict := DefaultTapeConfig()
	strict.WrapCells = false
	source := NewAOTCompiler(strict).CompileProgram(prog)
	if !strings.Contains(source, "status = 1") {
		t.Error("strict cell config generated no cell bounds check")
	}

	sentinel := DefaultTapeConfig()
	sentinel.EOF = EOFSentinel
	sentinel.EOFByte = 255
	source = NewAOTCompiler(sentinel).CompileProgram(prog)
	if !strings.Contains(source, "mem[q] = 255") {
		t.Error("sentinel EOF config not baked into generated read")
	}
	if strings.Contains(source, "status = 2") {
		t.Error("sentinel EOF config still fails on exhausted input")
	}
}

func TestAOTCompileBalancedBraces(t *testing.T) {
	prog, err := Compile("++[>[->+<]<-]", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	source := NewAOTCompiler(DefaultTapeConfig()).CompileProgram(prog)
	depth := 0
	for _, r := range source {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth < 0 {
			t.Fatal("unbalanced braces in generated source")
		}
	}
	if depth != 0 {
		t.Errorf("brace depth at end of source = %d, want 0", depth)
	}
}
