package vm

import (
	"os"
	"testing"

	"github.com/chazu/tapir/compiler"
)

func TestWritePluginSourceMatchesGenerator(t *testing.T) {
	prog, err := Compile("+[>+<-]>.", compiler.O2)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	dir := t.TempDir()
	path, err := WritePluginSource(prog, DefaultTapeConfig(), dir, "unit")
	if err != nil {
		t.Fatalf("WritePluginSource failed: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	want := NewAOTCompiler(DefaultTapeConfig()).CompileProgram(prog)
	if string(written) != want {
		t.Error("written source differs from the generator's output")
	}
}

func TestWriteSourceCreatesOutputDir(t *testing.T) {
	dir := t.TempDir() + "/nested/out"
	path, err := writeSource("package main\n", dir, "unit")
	if err != nil {
		t.Fatalf("writeSource failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source file missing: %v", err)
	}
}
