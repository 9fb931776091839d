package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "suite.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadSuiteInlineSource(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name = "echo"
source = ",."
opt = "O1"

[[case]]
name = "one byte"
input = "x"
output = "x"
`)

	suite, err := LoadSuite(path)
	if err != nil {
		t.Fatalf("LoadSuite failed: %v", err)
	}
	if suite.Name != "echo" || suite.Source != ",." || suite.Opt != "O1" {
		t.Errorf("suite = %+v", suite)
	}
	if suite.Strategy != "interpret" {
		t.Errorf("default strategy = %q, want interpret", suite.Strategy)
	}
	if len(suite.Cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(suite.Cases))
	}
	c := suite.Cases[0]
	if c.Name != "one byte" || c.Input != "x" || c.Output != "x" || c.Status != "ok" {
		t.Errorf("case = %+v", c)
	}
	if !suite.PointerChecked() || !suite.MemoryChecked() {
		t.Error("hygiene checks not on by default")
	}
}

func TestLoadSuiteFileReferences(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "prog.bf"), []byte(",."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeManifest(t, dir, `
name = "files"
program = "prog.bf"

[[case]]
name = "from file"
input_file = "in.txt"
output = "h"
`)

	suite, err := LoadSuite(path)
	if err != nil {
		t.Fatalf("LoadSuite failed: %v", err)
	}
	if suite.Source != ",." {
		t.Errorf("Source = %q, want %q", suite.Source, ",.")
	}
	if suite.Cases[0].Input != "hi" {
		t.Errorf("Input = %q, want %q", suite.Cases[0].Input, "hi")
	}
}

func TestLoadSuiteRejectsUnknownKeys(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name = "typo"
source = "+"
optt = "O1"

[[case]]
name = "x"
output = ""
`)

	_, err := LoadSuite(path)
	if err == nil || !strings.Contains(err.Error(), "invalid manifest") {
		t.Errorf("LoadSuite = %v, want invalid manifest error", err)
	}
}

func TestLoadSuiteRejectsBadOptLevel(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name = "bad"
source = "+"
opt = "O9"

[[case]]
name = "x"
output = ""
`)

	if _, err := LoadSuite(path); err == nil {
		t.Error("manifest with bad opt level accepted")
	}
}

func TestLoadSuiteRequiresExactlyOneProgram(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name = "neither"

[[case]]
name = "x"
output = ""
`)

	if _, err := LoadSuite(path); err == nil {
		t.Error("manifest without program or source accepted")
	}
}

func TestLoadSuiteRequiresCases(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name = "empty"
source = "+"
`)

	if _, err := LoadSuite(path); err == nil {
		t.Error("manifest without cases accepted")
	}
}
