package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ---------------------------------------------------------------------------
// Suite manifests
// ---------------------------------------------------------------------------

// Suite is one test manifest: a program plus the cases to run it against.
// Manifests are TOML files; file references inside them are resolved
// relative to the manifest's directory.
type Suite struct {
	Name     string `toml:"name"`
	Program  string `toml:"program"` // path to a source file
	Source   string `toml:"source"`  // inline source, alternative to Program
	Opt      string `toml:"opt"`
	Strategy string `toml:"strategy"`
	MaxSteps uint64 `toml:"max_steps"`

	// Hygiene checks on the final machine state, both on by default:
	// the cursor must come to rest at cell zero and the tape must be
	// all zero when a case completes.
	CheckPointer *bool `toml:"check_pointer"`
	CheckMemory  *bool `toml:"check_memory"`

	Cases []Case `toml:"case"`
}

// Case is one input/expectation pair.
type Case struct {
	Name       string `toml:"name"`
	Input      string `toml:"input"`
	InputFile  string `toml:"input_file"`
	Output     string `toml:"output"`
	OutputFile string `toml:"output_file"`
	Status     string `toml:"status"` // expected final status, default "ok"
}

// PointerChecked reports whether the cursor-at-zero check applies.
func (s *Suite) PointerChecked() bool {
	return s.CheckPointer == nil || *s.CheckPointer
}

// MemoryChecked reports whether the all-zero-tape check applies.
func (s *Suite) MemoryChecked() bool {
	return s.CheckMemory == nil || *s.CheckMemory
}

// LoadSuite reads, validates, and resolves a manifest. After a successful
// load, Source holds the program text and every case holds its literal
// input and expected output; no file references remain.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if err := validateManifest(data); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var suite Suite
	if err := toml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}

	if (suite.Program == "") == (suite.Source == "") {
		return nil, fmt.Errorf("manifest %s: exactly one of program and source must be set", path)
	}
	if suite.Opt == "" {
		suite.Opt = "O2"
	}
	if suite.Strategy == "" {
		suite.Strategy = "interpret"
	}

	dir := filepath.Dir(path)
	if suite.Program != "" {
		src, err := os.ReadFile(filepath.Join(dir, suite.Program))
		if err != nil {
			return nil, fmt.Errorf("reading program %s: %w", suite.Program, err)
		}
		suite.Source = string(src)
		suite.Program = ""
	}

	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.InputFile != "" {
			data, err := os.ReadFile(filepath.Join(dir, c.InputFile))
			if err != nil {
				return nil, fmt.Errorf("case %q: reading input: %w", c.Name, err)
			}
			c.Input = string(data)
			c.InputFile = ""
		}
		if c.OutputFile != "" {
			data, err := os.ReadFile(filepath.Join(dir, c.OutputFile))
			if err != nil {
				return nil, fmt.Errorf("case %q: reading output: %w", c.Name, err)
			}
			c.Output = string(data)
			c.OutputFile = ""
		}
		if c.Status == "" {
			c.Status = "ok"
		}
	}

	return &suite, nil
}
