package vm

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"runtime"

	"golang.org/x/tools/go/packages"
)

// ---------------------------------------------------------------------------
// Plugin build and load
// ---------------------------------------------------------------------------

// WritePluginSource generates the plugin source for prog and writes it to
// outputDir as <name>.go. Returns the source file path.
func WritePluginSource(prog *Program, cfg TapeConfig, outputDir, name string) (string, error) {
	return writeSource(NewAOTCompiler(cfg).CompileProgram(prog), outputDir, name)
}

// writeSource writes already-generated plugin source to outputDir as
// <name>.go, so callers that validated the source do not generate it twice.
func writeSource(source, outputDir, name string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	sourceFile := filepath.Join(outputDir, name+".go")
	if err := os.WriteFile(sourceFile, []byte(source), 0644); err != nil {
		return "", fmt.Errorf("writing plugin source: %w", err)
	}
	return sourceFile, nil
}

// ValidateSource type-checks generated plugin source in memory, before any
// go build is attempted. The source is supplied through an overlay so
// nothing needs to exist on disk.
func ValidateSource(source string) error {
	dir, err := os.MkdirTemp("", "tapir-validate-*")
	if err != nil {
		return fmt.Errorf("creating validation dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "plugin.go")
	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedSyntax | packages.NeedTypes,
		Dir:     dir,
		Overlay: map[string][]byte{path: []byte(source)},
	}
	pkgs, err := packages.Load(cfg, "file="+path)
	if err != nil {
		return fmt.Errorf("loading generated source: %w", err)
	}

	var problems []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			problems = append(problems, e.Msg)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("generated source does not type-check: %s", problems[0])
	}
	return nil
}

// BuildPlugin compiles a plugin source file to a .so next to it and
// returns the .so path.
func BuildPlugin(sourceFile string) (string, error) {
	if runtime.GOOS == "windows" {
		return "", errors.New("plugin mode not supported on Windows")
	}

	outputFile := sourceFile[:len(sourceFile)-len(".go")] + ".so"
	cmd := exec.Command("go", "build", "-buildmode=plugin", "-o", outputFile, sourceFile)
	cmd.Dir = filepath.Dir(sourceFile)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("building plugin: %w\noutput: %s", err, out)
	}
	return outputFile, nil
}

// LoadPlugin opens a compiled plugin and resolves the Run symbol.
func LoadPlugin(pluginPath string) (CompiledRun, error) {
	p, err := plugin.Open(pluginPath)
	if err != nil {
		return nil, fmt.Errorf("opening plugin: %w", err)
	}

	sym, err := p.Lookup(RunSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin missing %s symbol: %w", RunSymbol, err)
	}

	run, ok := sym.(func([]byte, uint64) ([]byte, []byte, int64, uint64, int32))
	if !ok {
		return nil, fmt.Errorf("%s has wrong signature, expected func([]byte, uint64) ([]byte, []byte, int64, uint64, int32)", RunSymbol)
	}
	return CompiledRun(run), nil
}
