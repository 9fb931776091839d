package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/tapir/compiler"
	"github.com/chazu/tapir/vm"
)

// engineFlags is the tape and budget configuration shared by the run,
// test, and profile commands.
type engineFlags struct {
	opt      *string
	maxSteps *uint64
	tapeSize *int
	grow     *bool
	noWrap   *bool
	eofZero  *bool
	verbose  *bool
}

func addEngineFlags(fs *flag.FlagSet) *engineFlags {
	return &engineFlags{
		opt:      fs.String("O", "O2", "Optimization level (O0..O3)"),
		maxSteps: fs.Uint64("max-steps", vm.DefaultMaxSteps, "Execution step budget"),
		tapeSize: fs.Int("tape-size", vm.DefaultTapeSize, "Initial tape size in cells"),
		grow:     fs.Bool("grow", false, "Grow the tape instead of failing at the upper bound"),
		noWrap:   fs.Bool("no-wrap", false, "Fail on cell overflow instead of wrapping"),
		eofZero:  fs.Bool("eof-zero", false, "Reads past end of input store 0 instead of failing"),
		verbose:  fs.Bool("v", false, "Verbose logging"),
	}
}

func (f *engineFlags) configureLogging() {
	if *f.verbose {
		commonlog.Configure(1, nil)
	}
}

func (f *engineFlags) level() (compiler.OptLevel, error) {
	return compiler.ParseOptLevel(*f.opt)
}

func (f *engineFlags) engine() *vm.Engine {
	cfg := vm.TapeConfig{
		Size:      *f.tapeSize,
		Grow:      *f.grow,
		WrapCells: !*f.noWrap,
	}
	if *f.eofZero {
		cfg.EOF = vm.EOFSentinel
	}
	return vm.NewEngine(vm.WithTapeConfig(cfg), vm.WithMaxSteps(*f.maxSteps))
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("tapir run", flag.ExitOnError)
	ef := addEngineFlags(fs)
	strategyName := fs.String("strategy", "interpret", "Execution strategy: interpret or compile")
	inputFile := fs.String("input", "", "Read program input from this file instead of stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one program file")
	}
	ef.configureLogging()

	level, err := ef.level()
	if err != nil {
		return err
	}
	strategy, err := vm.ParseStrategy(*strategyName)
	if err != nil {
		return err
	}

	source, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	prog, err := vm.Compile(source, level)
	if err != nil {
		return err
	}

	var input io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	result, err := ef.engine().Execute(context.Background(), prog, input, strategy)
	if err != nil {
		return err
	}

	os.Stdout.Write(result.Output)
	if !result.OK() {
		return fmt.Errorf("%s after %d steps: %s", result.Status, result.Steps, result.Detail)
	}
	return nil
}
