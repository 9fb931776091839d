package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/tapir/vm"
)

func cmdProfile(args []string) error {
	fs := flag.NewFlagSet("tapir profile", flag.ExitOnError)
	ef := addEngineFlags(fs)
	inputFile := fs.String("input", "", "Read program input from this file instead of stdin")
	dbPath := fs.String("db", "", "Record the profile in this DuckDB database")
	top := fs.Int("top", 10, "Number of hottest loops to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("profile: expected exactly one program file")
	}
	ef.configureLogging()

	level, err := ef.level()
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

	engine := ef.engine()
	engine.Profiler = vm.NewProfiler()
	result, err := engine.Execute(context.Background(), prog, input, vm.StrategyInterpret)
	if err != nil {
		return err
	}
	os.Stdout.Write(result.Output)

	stats := engine.Profiler.Stats()
	fmt.Fprintf(os.Stderr, "\n--- profile: %d steps, status %s ---\n", stats.TotalSteps, result.Status)
	fmt.Fprintf(os.Stderr, "opcode  executions\n")
	for _, op := range stats.Ops {
		fmt.Fprintf(os.Stderr, "%-6s  %d\n", op.Code, op.Executions)
	}
	if len(stats.Loops) > 0 {
		fmt.Fprintf(os.Stderr, "\nloop@op  iterations\n")
		for i, loop := range stats.Loops {
			if i >= *top {
				break
			}
			marker := ""
			if loop.Hot {
				marker = "  hot"
			}
			fmt.Fprintf(os.Stderr, "%-7d  %d%s\n", loop.OpenIndex, loop.Iterations, marker)
		}
	}

	if *dbPath != "" {
		store, err := vm.OpenProfileStore(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runID, err := store.RecordRun(prog, stats)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nrecorded as run %d in %s\n", runID, *dbPath)
	}

	if !result.OK() {
		return fmt.Errorf("%s after %d steps: %s", result.Status, result.Steps, result.Detail)
	}
	return nil
}
