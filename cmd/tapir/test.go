package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/chazu/tapir/harness"
)

func cmdTest(args []string) error {
	fs := flag.NewFlagSet("tapir test", flag.ExitOnError)
	ef := addEngineFlags(fs)
	parallel := fs.Int("parallel", 1, "Concurrent cases per suite")
	historyPath := fs.String("history", "", "Record results in this SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("test: expected at least one suite manifest")
	}
	ef.configureLogging()

	runner := harness.NewRunner(ef.engine())
	runner.Parallelism = *parallel
	if *historyPath != "" {
		history, err := harness.OpenHistory(*historyPath)
		if err != nil {
			return err
		}
		defer history.Close()
		runner.History = history
	}

	failed := 0
	for _, path := range fs.Args() {
		suite, err := harness.LoadSuite(path)
		if err != nil {
			return err
		}
		result, err := runner.RunSuite(context.Background(), suite)
		if err != nil {
			return err
		}

		for i := range result.Cases {
			c := &result.Cases[i]
			if c.Passed() {
				fmt.Printf("ok    %s / %s (%v)\n", c.Suite, c.Case, c.Duration)
				continue
			}
			fmt.Printf("FAIL  %s / %s\n", c.Suite, c.Case)
			for _, f := range c.Failures {
				fmt.Printf("        %s\n", f)
			}
		}
		failed += result.Failed()
	}

	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}
