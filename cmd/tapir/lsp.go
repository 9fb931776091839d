package main

import (
	"flag"

	"github.com/chazu/tapir/server"
)

func cmdLsp(args []string) error {
	fs := flag.NewFlagSet("tapir lsp", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return server.NewLSP().Run()
}
