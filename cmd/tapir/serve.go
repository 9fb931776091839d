package main

import (
	"flag"
	"fmt"

	"github.com/chazu/tapir/server"
)

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("tapir serve", flag.ExitOnError)
	ef := addEngineFlags(fs)
	port := fs.Int("port", 4567, "Server port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ef.configureLogging()

	srv := server.New(ef.engine())
	return srv.ListenAndServe(fmt.Sprintf(":%d", *port))
}
