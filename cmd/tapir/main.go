// tapir - optimizing toolchain for a tiny tape language
//
// Usage:
//   tapir run [-O O2] [-strategy interpret] prog.bf   # execute a program
//   tapir test suite.toml...                          # run test suites
//   tapir compile [-emit image] prog.bf               # compile ahead of time
//   tapir profile prog.bf                             # execute and profile
//   tapir serve [-port 4567]                          # Connect HTTP server
//   tapir lsp                                         # LSP server on stdio
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tapir <command> [options] [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run      Execute a program\n")
	fmt.Fprintf(os.Stderr, "  test     Run test suite manifests\n")
	fmt.Fprintf(os.Stderr, "  compile  Compile a program to an image or native plugin\n")
	fmt.Fprintf(os.Stderr, "  profile  Execute a program and report hot spots\n")
	fmt.Fprintf(os.Stderr, "  serve    Start the Connect HTTP server\n")
	fmt.Fprintf(os.Stderr, "  lsp      Start the language server on stdio\n")
	fmt.Fprintf(os.Stderr, "\nRun 'tapir <command> -h' for command options.\n")
}

func main() {
	commonlog.Configure(0, nil)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = cmdRun(os.Args[2:])
	case "test":
		err = cmdTest(os.Args[2:])
	case "compile":
		err = cmdCompile(os.Args[2:])
	case "profile":
		err = cmdProfile(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "lsp":
		err = cmdLsp(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "tapir: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tapir: %v\n", err)
		os.Exit(1)
	}
}

// readSource loads program text from a file, or from stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
