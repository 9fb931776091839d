package main

import (
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/tapir/compiler"
	"github.com/chazu/tapir/vm"
)

func cmdCompile(args []string) error {
	fs := flag.NewFlagSet("tapir compile", flag.ExitOnError)
	ef := addEngineFlags(fs)
	emit := fs.String("emit", "image", "Artifact to produce: image, source, or plugin")
	outDir := fs.String("o", ".", "Output directory")
	cachePath := fs.String("cache", "", "Reuse compiled programs from this SQLite cache")
	listing := fs.Bool("d", false, "Print the disassembled program to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile: expected exactly one program file")
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

	var cache *vm.ProgramCache
	if *cachePath != "" {
		cache, err = vm.OpenProgramCache(*cachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
	}

	prog, err := compileCached(source, level, cache)
	if err != nil {
		return err
	}
	if *listing {
		fmt.Print(vm.Disassemble(prog))
	}

	name := artifactName(fs.Arg(0), prog)
	switch *emit {
	case "image":
		image, err := vm.MarshalProgram(prog)
		if err != nil {
			return err
		}
		path := filepath.Join(*outDir, name+".tpi")
		if err := os.WriteFile(path, image, 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d ops, %s)\n", path, len(prog.Ops), prog.Opt)

	case "source":
		path, err := vm.WritePluginSource(prog, ef.engine().TapeConfig(), *outDir, name)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)

	case "plugin":
		path, err := vm.WritePluginSource(prog, ef.engine().TapeConfig(), *outDir, name)
		if err != nil {
			return err
		}
		pluginPath, err := vm.BuildPlugin(path)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pluginPath)

	default:
		return fmt.Errorf("compile: unknown -emit %q (want image, source, or plugin)", *emit)
	}
	return nil
}

// compileCached compiles source, going through the cache when one is open.
func compileCached(source string, level compiler.OptLevel, cache *vm.ProgramCache) (*vm.Program, error) {
	if cache == nil {
		return vm.Compile(source, level)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(source)))
	prog, err := cache.Get(hash, level)
	if err == nil {
		return prog, nil
	}
	if !errors.Is(err, vm.ErrProgramNotCached) {
		return nil, err
	}

	prog, err = vm.Compile(source, level)
	if err != nil {
		return nil, err
	}
	if err := cache.Put(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// artifactName derives an output base name from the program file name and
// content hash.
func artifactName(path string, prog *vm.Program) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "-" {
		base = "program"
	}
	return base + "_" + prog.HashString()[:8]
}
