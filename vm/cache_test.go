package vm

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/tapir/compiler"
)

func TestProgramCache(t *testing.T) {
	cache, err := OpenProgramCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenProgramCache failed: %v", err)
	}
	defer cache.Close()

	prog, err := Compile("++[>+<-]", compiler.O3)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if _, err := cache.Get(prog.HashString(), compiler.O3); !errors.Is(err, ErrProgramNotCached) {
		t.Errorf("Get on empty cache = %v, want ErrProgramNotCached", err)
	}

	if err := cache.Put(prog); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := cache.Get(prog.HashString(), compiler.O3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got, prog) {
		t.Errorf("cached program mismatch:\ngot  %+v\nwant %+v", got, prog)
	}

	// Same source at another level is a distinct key.
	if _, err := cache.Get(prog.HashString(), compiler.O0); !errors.Is(err, ErrProgramNotCached) {
		t.Errorf("Get at other level = %v, want ErrProgramNotCached", err)
	}
}

func TestProgramCacheReplace(t *testing.T) {
	cache, err := OpenProgramCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenProgramCache failed: %v", err)
	}
	defer cache.Close()

	prog, err := Compile("+", compiler.O1)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := cache.Put(prog); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := cache.Put(prog); err != nil {
		t.Errorf("second Put failed: %v", err)
	}
}
