package vm

import (
	"reflect"
	"testing"

	"github.com/chazu/tapir/compiler"
)

func TestProgramImageRoundTrip(t *testing.T) {
	prog, err := Compile("++[>+<-]>.", compiler.O2)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	image, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	got, err := UnmarshalProgram(image)
	if err != nil {
		t.Fatalf("UnmarshalProgram failed: %v", err)
	}
	if !reflect.DeepEqual(got, prog) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, prog)
	}

	// Canonical encoding keeps images byte-stable.
	again, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	if !reflect.DeepEqual(image, again) {
		t.Error("repeated encodings differ")
	}
}

func TestUnmarshalProgramRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalProgram([]byte("not cbor")); err == nil {
		t.Error("garbage bytes decoded without error")
	}
}

func TestUnmarshalProgramRejectsBrokenJumps(t *testing.T) {
	prog, err := Compile("[+]", compiler.O0)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	prog.Ops[0].Target = 99

	image, err := MarshalProgram(prog)
	if err != nil {
		t.Fatalf("MarshalProgram failed: %v", err)
	}
	if _, err := UnmarshalProgram(image); err == nil {
		t.Error("image with broken jump targets decoded without error")
	}
}
