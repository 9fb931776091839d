package compiler

import (
	"errors"
	"testing"
)

func TestParseSimpleProgram(t *testing.T) {
	nodes, err := Parse("+>-.")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := "Add{x: 1, offset: 0} Move{over: 1} Add{x: -1, offset: 0} Print{times: 1, offset: 0}"
	if got := Dump(nodes); got != want {
		t.Errorf("Parse = %s, want %s", got, want)
	}
}

func TestParseNestedLoops(t *testing.T) {
	nodes, err := Parse("+[>[--]<]")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Parse returned %d top-level nodes, want 2", len(nodes))
	}

	outer, ok := nodes[1].(*Loop)
	if !ok {
		t.Fatalf("nodes[1] = %T, want *Loop", nodes[1])
	}
	if len(outer.Body) != 3 {
		t.Fatalf("outer loop body has %d nodes, want 3", len(outer.Body))
	}
	if _, ok := outer.Body[1].(*Loop); !ok {
		t.Errorf("outer.Body[1] = %T, want *Loop", outer.Body[1])
	}
}

func TestParseUnmatchedOpen(t *testing.T) {
	_, err := Parse("++[>+")
	if err == nil {
		t.Fatal("Parse should fail on unmatched '['")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if perr.Pos.Offset != 2 {
		t.Errorf("ParseError offset = %d, want 2", perr.Pos.Offset)
	}
}

func TestParseUnmatchedClose(t *testing.T) {
	_, err := Parse("+]+")
	if err == nil {
		t.Fatal("Parse should fail on unmatched ']'")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if perr.Pos.Offset != 1 {
		t.Errorf("ParseError offset = %d, want 1", perr.Pos.Offset)
	}
}

func TestParseInnermostUnmatchedOpenReported(t *testing.T) {
	_, err := Parse("[[]")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Pos.Offset != 0 {
		t.Errorf("ParseError offset = %d, want 0", perr.Pos.Offset)
	}
}

func TestParseCommentsIgnored(t *testing.T) {
	nodes, err := Parse("hello [ world + ] done")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	loop, ok := nodes[0].(*Loop)
	if !ok {
		t.Fatalf("nodes[0] = %T, want *Loop", nodes[0])
	}
	if len(loop.Body) != 1 {
		t.Errorf("loop body has %d nodes, want 1", len(loop.Body))
	}
}
