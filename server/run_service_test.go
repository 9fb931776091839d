package server

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/tapir/vm"
)

func bg() context.Context {
	return context.Background()
}

func newTestRunService() *RunService {
	return NewRunService(vm.NewEngine(vm.WithMaxSteps(100000)))
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_Print(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Run(bg(), connect.NewRequest(&RunRequest{
		Source: strings.Repeat("+", 72) + ".",
	}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if resp.Msg.Status != "ok" {
		t.Fatalf("Run status = %q (%s), want ok", resp.Msg.Status, resp.Msg.Detail)
	}
	if resp.Msg.Output != "H" {
		t.Errorf("Run output = %q, want %q", resp.Msg.Output, "H")
	}
}

func TestRun_WithInput(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Run(bg(), connect.NewRequest(&RunRequest{
		Source: ",.,.",
		Input:  "ok",
	}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if resp.Msg.Output != "ok" {
		t.Errorf("Run output = %q, want %q", resp.Msg.Output, "ok")
	}
}

func TestRun_RuntimeFailureInBody(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Run(bg(), connect.NewRequest(&RunRequest{
		Source: "<",
	}))
	if err != nil {
		t.Fatalf("runtime failure should not be a Connect error, got %v", err)
	}
	if resp.Msg.Status != "bounds error" {
		t.Errorf("Run status = %q, want %q", resp.Msg.Status, "bounds error")
	}
}

func TestRun_StepBudgetInBody(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Run(bg(), connect.NewRequest(&RunRequest{
		Source: "+[]",
		Opt:    "O0",
	}))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if resp.Msg.Status != "timeout" {
		t.Errorf("Run status = %q, want %q", resp.Msg.Status, "timeout")
	}
}

func TestRun_EmptySourceRejected(t *testing.T) {
	svc := newTestRunService()

	_, err := svc.Run(bg(), connect.NewRequest(&RunRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Run error code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}

func TestRun_UnmatchedBracketRejected(t *testing.T) {
	svc := newTestRunService()

	_, err := svc.Run(bg(), connect.NewRequest(&RunRequest{Source: "[+"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Run error code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}

func TestRun_BadOptRejected(t *testing.T) {
	svc := newTestRunService()

	_, err := svc.Run(bg(), connect.NewRequest(&RunRequest{Source: "+", Opt: "O7"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Run error code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse_Valid(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Parse(bg(), connect.NewRequest(&ParseRequest{
		Source: "+[>+<-]",
		Opt:    "O0",
	}))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !resp.Msg.Valid {
		t.Fatalf("Parse reported invalid: %s", resp.Msg.Error)
	}
	if resp.Msg.Ops != 7 {
		t.Errorf("Parse ops = %d, want 7", resp.Msg.Ops)
	}
	if !strings.Contains(resp.Msg.Listing, "JZ") {
		t.Errorf("Parse listing missing jumps:\n%s", resp.Msg.Listing)
	}
}

func TestParse_ReportsPosition(t *testing.T) {
	svc := newTestRunService()

	resp, err := svc.Parse(bg(), connect.NewRequest(&ParseRequest{
		Source: "+\n+]",
	}))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if resp.Msg.Valid {
		t.Fatal("Parse accepted unmatched ']'")
	}
	if resp.Msg.Line != 2 || resp.Msg.Column != 2 {
		t.Errorf("Parse position = %d:%d, want 2:2", resp.Msg.Line, resp.Msg.Column)
	}
}

func TestParse_EmptySourceRejected(t *testing.T) {
	svc := newTestRunService()

	_, err := svc.Parse(bg(), connect.NewRequest(&ParseRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Parse error code = %v, want InvalidArgument", connect.CodeOf(err))
	}
}
