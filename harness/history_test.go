package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/tapir/vm"
)

func TestHistoryRecordAndRecent(t *testing.T) {
	history, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer history.Close()

	result := &SuiteResult{
		Suite:   "echo",
		Started: time.Now(),
		Cases: []CaseResult{
			{
				Suite:  "echo",
				Case:   "pass",
				Result: &vm.ExecutionResult{Status: vm.StatusOK, Steps: 12},
			},
			{
				Suite: "echo",
				Case:  "fail",
				Failures: []Failure{
					{Kind: FailIncorrectOutput, Detail: `got "x", expected "y"`},
				},
				Result: &vm.ExecutionResult{Status: vm.StatusOK, Steps: 7},
			},
		},
	}
	if err := history.Record(result); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := history.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first: the failing case was recorded last.
	if entries[0].Case != "fail" || entries[0].Passed {
		t.Errorf("entries[0] = %+v, want failing case", entries[0])
	}
	if entries[1].Case != "pass" || !entries[1].Passed {
		t.Errorf("entries[1] = %+v, want passing case", entries[1])
	}
	if entries[1].Steps != 12 {
		t.Errorf("Steps = %d, want 12", entries[1].Steps)
	}
	if entries[0].Failures == "" {
		t.Error("failing entry lost its failure detail")
	}
}

func TestHistoryRecentOnEmpty(t *testing.T) {
	history, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer history.Close()

	entries, err := history.Recent(5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from empty history, want 0", len(entries))
	}
}
