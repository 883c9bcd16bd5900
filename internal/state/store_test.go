package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
}

func TestStoreInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store := NewStore(dir).WithClock(fixedClock)

	if err := store.Init("Create a calculator"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for _, name := range []string{PlanFile, ContextFile, HistoryFile, ConstraintsFile, VariablesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	plan, _ := store.Read(PlanFile)
	if !strings.Contains(plan, "**Goal:** Create a calculator") {
		t.Errorf("plan missing goal: %q", plan)
	}
	history, _ := store.Read(HistoryFile)
	if !strings.Contains(history, "**Started:** 2025-03-04T10:30:00Z") {
		t.Errorf("history missing start time: %q", history)
	}
	vars, err := store.ReadVariables()
	if err != nil {
		t.Fatalf("ReadVariables failed: %v", err)
	}
	if vars["goal"] != "Create a calculator" {
		t.Errorf("expected goal variable, got %v", vars["goal"])
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	contents := map[string]string{
		PlanFile:        "# Plan\n\nunicode ✅ and trailing spaces   \n",
		ContextFile:     "",
		HistoryFile:     "# History\r\nwindows line\r\n",
		ConstraintsFile: "- priority: speed\n",
		VariablesFile:   "{\n  \"a\": 1\n}",
		EnvironmentFile: "# Env\n",
	}
	for name, content := range contents {
		if err := store.Write(name, content); err != nil {
			t.Fatalf("Write(%s) failed: %v", name, err)
		}
		got, err := store.Read(name)
		if err != nil {
			t.Fatalf("Read(%s) failed: %v", name, err)
		}
		if got != content {
			t.Errorf("%s: round trip mismatch\nwant %q\ngot  %q", name, content, got)
		}
		again, _ := store.Read(name)
		if again != got {
			t.Errorf("%s: second read differs", name)
		}
	}
}

func TestStoreReadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	got, err := store.Read("nothing.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty content, got %q", got)
	}
}

func TestStoreAppendHistory(t *testing.T) {
	store := NewStore(t.TempDir()).WithClock(fixedClock)
	if err := store.Init("goal"); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendHistory("SystemAgent Iteration 1", "first reply"); err != nil {
		t.Fatal(err)
	}
	if err := store.LogError("boom"); err != nil {
		t.Fatal(err)
	}

	history, _ := store.Read(HistoryFile)
	first := strings.Index(history, "## SystemAgent Iteration 1 - 2025-03-04T10:30:00Z")
	second := strings.Index(history, "## ERROR - ")
	if first < 0 || second < 0 || second < first {
		t.Errorf("history sections missing or out of order:\n%s", history)
	}
	if !strings.HasPrefix(history, "# Execution History") {
		t.Errorf("append must keep earlier content:\n%s", history)
	}
}

func TestStoreAppendContext(t *testing.T) {
	store := NewStore(t.TempDir()).WithClock(fixedClock)
	_ = store.AppendContext("one")
	_ = store.AppendContext("two")
	got, _ := store.Read(ContextFile)
	want := "\n**2025-03-04T10:30:00Z:** one\n\n**2025-03-04T10:30:00Z:** two\n"
	if got != want {
		t.Errorf("context mismatch\nwant %q\ngot  %q", want, got)
	}
}

func TestStoreWriteSnapshot(t *testing.T) {
	store := NewStore(t.TempDir())
	err := store.WriteSnapshot(Snapshot{Goal: "g", Status: "progressing", Iterations: 3, ToolCalls: 7})
	if err != nil {
		t.Fatal(err)
	}
	plan, _ := store.Read(PlanFile)
	if !strings.Contains(plan, "progressing") || !strings.Contains(plan, "3 iterations completed") {
		t.Errorf("unexpected plan: %q", plan)
	}
	vars, _ := store.ReadVariables()
	if vars["current_state"] != "progressing" || vars["tool_calls"] != float64(7) {
		t.Errorf("unexpected variables: %v", vars)
	}
}
