// Package state persists the flat per-run artifacts under <workspace>/state.
//
// Every file is rewritten whole; history.md and context.md are grown by
// read-modify-append. There is no locking: concurrent runs sharing one
// workspace are unsupported and the last writer wins.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact names inside the state directory.
const (
	PlanFile        = "plan.md"
	ContextFile     = "context.md"
	HistoryFile     = "history.md"
	ConstraintsFile = "constraints.md"
	VariablesFile   = "variables.json"
	EnvironmentFile = "container_environment.md"
)

// Store handles persistence of run state.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir (typically <workspace>/state).
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// WithClock replaces the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of an artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Init creates the state directory and writes the initial artifacts for goal.
func (s *Store) Init(goal string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	started := s.now().Format(time.RFC3339)
	files := []struct {
		name    string
		content string
	}{
		{PlanFile, fmt.Sprintf("# Execution Plan\n\n**Goal:** %s\n\n## Status\nInitializing...\n", goal)},
		{ContextFile, "# Execution Context\n\n## Knowledge Accumulation\n\n"},
		{HistoryFile, fmt.Sprintf("# Execution History\n\n**Started:** %s\n\n", started)},
		{ConstraintsFile, "# Behavioral Constraints\n\n## Initial Settings\n- priority: balanced\n- error_tolerance: moderate\n"},
	}
	for _, f := range files {
		if err := s.Write(f.name, f.content); err != nil {
			return err
		}
	}
	return s.WriteVariables(map[string]any{
		"goal":       goal,
		"start_time": started,
	})
}

// Write replaces an artifact's content.
func (s *Store) Write(name, content string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.Path(name), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Read returns an artifact's content, or "" if it does not exist.
func (s *Store) Read(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func (s *Store) appendTo(name, entry string) error {
	current, err := s.Read(name)
	if err != nil {
		return err
	}
	return s.Write(name, current+entry)
}

// AppendHistory adds a titled section to history.md.
func (s *Store) AppendHistory(step, content string) error {
	entry := fmt.Sprintf("\n## %s - %s\n\n%s\n", step, s.now().Format(time.RFC3339), content)
	return s.appendTo(HistoryFile, entry)
}

// LogError records a run error in history.md.
func (s *Store) LogError(msg string) error {
	return s.AppendHistory("ERROR", msg)
}

// AppendContext adds a timestamped note to context.md.
func (s *Store) AppendContext(content string) error {
	entry := fmt.Sprintf("\n**%s:** %s\n", s.now().Format(time.RFC3339), content)
	return s.appendTo(ContextFile, entry)
}

// WriteVariables replaces variables.json with vars, indented.
func (s *Store) WriteVariables(vars map[string]any) error {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	return s.Write(VariablesFile, string(data))
}

// ReadVariables decodes variables.json. A missing file yields an empty map.
func (s *Store) ReadVariables() (map[string]any, error) {
	raw, err := s.Read(VariablesFile)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return vars, nil
	}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, fmt.Errorf("failed to parse variables: %w", err)
	}
	return vars, nil
}

// Snapshot is the per-iteration progress record.
type Snapshot struct {
	Goal       string
	Status     string
	Iterations int
	ToolCalls  int
}

// WriteSnapshot rewrites plan.md and variables.json from snap.
func (s *Store) WriteSnapshot(snap Snapshot) error {
	plan := fmt.Sprintf("# Execution Plan\n\n**Goal:** %s\n\n## Current State\n%s\n\n## Progress\n%d iterations completed\n",
		snap.Goal, snap.Status, snap.Iterations)
	if err := s.Write(PlanFile, plan); err != nil {
		return err
	}
	return s.WriteVariables(map[string]any{
		"goal":          snap.Goal,
		"current_state": snap.Status,
		"iterations":    snap.Iterations,
		"tool_calls":    snap.ToolCalls,
	})
}
