package engine

import (
	"context"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/probe"
	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
)

// ErrorReplyPrefix starts the synthetic reply produced when the model call fails.
const ErrorReplyPrefix = "ERROR: "

// Wait bounds per call class.
const (
	ShortTimeout  = 5 * time.Second
	MediumTimeout = 30 * time.Second
	LongTimeout   = 60 * time.Second
)

// CompletionRequest is one call to the text model.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// LLMClient abstracts the provider SDK (OpenAI-compatible, Anthropic).
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ToolResult is the normalized outcome of one invocation. Results are never
// modified after creation.
type ToolResult struct {
	Tool       string            `json:"tool"`
	Parameters map[string]string `json:"parameters"`
	Reasoning  string            `json:"reasoning"`
	Success    bool              `json:"success"`
	Output     string            `json:"output"`
	Error      string            `json:"error"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

// ComponentResult is what a declarative component run produces.
type ComponentResult struct {
	Success  bool           `json:"success"`
	Output   string         `json:"output"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HistoryEntry is one model reply.
type HistoryEntry struct {
	Iteration int
	Reply     string
	Timestamp time.Time
}

// Status labels of a run.
const (
	StatusInitialized   = "initialized"
	StatusProgressing   = "progressing"
	StatusErrorRecovery = "error_recovery"
)

// RunContext is the state threaded through one iteration. The controller
// never mutates it in place; Advance returns the next value.
type RunContext struct {
	RunID     string
	Goal      string
	Workspace string
	StateDir  string
	Sandbox   sandbox.Sandbox
	// Env is nil in host mode, where nothing was probed.
	Env       *probe.Snapshot
	Iteration int
	Status    string
	History   []HistoryEntry
	Results   []ToolResult
	// Changed lists workspace files touched since the previous prompt.
	Changed []string
}

// SandboxName returns the sandbox name or "" for host execution.
func (rc RunContext) SandboxName() string {
	if sandbox.IsHost(rc.Sandbox) {
		return ""
	}
	return rc.Sandbox.Name()
}

// Advance returns the context for the iteration after reply produced results.
// The status label is left unchanged when there are no new results.
func (rc RunContext) Advance(reply string, results []ToolResult, at time.Time) RunContext {
	next := rc
	next.History = append(append([]HistoryEntry(nil), rc.History...), HistoryEntry{
		Iteration: rc.Iteration,
		Reply:     reply,
		Timestamp: at,
	})
	next.Results = append(append([]ToolResult(nil), rc.Results...), results...)
	next.Changed = nil
	if len(results) > 0 {
		next.Status = StatusProgressing
		for _, r := range results {
			if !r.Success {
				next.Status = StatusErrorRecovery
				break
			}
		}
	}
	return next
}

// RecentHistory returns up to the last n history entries.
func (rc RunContext) RecentHistory(n int) []HistoryEntry {
	if len(rc.History) <= n {
		return rc.History
	}
	return rc.History[len(rc.History)-n:]
}

// RecentResults returns up to the last n results.
func (rc RunContext) RecentResults(n int) []ToolResult {
	return lastResults(rc.Results, n)
}

func lastResults(results []ToolResult, n int) []ToolResult {
	if len(results) <= n {
		return results
	}
	return results[len(results)-n:]
}
