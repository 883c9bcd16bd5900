package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/mdrun/internal/prompts"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
	"github.com/ChamsBouzaiene/mdrun/internal/workspace"
)

// HostTools is advertised to the model when nothing was probed.
var HostTools = []string{"python3", "curl", "cat", "echo", "mkdir", "ls", "grep", "sed"}

// Preview sizes used in prompts.
const (
	historyWindow  = 3
	historyPreview = 200
	resultsWindow  = 5
	resultPreview  = 100
)

// IterationPrompt renders the top-level prompt for rc.
func IterationPrompt(pr *prompts.PromptRegistry, systemSpec string, rc RunContext, reg *registry.Registry) (string, error) {
	b, err := prompts.NewPromptBuilder(pr, prompts.IterationID)
	if err != nil {
		return "", err
	}

	container := rc.SandboxName()
	if container == "" {
		container = "None (host system)"
	}
	tools := HostTools
	if rc.Env != nil && len(rc.Env.Tools) > 0 {
		tools = rc.Env.Tools
	}

	b.SetVariable("system_spec", systemSpec).
		SetVariable("iteration", strconv.Itoa(rc.Iteration)).
		SetVariable("goal", rc.Goal).
		SetVariable("workspace", rc.Workspace).
		SetVariable("state_dir", rc.StateDir).
		SetVariable("container", container).
		SetVariable("current_state", rc.Status).
		SetVariable("environment", rc.Env.Summary()).
		SetVariable("cli_tools", strings.Join(tools, ", ")).
		SetVariable("components", formatComponents(reg)).
		SetVariable("workspace_files", formatWorkspace(rc.Workspace)).
		SetVariable("changed_files", formatChanged(rc.Changed)).
		SetVariable("history", formatHistory(rc.RecentHistory(historyWindow))).
		SetVariable("tool_results", formatResults(rc.RecentResults(resultsWindow))).
		SetVariable("workdir", workDir(rc))
	return b.Build()
}

// workDir is the path the model should use for workspace files.
func workDir(rc RunContext) string {
	if sandbox.IsHost(rc.Sandbox) && rc.Workspace != "" {
		return rc.Workspace
	}
	return sandbox.ContainerWorkDir
}

func formatComponents(reg *registry.Registry) string {
	if reg == nil || reg.Len() == 0 {
		return "No components registered"
	}
	var sb strings.Builder
	for _, d := range reg.All() {
		fmt.Fprintf(&sb, "- %s (%s): %s", d.ID, d.Category, d.DisplayName)
		if len(d.Tools) > 0 {
			fmt.Fprintf(&sb, " [tools: %s]", strings.Join(d.Tools, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWorkspace(dir string) string {
	if dir == "" {
		return "No files in workspace"
	}
	files, err := workspace.ListFiles(dir)
	if err != nil {
		return fmt.Sprintf("Error listing workspace: %v", err)
	}
	return workspace.Listing(files)
}

func formatChanged(changed []string) string {
	if len(changed) == 0 {
		return "None"
	}
	return strings.Join(changed, "\n")
}

func formatHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "No previous execution"
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "Iteration %d: %s\n", e.Iteration, preview(e.Reply, historyPreview))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatResults(results []ToolResult) string {
	if len(results) == 0 {
		return "No tool results yet"
	}
	var sb strings.Builder
	for _, r := range results {
		mark, text := "✅", r.Output
		if !r.Success {
			mark, text = "❌", r.Error
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, r.Tool, preview(text, resultPreview))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// contextNote is the context.md line recorded for one result.
func contextNote(r ToolResult) string {
	if r.Success {
		return fmt.Sprintf("Tool %s succeeded: %s", r.Tool, preview(r.Output, resultPreview))
	}
	return fmt.Sprintf("Tool %s failed: %s", r.Tool, preview(r.Error, resultPreview))
}
