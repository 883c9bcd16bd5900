// Package report renders what the CLI prints around a run: the boot banner
// and the final run report.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ChamsBouzaiene/mdrun/internal/engine"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
)

const outputPreview = 80

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#888888")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	faintStyle = lipgloss.NewStyle().Foreground(colorMuted)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Banner is printed by boot. sandboxStatus describes the execution
// environment that would be used.
func Banner(version, sandboxStatus string, reg *registry.Registry) string {
	lines := []string{
		titleStyle.Render("mdrun " + version),
		faintStyle.Render("markdown-defined agents, executed"),
		"",
		"Sandbox:    " + sandboxStatus,
		"Components: " + componentSummary(reg),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func componentSummary(reg *registry.Registry) string {
	if reg == nil || reg.Len() == 0 {
		return "none registered"
	}
	counts := map[registry.Category]int{}
	for _, d := range reg.All() {
		counts[d.Category]++
	}
	var parts []string
	for _, c := range []registry.Category{registry.CategoryAgent, registry.CategoryTool, registry.CategoryUnknown} {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(c))))
		}
	}
	return fmt.Sprintf("%d (%s)", reg.Len(), strings.Join(parts, ", "))
}

// Markdown renders out as a markdown document.
func Markdown(out engine.Outcome) string {
	var b strings.Builder
	rc := out.Final

	b.WriteString("# Run report\n\n")
	fmt.Fprintf(&b, "- **Goal:** %s\n", rc.Goal)
	fmt.Fprintf(&b, "- **State:** %s\n", out.State)
	fmt.Fprintf(&b, "- **Iterations:** %d\n", out.Iterations)

	ok := 0
	for _, r := range rc.Results {
		if r.Success {
			ok++
		}
	}
	fmt.Fprintf(&b, "- **Tool calls:** %d (%d succeeded, %d failed)\n", len(rc.Results), ok, len(rc.Results)-ok)
	if rc.StateDir != "" {
		fmt.Fprintf(&b, "- **State directory:** `%s`\n", rc.StateDir)
	}
	if out.Err != nil {
		fmt.Fprintf(&b, "\n**Error:** %s\n", escape(out.Err.Error()))
	}

	if len(rc.Results) == 0 {
		return b.String()
	}
	b.WriteString("\n| # | Tool | Status | Output |\n|---|---|---|---|\n")
	for i, r := range rc.Results {
		status, text := "✅", r.Output
		if !r.Success {
			status, text = "❌", r.Error
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, escape(r.Tool), status, escape(shorten(text, outputPreview)))
	}
	return b.String()
}

// Render turns markdown into terminal output wrapped at width. style is a
// glamour style name; empty selects one from the terminal background.
func Render(markdown string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(markdown)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func shorten(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
