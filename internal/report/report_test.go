package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/mdrun/internal/engine"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
)

func TestMarkdownReport(t *testing.T) {
	out := engine.Outcome{
		State:      engine.RunCompleted,
		Iterations: 2,
		Final: engine.RunContext{
			Goal:     "Summarize a page",
			StateDir: "/tmp/ws/state",
			Results: []engine.ToolResult{
				{Tool: "curl", Success: true, Output: "<html>a | b</html>"},
				{Tool: "cat", Success: false, Error: "no such\nfile"},
			},
		},
	}

	md := Markdown(out)
	assert.Contains(t, md, "- **State:** completed")
	assert.Contains(t, md, "- **Iterations:** 2")
	assert.Contains(t, md, "2 (1 succeeded, 1 failed)")
	assert.Contains(t, md, `| 1 | curl | ✅ | <html>a \| b</html> |`)
	assert.Contains(t, md, "| 2 | cat | ❌ | no such file |")
}

func TestMarkdownReportWithError(t *testing.T) {
	md := Markdown(engine.Outcome{State: engine.RunFailed, Err: errors.New("system spec missing")})
	assert.Contains(t, md, "**Error:** system spec missing")
	assert.NotContains(t, md, "| # |")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("  abc ", 5))
	assert.Equal(t, "ab…", shorten("abcdef", 2))
	assert.Equal(t, "✅✅…", shorten("✅✅✅", 2))
}

func TestRenderPlain(t *testing.T) {
	got, err := Render("# Title\n\nbody text", 60, "notty")
	require.NoError(t, err)
	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "body text")
}

func TestBanner(t *testing.T) {
	reg := registry.New()
	reg.Add(registry.Descriptor{ID: "a", Category: registry.CategoryAgent})
	reg.Add(registry.Descriptor{ID: "b", Category: registry.CategoryTool})
	reg.Add(registry.Descriptor{ID: "c", Category: registry.CategoryTool})

	banner := Banner("dev", "docker (alpine:latest)", reg)
	assert.Contains(t, banner, "mdrun dev")
	assert.Contains(t, banner, "docker (alpine:latest)")
	assert.Contains(t, banner, "3 (1 agent, 2 tool)")
	assert.True(t, strings.Contains(Banner("dev", "host", nil), "none registered"))
}
