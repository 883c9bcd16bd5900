package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
)

// LoggerHook prints run progress to L.
type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnRunStart(_ context.Context, rc RunContext) {
	where := rc.SandboxName()
	if where == "" {
		where = "host"
	}
	h.L.Printf("🎯 run=%s goal=%q workspace=%s sandbox=%s", rc.RunID, rc.Goal, rc.Workspace, where)
}
func (h LoggerHook) OnIterationStart(_ context.Context, rc RunContext) {
	h.L.Printf("🔄 iteration=%d status=%s results=%d", rc.Iteration, rc.Status, len(rc.Results))
}
func (h LoggerHook) OnModelReply(_ context.Context, rc RunContext, reply string) {
	if strings.HasPrefix(reply, ErrorReplyPrefix) {
		h.L.Printf("❌ iteration=%d %s", rc.Iteration, reply)
		return
	}
	h.L.Printf("📥 iteration=%d reply=%d chars", rc.Iteration, len(reply))
}
func (h LoggerHook) OnToolCall(_ context.Context, _ RunContext, inv toolcall.Invocation, depth int) {
	h.L.Printf("🔧 %stool → %s params=%v", indent(depth), inv.Command, inv.Parameters)
}
func (h LoggerHook) OnToolResult(_ context.Context, _ RunContext, res ToolResult, depth int) {
	if !res.Success {
		h.L.Printf("❌ %stool %s failed: %s", indent(depth), res.Tool, preview(res.Error, 100))
		return
	}
	h.L.Printf("✅ %stool %s: %s", indent(depth), res.Tool, preview(res.Output, 100))
}
func (h LoggerHook) OnComponent(_ context.Context, _ RunContext, m registry.Match, depth int) {
	h.L.Printf("🧩 %scomponent %s (%s, matched by %s)", indent(depth), m.Descriptor.ID, m.Descriptor.Category, m.Strategy)
}
func (h LoggerHook) OnRetryAttempt(_ context.Context, attempt int, delay time.Duration, err error) {
	h.L.Printf("retry attempt=%d delay=%v error=%v", attempt, delay, err)
}
func (h LoggerHook) OnDone(_ context.Context, out Outcome) {
	if out.Err != nil {
		h.L.Printf("done: state=%s iterations=%d error=%v", out.State, out.Iterations, out.Err)
		return
	}
	h.L.Printf("done: state=%s iterations=%d tool_calls=%d", out.State, out.Iterations, len(out.Final.Results))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// preview returns at most n runes of s, marking truncation.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
