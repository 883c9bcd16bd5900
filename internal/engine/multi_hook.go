package engine

import (
	"context"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
)

type Hooks []Hook

func (hs Hooks) OnRunStart(ctx context.Context, rc RunContext) {
	for _, h := range hs {
		h.OnRunStart(ctx, rc)
	}
}
func (hs Hooks) OnIterationStart(ctx context.Context, rc RunContext) {
	for _, h := range hs {
		h.OnIterationStart(ctx, rc)
	}
}
func (hs Hooks) OnModelReply(ctx context.Context, rc RunContext, reply string) {
	for _, h := range hs {
		h.OnModelReply(ctx, rc, reply)
	}
}
func (hs Hooks) OnToolCall(ctx context.Context, rc RunContext, inv toolcall.Invocation, depth int) {
	for _, h := range hs {
		h.OnToolCall(ctx, rc, inv, depth)
	}
}
func (hs Hooks) OnToolResult(ctx context.Context, rc RunContext, res ToolResult, depth int) {
	for _, h := range hs {
		h.OnToolResult(ctx, rc, res, depth)
	}
}
func (hs Hooks) OnComponent(ctx context.Context, rc RunContext, m registry.Match, depth int) {
	for _, h := range hs {
		h.OnComponent(ctx, rc, m, depth)
	}
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, attempt int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, attempt, delay, err)
	}
}
func (hs Hooks) OnDone(ctx context.Context, out Outcome) {
	for _, h := range hs {
		h.OnDone(ctx, out)
	}
}
