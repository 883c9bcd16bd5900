package engine

import (
	"context"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
)

// Hook observes a run. Implementations must not block.
type Hook interface {
	OnRunStart(ctx context.Context, rc RunContext)
	OnIterationStart(ctx context.Context, rc RunContext)
	OnModelReply(ctx context.Context, rc RunContext, reply string)
	OnToolCall(ctx context.Context, rc RunContext, inv toolcall.Invocation, depth int)
	OnToolResult(ctx context.Context, rc RunContext, res ToolResult, depth int)
	OnComponent(ctx context.Context, rc RunContext, m registry.Match, depth int)
	OnRetryAttempt(ctx context.Context, attempt int, delay time.Duration, err error)
	OnDone(ctx context.Context, out Outcome)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}


func (NopHook) OnRunStart(context.Context, RunContext) {}
func (NopHook) OnIterationStart(context.Context, RunContext) {}
func (NopHook) OnModelReply(context.Context, RunContext, string) {}
func (NopHook) OnToolCall(context.Context, RunContext, toolcall.Invocation, int) {}
func (NopHook) OnToolResult(context.Context, RunContext, ToolResult, int) {}
func (NopHook) OnComponent(context.Context, RunContext, registry.Match, int) {}
func (NopHook) OnRetryAttempt(context.Context, int, time.Duration, error) {}
func (NopHook) OnDone(context.Context, Outcome) {}
