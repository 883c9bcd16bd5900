package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/mdrun/internal/probe"
	"github.com/ChamsBouzaiene/mdrun/internal/prompts"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
	"github.com/ChamsBouzaiene/mdrun/internal/state"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
	"github.com/ChamsBouzaiene/mdrun/internal/workspace"
)

// DefaultMaxIterations is the iteration ceiling of a run.
const DefaultMaxIterations = 10

// RunState is the lifecycle position of a run.
type RunState string

const (
	RunInitializing RunState = "initializing"
	RunIterating    RunState = "iterating"
	RunCompleted    RunState = "completed"
	RunExhausted    RunState = "exhausted"
	RunFailed       RunState = "failed"
)

// Outcome is what a run ends with.
type Outcome struct {
	State      RunState
	Iterations int
	Final      RunContext
	Err        error
}

// Controller runs the top-level iteration loop for one goal.
type Controller struct {
	Model    *Model
	Executor *Executor
	Store    *state.Store
	Registry *registry.Registry
	Detector CompletionDetector
	Hooks    Hook
	Prompts  *prompts.PromptRegistry

	Workspace      string
	SystemSpecPath string
	MaxIterations  int
	// Sandbox is torn down when Run returns. Nil means host execution.
	Sandbox sandbox.Sandbox
	// Watch reports files changed between iterations to the model.
	Watch bool
	Now   func() time.Time
}

// Run drives goal to completion, exhaustion or failure. It never panics and
// always tears the sandbox down.
func (c *Controller) Run(ctx context.Context, goal string) (out Outcome) {
	hooks := c.hooks()
	rc := RunContext{
		RunID:     uuid.NewString(),
		Goal:      goal,
		Workspace: c.Workspace,
		StateDir:  c.Store.Dir(),
		Sandbox:   c.Sandbox,
		Status:    StatusInitialized,
	}
	out = Outcome{State: RunInitializing, Final: rc}

	defer func() {
		if c.Sandbox != nil {
			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), MediumTimeout)
			if err := c.Sandbox.Teardown(tctx); err != nil {
				log.Printf("WARNING: sandbox teardown failed: %v", err)
			}
			cancel()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			out.State = RunFailed
			out.Err = wrapRun(fmt.Errorf("panic: %v", r), out.Final.Iteration, "panic")
			_ = c.Store.LogError(out.Err.Error())
		}
		hooks.OnDone(ctx, out)
	}()

	fail := func(err error, op string) Outcome {
		out.State = RunFailed
		out.Err = wrapRun(err, out.Final.Iteration, op)
		_ = c.Store.LogError(out.Err.Error())
		return out
	}

	if err := c.Store.Init(goal); err != nil {
		return fail(err, "setup")
	}
	systemSpec, err := os.ReadFile(c.SystemSpecPath)
	if err != nil {
		return fail(fmt.Errorf("failed to read system agent spec: %w", err), "system_spec")
	}

	if !sandbox.IsHost(c.Sandbox) {
		rc.Env = probe.Detect(ctx, c.Sandbox)
		if err := c.Store.Write(state.EnvironmentFile, rc.Env.Document()); err != nil {
			log.Printf("WARNING: failed to write environment document: %v", err)
		}
		_ = c.Store.AppendContext("Container environment detected:\n" + rc.Env.Summary())
	}
	out.Final = rc

	var watcher *workspace.Watcher
	if c.Watch && c.Workspace != "" {
		w, err := workspace.NewWatcher(c.Workspace, "state")
		if err != nil {
			log.Printf("WARNING: workspace watcher unavailable: %v", err)
		} else {
			watcher = w
			defer watcher.Close()
		}
	}

	hooks.OnRunStart(ctx, rc)
	out.State = RunIterating

	for i := 1; i <= c.maxIterations(); i++ {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("execution cancelled: %w", err), "iteration")
		}

		rc.Iteration = i
		if watcher != nil {
			// events arrive asynchronously; collect them as late as possible
			rc.Changed = watcher.Drain()
		}
		out.Final = rc
		hooks.OnIterationStart(ctx, rc)

		prompt, err := IterationPrompt(c.prompts(), string(systemSpec), rc, c.Registry)
		if err != nil {
			return fail(err, "prompt")
		}
		reply := c.Model.Call(ctx, prompt)
		hooks.OnModelReply(ctx, rc, reply)
		if err := c.Store.AppendHistory(fmt.Sprintf("SystemAgent Iteration %d", i), reply); err != nil {
			log.Printf("WARNING: failed to append history: %v", err)
		}

		results := c.execute(ctx, rc, toolcall.Parse(reply))

		rc = rc.Advance(reply, results, c.now())
		out.Final = rc
		out.Iterations = i

		if err := c.Store.WriteSnapshot(state.Snapshot{
			Goal:       goal,
			Status:     rc.Status,
			Iterations: i,
			ToolCalls:  len(rc.Results),
		}); err != nil {
			log.Printf("WARNING: failed to write state snapshot: %v", err)
		}

		if c.detector().IsDone(reply, rc.Results) {
			out.State = RunCompleted
			return out
		}
	}

	out.State = RunExhausted
	return out
}

// execute runs invocations in order; each sees the workspace as left by the
// previous one.
func (c *Controller) execute(ctx context.Context, rc RunContext, invs []toolcall.Invocation) []ToolResult {
	results := make([]ToolResult, 0, len(invs))
	for _, inv := range invs {
		res := c.Executor.Execute(ctx, rc, inv, 0)
		results = append(results, res)
		_ = c.Store.AppendContext(contextNote(res))
	}
	return results
}

func (c *Controller) maxIterations() int {
	if c.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return c.MaxIterations
}

func (c *Controller) detector() CompletionDetector {
	if c.Detector == nil {
		return NewKeywordDetector()
	}
	return c.Detector
}

func (c *Controller) prompts() *prompts.PromptRegistry {
	if c.Prompts == nil {
		return prompts.DefaultRegistry()
	}
	return c.Prompts
}

func (c *Controller) hooks() Hook {
	if c.Hooks == nil {
		return NopHook{}
	}
	return c.Hooks
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
