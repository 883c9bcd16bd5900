package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
)

// Adapter kinds recorded in result metadata.
const (
	AdapterFetch   = "web-fetch"
	AdapterScript  = "script"
	AdapterShell   = "shell"
	AdapterGeneric = "generic"
)

// DefaultFetchFile is where fetches land without an output_file parameter.
const DefaultFetchFile = sandbox.ContainerWorkDir + "/fetched_content.html"

// adapter turns named parameters into a fixed argument shape.
type adapter struct {
	kind    string
	timeout time.Duration
	build   func(command string, p paramReader) ([]string, error)
}

// paramReader reads invocation parameters, translating container paths
// for host execution.
type paramReader struct {
	inv     toolcall.Invocation
	mapPath func(string) string
}

func (p paramReader) get(key, def string) string { return p.inv.Param(key, def) }
func (p paramReader) path(key, def string) string {
	return p.mapPath(p.inv.Param(key, def))
}

func errMissing(param, command string) error {
	return fmt.Errorf("%s parameter required for %s", param, command)
}

func fetchArgs(command string, p paramReader) ([]string, error) {
	url := p.get("url", "")
	if url == "" {
		return nil, errMissing("URL", command)
	}
	out := p.path("output_file", DefaultFetchFile)
	if command == "wget" {
		return []string{"-q", "-O", out, url}, nil
	}
	return []string{"-s", "-L", url, "-o", out}, nil
}

func scriptArgs(command string, p paramReader) ([]string, error) {
	script := p.path("script", "")
	if script == "" {
		return nil, errMissing("Script", command)
	}
	return append([]string{script}, strings.Fields(p.get("args", ""))...), nil
}

var adapters = map[string]adapter{
	"curl":    {AdapterFetch, MediumTimeout, fetchArgs},
	"wget":    {AdapterFetch, MediumTimeout, fetchArgs},
	"python3": {AdapterScript, LongTimeout, scriptArgs},
	"python":  {AdapterScript, LongTimeout, scriptArgs},
	"cat": {AdapterShell, MediumTimeout, func(command string, p paramReader) ([]string, error) {
		file := p.path("file", "")
		if file == "" {
			return nil, errMissing("File", command)
		}
		return []string{file}, nil
	}},
	"ls": {AdapterShell, MediumTimeout, func(_ string, p paramReader) ([]string, error) {
		return []string{p.path("path", sandbox.ContainerWorkDir)}, nil
	}},
	"grep": {AdapterShell, MediumTimeout, func(command string, p paramReader) ([]string, error) {
		pattern := p.get("pattern", "")
		if pattern == "" {
			return nil, errMissing("Pattern", command)
		}
		return []string{"-rn", pattern, p.path("path", sandbox.ContainerWorkDir)}, nil
	}},
	"echo": {AdapterShell, MediumTimeout, func(_ string, p paramReader) ([]string, error) {
		if text := p.get("text", ""); text != "" {
			return []string{text}, nil
		}
		return nil, nil
	}},
	"mkdir": {AdapterShell, MediumTimeout, func(command string, p paramReader) ([]string, error) {
		path := p.path("path", "")
		if path == "" {
			return nil, errMissing("Path", command)
		}
		return []string{"-p", path}, nil
	}},
}

// genericAdapter passes every parameter but "command" as a --key value pair,
// keys in sorted order.
var genericAdapter = adapter{AdapterGeneric, LongTimeout, func(_ string, p paramReader) ([]string, error) {
	keys := make([]string, 0, len(p.inv.Parameters))
	for k := range p.inv.Parameters {
		if k != "command" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var args []string
	for _, k := range keys {
		args = append(args, "--"+k, p.inv.Parameters[k])
	}
	return args, nil
}}

// BuiltinCommands lists the commands served by a dedicated adapter.
func BuiltinCommands() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Executor resolves invocations against the registry and the adapter table
// and runs them.
type Executor struct {
	Registry    *registry.Registry
	Interpreter *Interpreter
	Hooks       Hook
	Now         func() time.Time
}

// NewExecutor creates an executor. Built-in command names are reserved in reg
// so loose display-name matching never shadows them.
func NewExecutor(reg *registry.Registry, hooks Hook) *Executor {
	if reg == nil {
		reg = registry.New()
	}
	reg.Reserve(BuiltinCommands()...)
	if hooks == nil {
		hooks = NopHook{}
	}
	return &Executor{Registry: reg, Hooks: hooks, Now: time.Now}
}

// Execute runs one invocation and always returns exactly one result.
// Nothing escapes: errors and panics become failure results.
func (e *Executor) Execute(ctx context.Context, rc RunContext, inv toolcall.Invocation, depth int) (res ToolResult) {
	res = ToolResult{
		Tool:       inv.Command,
		Parameters: inv.Parameters,
		Reasoning:  inv.Reasoning,
		Timestamp:  e.now(),
	}
	e.hooks().OnToolCall(ctx, rc, inv, depth)
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("tool execution panicked: %v", r)
		}
		e.hooks().OnToolResult(ctx, rc, res, depth)
	}()

	if strings.TrimSpace(inv.Command) == "" {
		res.Error = "empty command"
		return res
	}

	if e.Interpreter != nil {
		if m, ok := e.Registry.Resolve(inv.Command); ok {
			return e.runComponent(ctx, rc, inv, m, depth, res)
		}
	}

	a, ok := adapters[inv.Command]
	if !ok {
		a = genericAdapter
	}
	return e.runAdapter(ctx, rc, inv, a, res)
}

func (e *Executor) runComponent(ctx context.Context, rc RunContext, inv toolcall.Invocation, m registry.Match, depth int, res ToolResult) ToolResult {
	e.hooks().OnComponent(ctx, rc, m, depth+1)
	cr := e.Interpreter.Interpret(ctx, rc, m.Descriptor, inv.Parameters, depth+1)

	res.Success = cr.Success
	res.Output = cr.Output
	res.Error = cr.Error
	res.Metadata = map[string]any{
		"component": m.Descriptor.ID,
		"category":  string(m.Descriptor.Category),
		"match":     m.Strategy.String(),
	}
	for k, v := range cr.Metadata {
		res.Metadata[k] = v
	}
	return res
}

func (e *Executor) runAdapter(ctx context.Context, rc RunContext, inv toolcall.Invocation, a adapter, res ToolResult) ToolResult {
	res.Metadata = map[string]any{"adapter": a.kind}

	args, err := a.build(inv.Command, paramReader{inv: inv, mapPath: pathMapper(rc)})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := e.run(ctx, rc, inv.Command, args, a.timeout)
	res.Output = out.Stdout
	res.Metadata["exit_code"] = out.Code
	res.Success = err == nil && out.Code == 0 && !out.TimedOut
	if !res.Success {
		res.Error = failureText(out, err)
	} else if out.Stderr != "" {
		res.Metadata["stderr"] = out.Stderr
	}
	return res
}

// run is the single execution primitive shared by every adapter. Without a
// sandbox the command runs on the host in the workspace.
func (e *Executor) run(ctx context.Context, rc RunContext, name string, args []string, timeout time.Duration) (sandbox.Result, error) {
	sb := rc.Sandbox
	if sb == nil {
		sb = sandbox.NewHostRunner(rc.Workspace, sandbox.Config{})
	}
	return sb.RunCmd(ctx, sb.WorkDir(), name, args, timeout)
}

func failureText(out sandbox.Result, err error) string {
	stderr := strings.TrimSpace(out.Stderr)
	switch {
	case out.TimedOut && err != nil:
		return err.Error()
	case stderr != "":
		return stderr
	case err != nil:
		return err.Error()
	default:
		return fmt.Sprintf("exit code %d", out.Code)
	}
}

// pathMapper rewrites container workspace paths onto the host workspace when
// there is no sandbox. Inside a sandbox paths are passed through.
func pathMapper(rc RunContext) func(string) string {
	if !sandbox.IsHost(rc.Sandbox) || rc.Workspace == "" {
		return func(p string) string { return p }
	}
	root := sandbox.ContainerWorkDir
	return func(p string) string {
		if p == root {
			return rc.Workspace
		}
		if rest, ok := strings.CutPrefix(p, root+"/"); ok {
			return filepath.Join(rc.Workspace, filepath.FromSlash(rest))
		}
		return p
	}
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) hooks() Hook {
	if e.Hooks == nil {
		return NopHook{}
	}
	return e.Hooks
}
