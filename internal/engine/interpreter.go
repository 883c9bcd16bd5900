package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ChamsBouzaiene/mdrun/internal/prompts"
	"github.com/ChamsBouzaiene/mdrun/internal/registry"
	"github.com/ChamsBouzaiene/mdrun/internal/toolcall"
)

// DefaultMaxDepth bounds component nesting. Top-level invocations run at
// depth 0; a component invoked from them is interpreted at depth 1.
const DefaultMaxDepth = 3

// resultSchema validates the fenced result block ending a component reply.
const resultSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success":  {"type": "boolean"},
    "output":   {},
    "error":    {"type": "string"},
    "metadata": {"type": "object"}
  }
}`

var resultBlockRe = regexp.MustCompile("(?s)```(?:result|json)[ \\t]*\\r?\\n(.*?)```")

var errNoResultBlock = errors.New("no result block")

// ResultValidationError lists why a result block was rejected.
type ResultValidationError struct {
	Errors []string
}

func (e *ResultValidationError) Error() string {
	return "result block validation failed: " + strings.Join(e.Errors, "; ")
}

// Interpreter realizes declarative components by re-prompting the model with
// the component's specification and executing whatever the reply asks for.
type Interpreter struct {
	Model    *Model
	Executor *Executor
	MaxDepth int
	Prompts  *prompts.PromptRegistry
}

// NewInterpreter wires an interpreter into exec so registry matches are
// routed through it.
func NewInterpreter(model *Model, exec *Executor, maxDepth int) *Interpreter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	in := &Interpreter{
		Model:    model,
		Executor: exec,
		MaxDepth: maxDepth,
		Prompts:  prompts.DefaultRegistry(),
	}
	exec.Interpreter = in
	return in
}

// Interpret runs component d with inputs at the given nesting depth. Past
// MaxDepth it fails without calling the model.
func (in *Interpreter) Interpret(ctx context.Context, rc RunContext, d registry.Descriptor, inputs map[string]string, depth int) ComponentResult {
	meta := map[string]any{"depth": depth}
	fail := func(msg string) ComponentResult {
		return ComponentResult{Success: false, Error: msg, Metadata: meta}
	}

	maxDepth := in.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth > maxDepth {
		return fail((&DepthExceededError{Component: d.ID, Depth: depth, Max: maxDepth}).Error())
	}

	spec, err := d.ReadSpec()
	if err != nil {
		return fail(err.Error())
	}
	prompt, err := in.prompt(rc, d, spec, inputs, depth)
	if err != nil {
		return fail(err.Error())
	}

	reply := in.Model.Call(ctx, prompt)
	if strings.HasPrefix(reply, ErrorReplyPrefix) {
		return fail(reply)
	}

	var nested []ToolResult
	for _, inv := range toolcall.Parse(reply) {
		nested = append(nested, in.Executor.Execute(ctx, rc, inv, depth))
	}
	meta["nested_calls"] = len(nested)

	cr, err := ExtractResult(reply)
	if err == nil {
		for k, v := range cr.Metadata {
			meta[k] = v
		}
		cr.Metadata = meta
		return cr
	}
	if !errors.Is(err, errNoResultBlock) {
		meta["result_block_error"] = err.Error()
	}
	return fallbackResult(reply, nested, meta)
}

// fallbackResult synthesizes a result when the reply carries no usable block:
// success unless every nested call failed, output from the last nested call.
func fallbackResult(reply string, nested []ToolResult, meta map[string]any) ComponentResult {
	meta["fallback_parsing"] = true

	success := len(nested) == 0
	for _, r := range nested {
		if r.Success {
			success = true
			break
		}
	}
	output := reply
	if len(nested) > 0 {
		output = nested[len(nested)-1].Output
	}
	cr := ComponentResult{Success: success, Output: output, Metadata: meta}
	if !success {
		cr.Error = nested[len(nested)-1].Error
	}
	return cr
}

// ExtractResult parses and validates the last fenced result block in reply.
func ExtractResult(reply string) (ComponentResult, error) {
	matches := resultBlockRe.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return ComponentResult{}, errNoResultBlock
	}
	body := strings.TrimSpace(matches[len(matches)-1][1])

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return ComponentResult{}, fmt.Errorf("invalid result block: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(resultSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return ComponentResult{}, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return ComponentResult{}, &ResultValidationError{Errors: msgs}
	}

	obj := doc.(map[string]any)
	cr := ComponentResult{Success: obj["success"].(bool)}
	switch out := obj["output"].(type) {
	case nil:
	case string:
		cr.Output = out
	default:
		raw, _ := json.Marshal(out)
		cr.Output = string(raw)
	}
	if s, ok := obj["error"].(string); ok {
		cr.Error = s
	}
	if m, ok := obj["metadata"].(map[string]any); ok {
		cr.Metadata = m
	}
	return cr, nil
}

func (in *Interpreter) prompt(rc RunContext, d registry.Descriptor, spec string, inputs map[string]string, depth int) (string, error) {
	pr := in.Prompts
	if pr == nil {
		pr = prompts.DefaultRegistry()
	}
	b, err := prompts.NewPromptBuilder(pr, prompts.ComponentID)
	if err != nil {
		return "", err
	}

	declared := "none"
	if len(d.Tools) > 0 {
		declared = strings.Join(d.Tools, ", ")
	}

	b.SetVariable("display_name", d.DisplayName).
		SetVariable("component_id", d.ID).
		SetVariable("category", string(d.Category)).
		SetVariable("spec_path", d.SpecPath).
		SetVariable("spec", spec).
		SetVariable("declared_tools", declared).
		SetVariable("inputs", formatInputs(inputs)).
		SetVariable("environment", rc.Env.Summary()).
		SetVariable("adapters", strings.Join(BuiltinCommands(), ", ")+" (any other command runs with --key value flags)").
		SetVariable("depth", strconv.Itoa(depth)).
		SetVariable("max_depth", strconv.Itoa(in.MaxDepth)).
		SetVariable("workdir", workDir(rc))
	return b.Build()
}

func formatInputs(inputs map[string]string) string {
	if len(inputs) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", k, inputs[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}
