package prompts

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestBuiltinPromptsRegistered(t *testing.T) {
	for _, id := range []string{IterationID, ComponentID} {
		if _, err := DefaultRegistry().Get(id); err != nil {
			t.Errorf("prompt %s not registered: %v", id, err)
		}
	}
}

func TestRegistryGetErrors(t *testing.T) {
	r := NewPromptRegistry()
	if _, err := r.Get("missing"); err == nil || !strings.Contains(err.Error(), "prompt not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	r.Register(&Prompt{ID: "x", Content: "hi"})
	r.Register(&Prompt{ID: "x", Content: "bye"})
	p, err := r.Get("x")
	if err != nil || p.Content != "bye" {
		t.Errorf("expected replaced prompt, got %v, %v", p, err)
	}
	r.Register(nil)
}

func TestBuilderSubstitutesOnce(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "t", Content: "Goal: {{goal}}\nSpec: {{spec}}"})

	b, err := NewPromptBuilder(r, "t")
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.SetVariable("goal", "write {{spec}}").
		SetVariable("spec", "S").
		AddFragment("Extra {{goal}}").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	want := "Goal: write {{spec}}\nSpec: S\n\nExtra write {{spec}}"
	if got != want {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
}

func TestIterationPromptPlaceholdersResolve(t *testing.T) {
	b, err := NewPromptBuilder(DefaultRegistry(), IterationID)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"system_spec", "iteration", "goal", "workspace", "state_dir", "container",
		"current_state", "environment", "cli_tools", "components", "workspace_files", "changed_files",
		"history", "tool_results", "workdir"} {
		b.SetVariable(key, "<"+key+">")
	}
	got, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unresolved placeholder in:\n%s", got)
	}
	for _, want := range []string{"TOOL_CALL:", "PARAMETERS:", "REASONING:", "<workdir>/content.html", "Task completed"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildRejectsUnsetPlaceholders(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "t", Content: "{{goal}} in {{workspace}}"})

	b, err := NewPromptBuilder(r, "t")
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.SetVariable("goal", "g").Build()
	if err == nil || !strings.Contains(err.Error(), "workspace") {
		t.Errorf("expected unset placeholder error, got %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	p := &Prompt{Content: "{{b}} {{a}} {{b}} {not} {{Upper}}"}
	if got, want := p.Placeholders(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom loop for {{goal}} at iteration {{iteration}}"
	if err := os.WriteFile(filepath.Join(dir, IterationID+".md"), []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadOverrides(dir)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := r.Get(IterationID)
	if p.Content != custom {
		t.Errorf("override not applied: %q", p.Content)
	}
	if def, _ := DefaultRegistry().Get(IterationID); def.Content == custom {
		t.Error("override leaked into the default registry")
	}
	if _, err := r.Get(ComponentID); err != nil {
		t.Errorf("component prompt should keep its default: %v", err)
	}
}

func TestLoadOverridesRejectsUnknownPlaceholder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ComponentID+".md"), []byte("{{spec}} {{nonsense}}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOverrides(dir); err == nil || !strings.Contains(err.Error(), "nonsense") {
		t.Errorf("expected unknown placeholder error, got %v", err)
	}
}

func TestLoadOverridesMissingDir(t *testing.T) {
	r, err := LoadOverrides(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(IterationID); err != nil {
		t.Error(err)
	}
}
