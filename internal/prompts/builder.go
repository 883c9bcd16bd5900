package prompts

import (
	"fmt"
	"strings"
)

// PromptBuilder composes prompts from a registered template, fragments and variables.
type PromptBuilder struct {
	basePrompt *Prompt
	fragments  []string
	variables  map[string]string
}

// NewPromptBuilder creates a new prompt builder based on a registered prompt.
func NewPromptBuilder(registry *PromptRegistry, id string) (*PromptBuilder, error) {
	basePrompt, err := registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}

	return &PromptBuilder{
		basePrompt: basePrompt,
		fragments:  []string{basePrompt.Content},
		variables:  make(map[string]string),
	}, nil
}

// AddFragment appends a fragment to the prompt.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	b.fragments = append(b.fragments, text)
	return b
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build joins the fragments and substitutes {{key}} placeholders in a
// single pass, so substituted values are never themselves expanded. A
// placeholder with no variable set is an error.
func (b *PromptBuilder) Build() (string, error) {
	result := strings.Join(b.fragments, "\n\n")

	var missing []string
	for _, key := range placeholders(result) {
		if _, ok := b.variables[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: unset placeholders: %s", b.basePrompt.ID, strings.Join(missing, ", "))
	}

	pairs := make([]string, 0, len(b.variables)*2)
	for key, value := range b.variables {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(result), nil
}
