package prompts

import (
	"regexp"
	"sort"
)

// Prompt IDs registered by this package.
const (
	IterationID = "iteration"
	ComponentID = "component"
)

var placeholderRe = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

// Prompt is a named template with {{key}} placeholders.
type Prompt struct {
	ID      string
	Content string
}

// Placeholders lists the distinct keys referenced by the template, sorted.
func (p *Prompt) Placeholders() []string {
	return placeholders(p.Content)
}

func placeholders(text string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	sort.Strings(keys)
	return keys
}
