package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PromptRegistry maps prompt IDs to templates.
type PromptRegistry struct {
	mu      sync.RWMutex
	prompts map[string]*Prompt
}

var defaultRegistry *PromptRegistry
var defaultRegistryOnce sync.Once

// DefaultRegistry returns the registry holding the built-in prompts.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPromptRegistry()
	})
	return defaultRegistry
}

func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{prompts: make(map[string]*Prompt)}
}

// Register adds p, replacing any prompt with the same ID.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[p.ID] = p
}

// Get returns the prompt registered under id.
func (r *PromptRegistry) Get(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	return p, nil
}

// Clone copies the registry so overrides do not leak into DefaultRegistry.
func (r *PromptRegistry) Clone() *PromptRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewPromptRegistry()
	for id, p := range r.prompts {
		c.prompts[id] = p
	}
	return c
}

// OverrideFromFile replaces the template of a registered prompt with the
// contents of path. The replacement may only use placeholders the built-in
// template already has, since callers set exactly those.
func (r *PromptRegistry) OverrideFromFile(id, path string) error {
	current, err := r.Get(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt override: %w", err)
	}
	known := map[string]bool{}
	for _, k := range current.Placeholders() {
		known[k] = true
	}
	next := &Prompt{ID: id, Content: string(data)}
	for _, k := range next.Placeholders() {
		if !known[k] {
			return fmt.Errorf("prompt override %s uses unknown placeholder {{%s}}", path, k)
		}
	}
	r.Register(next)
	return nil
}

// LoadOverrides returns a copy of the default registry where every prompt
// with a matching <id>.md file in dir uses that file instead. A missing dir
// yields the defaults unchanged.
func LoadOverrides(dir string) (*PromptRegistry, error) {
	r := DefaultRegistry().Clone()
	for _, id := range []string{IterationID, ComponentID} {
		path := filepath.Join(dir, id+".md")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := r.OverrideFromFile(id, path); err != nil {
			return nil, err
		}
	}
	return r, nil
}
