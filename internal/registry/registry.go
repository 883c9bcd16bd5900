// Package registry catalogs the declarative components (markdown tools and
// agents) a run can delegate to, and resolves command tokens to them.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Category is the declared kind of a component.
type Category string

const (
	CategoryTool    Category = "TOOL"
	CategoryAgent   Category = "AGENT"
	CategoryUnknown Category = "UNKNOWN"
)

// ParseCategory maps free text ("tool", "AGENT", "Agents") to a Category.
func ParseCategory(s string) Category {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "S") {
	case "TOOL":
		return CategoryTool
	case "AGENT":
		return CategoryAgent
	default:
		return CategoryUnknown
	}
}

// Descriptor describes one declarative component.
type Descriptor struct {
	ID          string
	DisplayName string
	Category    Category
	SpecPath    string   // absolute path of the markdown specification
	Tools       []string // declared external tool bindings, may be empty
}

// ReadSpec returns the specification text verbatim.
func (d Descriptor) ReadSpec() (string, error) {
	data, err := os.ReadFile(d.SpecPath)
	if err != nil {
		return "", fmt.Errorf("failed to read component spec %s: %w", d.SpecPath, err)
	}
	return string(data), nil
}

// Registry maps component identifiers to descriptors. It is built once per
// run and not mutated afterwards.
type Registry struct {
	byID     map[string]Descriptor
	ordered  []Descriptor // sorted by ID, rebuilt on every add
	reserved map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[string]Descriptor),
		reserved: make(map[string]bool),
	}
}

// Load builds a registry from the manifest document and the components
// directory. Manifest entries go in first; directory entries with the same
// identifier overwrite them. A missing manifest or directory is not an error.
func Load(root, manifestPath, componentsDir string) (*Registry, error) {
	r := New()
	if manifestPath != "" {
		entries, err := ParseManifestFile(manifestPath, root)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		for _, d := range entries {
			r.Add(d)
		}
	}
	if componentsDir != "" {
		if err := r.LoadDir(componentsDir); err != nil {
			return nil, fmt.Errorf("failed to scan components: %w", err)
		}
	}
	return r, nil
}

// Add registers d, replacing any descriptor with the same identifier.
func (r *Registry) Add(d Descriptor) {
	if d.ID == "" {
		return
	}
	if d.DisplayName == "" {
		d.DisplayName = d.ID
	}
	if d.Category == "" {
		d.Category = CategoryUnknown
	}
	r.byID[d.ID] = d
	r.ordered = r.ordered[:0]
	for _, v := range r.byID {
		r.ordered = append(r.ordered, v)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].ID < r.ordered[j].ID })
}

// Reserve marks tokens that name built-in adapters. Reserved tokens still
// resolve by exact identifier or display name, but never through the loose
// substring and fuzzy strategies. This is a routing rule: a component
// overrides a built-in such as "cat" only when it is registered under that
// exact name; otherwise Resolve misses and the built-in adapter runs.
func (r *Registry) Reserve(names ...string) {
	for _, n := range names {
		r.reserved[n] = true
	}
}

// LoadDir walks dir for *.md files. The parent directory name decides the
// category and the file stem is used as identifier and display name, unless
// YAML frontmatter in the file overrides them.
func (r *Registry) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("components path is not a directory: %s", dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		desc := Descriptor{
			ID:          stem,
			DisplayName: stem,
			Category:    categoryFromDir(filepath.Base(filepath.Dir(path))),
			SpecPath:    abs,
		}
		if fm, ok := readFrontmatter(path); ok {
			desc = fm.apply(desc)
		}
		r.Add(desc)
		return nil
	})
}

func categoryFromDir(name string) Category {
	switch name {
	case "tools":
		return CategoryTool
	case "agents":
		return CategoryAgent
	default:
		return CategoryUnknown
	}
}

// Get returns the descriptor with exactly this identifier.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns every descriptor sorted by identifier.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.byID)
}
