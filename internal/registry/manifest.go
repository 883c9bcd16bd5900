package registry

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseManifestFile reads a manifest document and returns its entries.
// Relative specification paths are resolved against root.
func ParseManifestFile(path, root string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Descriptor
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		if d, ok := ParseManifestLine(s.Text()); ok {
			if d.SpecPath != "" && !filepath.IsAbs(d.SpecPath) {
				d.SpecPath = filepath.Join(root, d.SpecPath)
			}
			out = append(out, d)
		}
	}
	return out, s.Err()
}

// ParseManifestLine reads one bullet entry of the form
//
//	- id: web-fetcher | name: [REAL] WebFetcherTool | path: components/tools/WebFetcherTool.md | type: TOOL | tools: curl, wget
//
// Entries without an id or a path are ignored.
func ParseManifestLine(line string) (Descriptor, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		line = strings.TrimSpace(line[2:])
	default:
		return Descriptor{}, false
	}

	fields := map[string]string{}
	for _, part := range strings.Split(line, "|") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*`"))
		fields[key] = strings.Trim(strings.TrimSpace(value), "`")
	}

	d := Descriptor{
		ID:          fields["id"],
		DisplayName: fields["name"],
		SpecPath:    fields["path"],
		Category:    ParseCategory(fields["type"]),
		Tools:       splitList(fields["tools"]),
	}
	if d.ID == "" || d.SpecPath == "" {
		return Descriptor{}, false
	}
	if d.DisplayName == "" {
		d.DisplayName = d.ID
	}
	return d, true
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// frontmatter is the optional YAML header of a component specification.
type frontmatter struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Type  string   `yaml:"type"`
	Tools []string `yaml:"tools"`
}

func (fm frontmatter) apply(d Descriptor) Descriptor {
	if fm.ID != "" {
		d.ID = fm.ID
	}
	if fm.Name != "" {
		d.DisplayName = fm.Name
	}
	if fm.Type != "" {
		d.Category = ParseCategory(fm.Type)
	}
	if len(fm.Tools) > 0 {
		d.Tools = fm.Tools
	}
	return d
}

// readFrontmatter parses a leading "---" YAML block, if the file has one.
func readFrontmatter(path string) (frontmatter, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return frontmatter{}, false
	}
	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return frontmatter{}, false
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return frontmatter{}, false
	}
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return frontmatter{}, false
	}
	return fm, true
}
