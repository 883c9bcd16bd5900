package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults.
const (
	DefaultMaxIterations = 10
	DefaultMaxDepth      = 3
	DefaultLLMRetries    = 0
)

// Locations relative to the root directory.
const (
	SystemSpecRel = "system/SystemAgent.md"
	ManifestRel   = "system/SmartLibrary.md"
	ComponentsRel = "components"
	WorkspaceRel  = "workspace"
	PromptsRel    = "system/prompts"
)

// Flags are the command-line overrides. Zero values mean "not given".
type Flags struct {
	Root          string
	Model         string
	SandboxMode   string
	MaxIterations int
}

// Settings is the resolved runtime configuration of one process.
type Settings struct {
	Root          string
	Workspace     string
	SystemSpec    string
	Manifest      string
	ComponentsDir string
	// PromptsDir may hold <prompt id>.md files replacing built-in templates.
	PromptsDir    string

	Model         string
	SandboxMode   string
	DockerImage   string
	MaxIterations int
	MaxDepth      int
	LLMRetries    int
}

// Resolve layers defaults, the config file, the environment and flags, in
// that order. file may be nil.
func Resolve(file *Config, flags Flags) (Settings, error) {
	if file == nil {
		file = &Config{}
	}
	s := Settings{
		Root:          ".",
		MaxIterations: DefaultMaxIterations,
		MaxDepth:      DefaultMaxDepth,
		LLMRetries:    DefaultLLMRetries,
	}

	// config file
	setString(&s.Root, file.Root)
	setString(&s.Model, file.Model)
	setString(&s.SandboxMode, file.SandboxMode)
	setString(&s.DockerImage, file.DockerImage)
	setInt(&s.MaxIterations, file.MaxIterations)
	setInt(&s.MaxDepth, file.MaxDepth)
	setInt(&s.LLMRetries, file.LLMRetries)

	// environment
	setString(&s.Root, os.Getenv("MDRUN_ROOT"))
	setString(&s.Model, os.Getenv("MDRUN_MODEL"))
	setString(&s.SandboxMode, os.Getenv("MDRUN_SANDBOX_MODE"))
	setString(&s.DockerImage, os.Getenv("MDRUN_DOCKER_IMAGE"))
	for _, e := range []struct {
		name string
		dst  *int
		min  int
	}{
		{"MDRUN_MAX_ITERATIONS", &s.MaxIterations, 1},
		{"MDRUN_MAX_DEPTH", &s.MaxDepth, 1},
		{"MDRUN_LLM_RETRIES", &s.LLMRetries, 0},
	} {
		if err := envInt(e.name, e.dst, e.min); err != nil {
			return Settings{}, err
		}
	}

	// flags
	setString(&s.Root, flags.Root)
	setString(&s.Model, flags.Model)
	setString(&s.SandboxMode, flags.SandboxMode)
	setInt(&s.MaxIterations, flags.MaxIterations)

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to resolve root %q: %w", s.Root, err)
	}
	s.Root = root
	s.Workspace = filepath.Join(root, WorkspaceRel)
	s.SystemSpec = filepath.Join(root, filepath.FromSlash(SystemSpecRel))
	s.Manifest = filepath.Join(root, filepath.FromSlash(ManifestRel))
	s.ComponentsDir = filepath.Join(root, ComponentsRel)
	s.PromptsDir = filepath.Join(root, filepath.FromSlash(PromptsRel))
	return s, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func envInt(name string, dst *int, min int) error {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return fmt.Errorf("invalid %s %q: want an integer >= %d", name, raw, min)
	}
	*dst = n
	return nil
}
