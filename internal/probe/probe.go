// Package probe inspects a sandbox for usable executables and package
// managers and renders the environment document handed to the model.
package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
)

// ShortTimeout bounds every probe command.
const ShortTimeout = 5 * time.Second

// Tools and PackageManagers are the executables looked up with `which`.
var (
	Tools = []string{
		"python3", "python", "pip", "pip3", "curl", "wget", "bash", "sh",
		"git", "nano", "vim", "cat", "grep", "sed", "awk", "jq",
	}
	PackageManagers = []string{"apt-get", "yum", "apk", "dnf", "zypper"}
)

// distroFiles are checked in order; the first readable one wins.
var distroFiles = []string{
	"/etc/alpine-release",
	"/etc/os-release",
	"/etc/redhat-release",
	"/etc/debian_version",
}

// Snapshot describes what the sandbox offers. It is not modified after Detect.
type Snapshot struct {
	Tools           []string
	PackageManagers []string
	OS              string
	Distro          string
	Sandbox         string
}

// HasTool reports whether name was found in the sandbox.
func (s *Snapshot) HasTool(name string) bool {
	if s == nil {
		return false
	}
	for _, t := range s.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// Detect probes sb. Probe failures degrade to "Unknown" entries and are
// never returned as errors.
func Detect(ctx context.Context, sb sandbox.Sandbox) *Snapshot {
	return &Snapshot{
		Tools:           available(ctx, sb, Tools),
		PackageManagers: available(ctx, sb, PackageManagers),
		OS:              osInfo(ctx, sb),
		Distro:          detectDistro(ctx, sb),
		Sandbox:         sb.Name(),
	}
}

// available returns the subset of names `which` finds, preserving input order.
func available(ctx context.Context, sb sandbox.Sandbox, names []string) []string {
	found := make([]bool, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			res, err := sb.RunCmd(gctx, "", "which", []string{name}, ShortTimeout)
			if err == nil && res.Code == 0 {
				mu.Lock()
				found[i] = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, names[i])
		}
	}
	return out
}

func osInfo(ctx context.Context, sb sandbox.Sandbox) string {
	res, err := sb.RunCmd(ctx, "", "uname", []string{"-a"}, ShortTimeout)
	if err != nil || res.Code != 0 {
		return "Unknown"
	}
	return strings.TrimSpace(res.Stdout)
}

func detectDistro(ctx context.Context, sb sandbox.Sandbox) string {
	for _, path := range distroFiles {
		res, err := sb.RunCmd(ctx, "", "cat", []string{path}, ShortTimeout)
		if err != nil || res.Code != 0 {
			continue
		}
		content := strings.TrimSpace(res.Stdout)
		switch path {
		case "/etc/alpine-release":
			return "Alpine Linux v" + content
		case "/etc/os-release":
			if name := prettyName(content); name != "" {
				return name
			}
		case "/etc/redhat-release":
			return "Red Hat based: " + content
		case "/etc/debian_version":
			return "Debian based: " + content
		}
	}
	return "Unknown Linux distribution"
}

func prettyName(osRelease string) string {
	for _, line := range strings.Split(osRelease, "\n") {
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(v, `"`)
		}
	}
	return ""
}

// Summary is the short environment block embedded in prompts.
func (s *Snapshot) Summary() string {
	if s == nil {
		return "Environment: Not detected"
	}
	tools := s.Tools
	if len(tools) > 10 {
		tools = tools[:10]
	}
	sandboxName := s.Sandbox
	if sandboxName == "" {
		sandboxName = "None"
	}
	return fmt.Sprintf("Available tools: %s\nPackage managers: %s\nOS: %s\nContainer: %s",
		strings.Join(tools, ", "), strings.Join(s.PackageManagers, ", "), s.Distro, sandboxName)
}

// Document renders the environment document persisted next to the run state.
func (s *Snapshot) Document() string {
	var b strings.Builder
	b.WriteString("# Container Environment Detection\n\n")
	fmt.Fprintf(&b, "## Available Tools\n%s\n\n", strings.Join(s.Tools, ", "))
	fmt.Fprintf(&b, "## Package Managers\n%s\n\n", strings.Join(s.PackageManagers, ", "))
	fmt.Fprintf(&b, "## OS Information\n%s\n\n", s.OS)
	fmt.Fprintf(&b, "## Distribution\n%s\n\n", s.Distro)

	pm := "unknown"
	if len(s.PackageManagers) > 0 {
		pm = s.PackageManagers[0]
	}
	tools := s.Tools
	if len(tools) > 10 {
		tools = tools[:10]
	}
	b.WriteString("## Recommendations\n")
	fmt.Fprintf(&b, "- Use these available tools: %s\n", strings.Join(tools, ", "))
	fmt.Fprintf(&b, "- For package installation, use: %s\n", pm)
	fmt.Fprintf(&b, "- This is a %s system\n\n", s.Distro)
	b.WriteString("## Notes\n")
	b.WriteString("- Always check tool availability before using\n")
	b.WriteString("- Use the package manager listed above\n")
	return b.String()
}
