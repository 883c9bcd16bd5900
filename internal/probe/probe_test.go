package probe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ChamsBouzaiene/mdrun/internal/sandbox"
)

// MockSandbox answers commands from a lookup table keyed by "name arg".
type MockSandbox struct {
	mu      sync.Mutex
	answers map[string]string
	calls   []string
}

func (m *MockSandbox) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (sandbox.Result, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.mu.Unlock()
	if timeout != ShortTimeout {
		return sandbox.Result{Code: 1}, errors.New("unexpected timeout class")
	}
	if out, ok := m.answers[key]; ok {
		return sandbox.Result{Stdout: out}, nil
	}
	return sandbox.Result{Code: 1}, errors.New("exit status 1")
}

func (m *MockSandbox) Name() string                   { return "mdrun-test" }
func (m *MockSandbox) WorkDir() string                { return "/workspace" }
func (m *MockSandbox) Teardown(context.Context) error { return nil }

func TestDetectAlpine(t *testing.T) {
	sb := &MockSandbox{answers: map[string]string{
		"which python3":           "/usr/bin/python3\n",
		"which curl":              "/usr/bin/curl\n",
		"which sh":                "/bin/sh\n",
		"which apk":               "/sbin/apk\n",
		"uname -a":                "Linux abc 6.1.0 x86_64 Linux\n",
		"cat /etc/alpine-release": "3.20.1\n",
		"cat /etc/os-release":     "PRETTY_NAME=\"Alpine Linux v3.20\"\n",
	}}

	snap := Detect(context.Background(), sb)

	if got := strings.Join(snap.Tools, ","); got != "python3,curl,sh" {
		t.Errorf("tools = %s", got)
	}
	if got := strings.Join(snap.PackageManagers, ","); got != "apk" {
		t.Errorf("package managers = %s", got)
	}
	if snap.OS != "Linux abc 6.1.0 x86_64 Linux" {
		t.Errorf("os = %q", snap.OS)
	}
	if snap.Distro != "Alpine Linux v3.20.1" {
		t.Errorf("distro = %q", snap.Distro)
	}
	if snap.Sandbox != "mdrun-test" {
		t.Errorf("sandbox = %q", snap.Sandbox)
	}
	if !snap.HasTool("curl") || snap.HasTool("jq") {
		t.Error("HasTool mismatch")
	}
}

func TestDetectDistroFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
		want    string
	}{
		{"os-release", map[string]string{"cat /etc/os-release": "NAME=Debian\nPRETTY_NAME=\"Debian GNU/Linux 12\"\n"}, "Debian GNU/Linux 12"},
		{"redhat", map[string]string{"cat /etc/redhat-release": "Fedora release 40\n"}, "Red Hat based: Fedora release 40"},
		{"debian", map[string]string{"cat /etc/debian_version": "12.5\n"}, "Debian based: 12.5"},
		{"none", map[string]string{}, "Unknown Linux distribution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectDistro(context.Background(), &MockSandbox{answers: tt.answers})
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectUnknownOS(t *testing.T) {
	snap := Detect(context.Background(), &MockSandbox{answers: map[string]string{}})
	if snap.OS != "Unknown" {
		t.Errorf("os = %q", snap.OS)
	}
	if len(snap.Tools) != 0 {
		t.Errorf("expected no tools, got %v", snap.Tools)
	}
}

func TestDocumentAndSummary(t *testing.T) {
	snap := &Snapshot{
		Tools:           []string{"python3", "curl"},
		PackageManagers: []string{"apk"},
		OS:              "Linux",
		Distro:          "Alpine Linux v3.20",
		Sandbox:         "mdrun-1",
	}
	doc := snap.Document()
	for _, want := range []string{"## Available Tools\npython3, curl", "use: apk", "Alpine Linux v3.20 system"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if !strings.Contains(snap.Summary(), "Container: mdrun-1") {
		t.Errorf("summary: %s", snap.Summary())
	}

	var missing *Snapshot
	if missing.Summary() != "Environment: Not detected" {
		t.Errorf("nil summary: %s", missing.Summary())
	}
}
