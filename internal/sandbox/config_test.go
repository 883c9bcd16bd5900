package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"Docker", ModeDocker, false},
		{" host ", ModeHost, false},
		{"podman", ModeAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("MDRUN_SANDBOX_MODE", "host")
	t.Setenv("MDRUN_DOCKER_IMAGE", "debian:stable-slim")
	t.Setenv("MDRUN_DOCKER_MEMORY", "512m")
	t.Setenv("MDRUN_SANDBOX_BOOT_TIMEOUT", "10s")

	cfg := DefaultConfig()
	if cfg.Mode != ModeHost {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.image() != "debian:stable-slim" {
		t.Errorf("image = %q", cfg.image())
	}
	if cfg.Memory != "512m" {
		t.Errorf("memory = %q", cfg.Memory)
	}
	if cfg.BootTimeout != 10*time.Second {
		t.Errorf("boot timeout = %s", cfg.BootTimeout)
	}
}

func TestDefaultConfigDefaults(t *testing.T) {
	t.Setenv("MDRUN_SANDBOX_MODE", "")
	t.Setenv("MDRUN_DOCKER_IMAGE", "")
	cfg := DefaultConfig()
	if cfg.Mode != ModeAuto || cfg.image() != DefaultImage || cfg.CPU != "2" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !strings.Contains(cfg.Bootstrap, readyMarker) {
		t.Errorf("bootstrap must create the ready marker: %q", cfg.Bootstrap)
	}
}

func TestOpenHostMode(t *testing.T) {
	dir := t.TempDir()
	sb := Open(context.Background(), Config{Mode: ModeHost}, dir)
	if !IsHost(sb) {
		t.Fatalf("expected host sandbox, got %T", sb)
	}
	if sb.WorkDir() != dir {
		t.Errorf("workdir = %q", sb.WorkDir())
	}
	if err := sb.Teardown(context.Background()); err != nil {
		t.Errorf("host teardown: %v", err)
	}
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 1 << 30},
		{"1g", 1 << 30},
		{"512m", 512 << 20},
		{"64k", 64 << 10},
	}
	for _, tt := range tests {
		got, err := parseMemory(tt.in)
		if err != nil {
			t.Errorf("parseMemory(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseMemory(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if _, err := parseMemory("lots"); err == nil {
		t.Error("expected error for invalid size")
	}
}

func TestParseCPU(t *testing.T) {
	if parseCPU("1.5") != 1.5 {
		t.Error("fractional cpu")
	}
	if parseCPU("") != 2 || parseCPU("-1") != 2 || parseCPU("abc") != 2 {
		t.Error("invalid cpu should default to 2")
	}
}

func TestNewContainerNameUnique(t *testing.T) {
	a, b := NewContainerName(), NewContainerName()
	if a == b {
		t.Errorf("names collide: %s", a)
	}
	if !strings.HasPrefix(a, "mdrun-") {
		t.Errorf("unexpected name %q", a)
	}
}
