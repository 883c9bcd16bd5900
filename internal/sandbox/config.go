package sandbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// Mode represents the sandbox execution mode.
type Mode string

const (
	// ModeDocker runs commands inside a per-run container.
	ModeDocker Mode = "docker"
	// ModeHost runs commands directly on the host (no isolation).
	ModeHost Mode = "host"
	// ModeAuto uses Docker if the daemon answers, otherwise the host.
	ModeAuto Mode = "auto"
)

// DefaultImage is used when no image override is configured.
const DefaultImage = "alpine:latest"

// DefaultBootstrap installs the interpreters and fetch tools the adapters
// rely on, marks the container ready and idles until teardown.
const DefaultBootstrap = "(command -v apk >/dev/null 2>&1 && apk add --no-cache python3 py3-pip py3-requests curl bash >/dev/null 2>&1); " +
	"touch " + readyMarker + "; while true; do sleep 3600; done"

const readyMarker = "/tmp/.mdrun-ready"

// Config holds configuration for sandbox execution.
type Config struct {
	Mode        Mode
	Image       string        // container image ("" = DefaultImage)
	CPU         string        // CPU limit (e.g., "2")
	Memory      string        // Memory limit (e.g., "1g")
	Bootstrap   string        // shell command run as the container's main process
	BootTimeout time.Duration // how long to wait for the bootstrap to finish
	CmdTimeout  time.Duration // default command timeout (0 = use default)
}

// ParseMode converts a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "docker":
		return ModeDocker, nil
	case "host":
		return ModeHost, nil
	default:
		return ModeAuto, fmt.Errorf("unknown sandbox mode %q", s)
	}
}

// DefaultConfig returns the default configuration based on environment variables.
func DefaultConfig() Config {
	mode, err := ParseMode(os.Getenv("MDRUN_SANDBOX_MODE"))
	if err != nil {
		log.Printf("WARNING: %v, defaulting to 'auto'", err)
	}

	bootTimeout := 2 * time.Minute
	if s := os.Getenv("MDRUN_SANDBOX_BOOT_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			bootTimeout = d
		} else {
			log.Printf("WARNING: Invalid MDRUN_SANDBOX_BOOT_TIMEOUT value '%s', using default 2m", s)
		}
	}

	return Config{
		Mode:        mode,
		Image:       getEnvOrDefault("MDRUN_DOCKER_IMAGE", DefaultImage),
		CPU:         getEnvOrDefault("MDRUN_DOCKER_CPU", "2"),
		Memory:      getEnvOrDefault("MDRUN_DOCKER_MEMORY", "1g"),
		Bootstrap:   DefaultBootstrap,
		BootTimeout: bootTimeout,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func (c Config) image() string {
	if c.Image != "" {
		return c.Image
	}
	return DefaultImage
}

func (c Config) cmdTimeout() time.Duration {
	if c.CmdTimeout > 0 {
		return c.CmdTimeout
	}
	return defaultCmdTimeout
}

// Open provisions the sandbox for one run rooted at workspace. Docker
// problems never fail the run: the host runner is returned instead.
func Open(ctx context.Context, config Config, workspace string) Sandbox {
	host := NewHostRunner(workspace, config)

	switch config.Mode {
	case ModeHost:
		log.Printf("WARNING: Using host executor (no sandboxing).")
		return host

	case ModeDocker, ModeAuto:
		sb, err := NewDockerSandbox(ctx, config, workspace)
		if err != nil {
			if config.Mode == ModeDocker {
				log.Printf("WARNING: Docker mode requested but unavailable: %v. Falling back to host executor.", err)
			} else {
				log.Printf("WARNING: Docker not available (%v). Using host executor (no sandboxing).", err)
			}
			return host
		}
		return sb

	default:
		log.Printf("WARNING: Unknown sandbox mode, defaulting to host executor.")
		return host
	}
}
