package sandbox

import (
	"context"
	"time"
)

// Result captures output of a command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner runs a single process and waits for it.
type Runner interface {
	// RunCmd runs a command in dir with a timeout.
	// - ctx: base context for cancellation
	// - dir: working directory as seen by the process
	// - name: executable name, e.g. "curl"
	// - args: arguments, e.g. []string{"-s", "-L", url}
	// - timeout: optional timeout (<=0 uses default)
	// A non-nil error is returned when the process could not be started,
	// exited non-zero or timed out; Result is still populated in the latter cases.
	RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error)
}

// Sandbox is a Runner scoped to a single run. The host implementation has an
// empty Name and a no-op Teardown.
type Sandbox interface {
	Runner
	// Name is the generated sandbox name, or "" when running on the host.
	Name() string
	// WorkDir is the workspace path as seen by processes started by RunCmd.
	WorkDir() string
	// Teardown stops and removes the sandbox.
	Teardown(ctx context.Context) error
}

// IsHost reports whether s executes directly on the host.
func IsHost(s Sandbox) bool {
	return s == nil || s.Name() == ""
}
