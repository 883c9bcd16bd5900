//go:build !windows
// +build !windows

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

const defaultCmdTimeout = 60 * time.Second

// HostRunner runs commands directly on the host machine without isolation.
// It is used when no container runtime is reachable or host mode is requested.
type HostRunner struct {
	// Dir is the workspace directory commands run in by default.
	Dir    string
	config Config
}

// NewHostRunner creates a runner rooted at the workspace directory dir.
func NewHostRunner(dir string, config Config) *HostRunner {
	return &HostRunner{Dir: dir, config: config}
}

func (r *HostRunner) Name() string    { return "" }
func (r *HostRunner) WorkDir() string { return r.Dir }

// Teardown is a no-op for host execution.
func (r *HostRunner) Teardown(context.Context) error { return nil }

// RunCmd runs name with args in dir, killing the whole process group when
// the timeout expires.
func (r *HostRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = r.config.cmdTimeout()
	}
	if dir == "" {
		dir = r.Dir
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	// New process group so children die with the command
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return Result{Code: -1}, err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-cctx.Done():
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if ctxErr := cctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) || errors.Is(ctxErr, context.Canceled) {
		res.TimedOut = true
	}

	if waitErr != nil {
		res.Code = 1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
		}
		if res.TimedOut {
			return res, &TimeoutError{Command: name, After: timeout}
		}
		return res, waitErr
	}
	return res, nil
}
