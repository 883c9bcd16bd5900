package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// ContainerWorkDir is where the workspace is mounted inside the container.
const ContainerWorkDir = "/workspace"

// DockerSandbox is a long-lived container created once per run. Commands are
// started inside it with exec so files persist between invocations.
type DockerSandbox struct {
	client *client.Client
	config Config
	id     string
	name   string
}

func newClient(ctx context.Context) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("Docker daemon not accessible: %w", err)
	}
	return cli, nil
}

// Available reports whether a Docker daemon answers.
func Available(ctx context.Context) error {
	cli, err := newClient(ctx)
	if err != nil {
		return err
	}
	return cli.Close()
}

// NewContainerName returns a unique sandbox name.
func NewContainerName() string {
	return "mdrun-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// NewDockerSandbox creates and starts the run's container with workspace
// bind-mounted at ContainerWorkDir.
func NewDockerSandbox(ctx context.Context, config Config, workspace string) (*DockerSandbox, error) {
	cli, err := newClient(ctx)
	if err != nil {
		return nil, err
	}

	absWorkspace, err := filepath.Abs(workspace)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	sb := &DockerSandbox{client: cli, config: config, name: NewContainerName()}
	img := config.image()
	if err := sb.ensureImage(ctx, img); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ensure image %s: %w", img, err)
	}

	bootstrap := config.Bootstrap
	if bootstrap == "" {
		bootstrap = DefaultBootstrap
	}
	containerConfig := &container.Config{
		Image:      img,
		Cmd:        []string{"sh", "-c", bootstrap},
		WorkingDir: ContainerWorkDir,
		Labels:     map[string]string{"app": "mdrun"},
	}

	memory, err := parseMemory(config.Memory)
	if err != nil {
		cli.Close()
		return nil, err
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: absWorkspace,
				Target: ContainerWorkDir,
			},
		},
		Resources: container.Resources{
			Memory:   memory,
			NanoCPUs: int64(parseCPU(config.CPU) * 1e9),
			Ulimits: []*units.Ulimit{
				{
					Name: "nofile",
					Soft: 1024,
					Hard: 1024,
				},
			},
		},
		SecurityOpt: []string{"no-new-privileges"},
	}

	createResp, err := cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, sb.name)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	sb.id = createResp.ID

	if err := cli.ContainerStart(ctx, sb.id, container.StartOptions{}); err != nil {
		_ = sb.Teardown(context.Background())
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	sb.waitReady(ctx)
	return sb, nil
}

func (s *DockerSandbox) Name() string    { return s.name }
func (s *DockerSandbox) WorkDir() string { return ContainerWorkDir }

// waitReady polls for the bootstrap marker. A slow bootstrap is not fatal;
// commands needing missing packages will simply fail.
func (s *DockerSandbox) waitReady(ctx context.Context) {
	deadline := time.Now().Add(s.config.BootTimeout)
	for time.Now().Before(deadline) {
		res, err := s.RunCmd(ctx, "/", "test", []string{"-f", readyMarker}, 5*time.Second)
		if err == nil && res.Code == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
	log.Printf("WARNING: sandbox %s not ready after %s, continuing", s.name, s.config.BootTimeout)
}

// RunCmd executes name inside the container and collects its output.
func (s *DockerSandbox) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = s.config.cmdTimeout()
	}
	if dir == "" {
		dir = ContainerWorkDir
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	created, err := s.client.ContainerExecCreate(execCtx, s.id, container.ExecOptions{
		Cmd:          append([]string{name}, args...),
		WorkingDir:   dir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to create exec: %w", err)
	}

	attach, err := s.client.ContainerExecAttach(execCtx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to attach exec: %w", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		copied <- err
	}()

	select {
	case <-execCtx.Done():
		// closing the hijacked connection unblocks the copier
		attach.Close()
		<-copied
		return Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Code:     1,
			TimedOut: true,
		}, &TimeoutError{Command: name, After: timeout}
	case err := <-copied:
		if err != nil && err != io.EOF {
			return Result{Code: -1}, fmt.Errorf("failed to read exec output: %w", err)
		}
	}

	inspect, err := s.client.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to inspect exec: %w", err)
	}

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Code:   inspect.ExitCode,
	}
	if res.Code != 0 {
		return res, fmt.Errorf("%s exited with code %d", name, res.Code)
	}
	return res, nil
}

// Teardown stops and force-removes the container.
func (s *DockerSandbox) Teardown(ctx context.Context) error {
	defer s.client.Close()

	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	timeout := 5
	stopErr := s.client.ContainerStop(stopCtx, s.id, container.StopOptions{Timeout: &timeout})
	if err := s.client.ContainerRemove(stopCtx, s.id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", s.name, err)
	}
	return stopErr
}

// ensureImage checks if the image exists locally, and pulls it if not.
func (s *DockerSandbox) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := s.client.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	reader, err := s.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// the pull only completes once its progress stream is drained
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// parseMemory parses a human size ("1g", "512m") into bytes.
func parseMemory(memStr string) (int64, error) {
	memStr = strings.TrimSpace(memStr)
	if memStr == "" {
		return 1 << 30, nil
	}
	n, err := units.RAMInBytes(memStr)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", memStr, err)
	}
	return n, nil
}

// parseCPU parses a CPU count ("2", "1.5"), defaulting to 2.
func parseCPU(cpuStr string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(cpuStr), 64)
	if err != nil || value <= 0 {
		return 2
	}
	return value
}
