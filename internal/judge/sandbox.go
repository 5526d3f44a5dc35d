package judge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// timeoutExitCode is the synthetic exit code a Sandbox run reports when the
// process was killed for exceeding its wall-clock budget, matching the
// convention GNU timeout(1) uses.
const timeoutExitCode = 124

// RunResult is the raw outcome of one sandboxed process run, before the
// Execution Engine classifies it against expected output.
type RunResult struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	TimedOut  bool
	RuntimeMs float64
}

// Sandbox runs untrusted code inside a throwaway Docker container: no
// network, all capabilities dropped, hard memory/pids/file-descriptor caps,
// and a wall-clock budget enforced from the host side.
type Sandbox struct {
	docker *dockerclient.Client
}

// NewSandbox wraps an existing Docker client.
func NewSandbox(docker *dockerclient.Client) *Sandbox {
	return &Sandbox{docker: docker}
}

// NewSandboxFromEnv builds a Docker client from the environment (DOCKER_HOST
// and friends), matching how the Docker CLI itself resolves a daemon.
func NewSandboxFromEnv() (*Sandbox, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("judge: create docker client: %w", err)
	}
	return NewSandbox(cli), nil
}

// Run executes cmd inside image with stdin piped in, mounting workDir at
// /app (read-write so a compile step can drop an executable the run step
// later reads). The container is stopped once timeout elapses (or ctx is
// done first) and is removed when the call returns; a stop due to the
// deadline reports RunResult.TimedOut with the conventional exit code 124.
func (s *Sandbox) Run(ctx context.Context, image string, cmd []string, workDir, stdin string, limits ResourceLimits, timeout time.Duration) (*RunResult, error) {
	memBytes, err := units.RAMInBytes(limits.MemoryLimit)
	if err != nil {
		return nil, fmt.Errorf("judge: parse memory limit %q: %w", limits.MemoryLimit, err)
	}
	swapBytes, err := units.RAMInBytes(limits.MemorySwapLimit)
	if err != nil {
		return nil, fmt.Errorf("judge: parse memory swap limit %q: %w", limits.MemorySwapLimit, err)
	}
	nanoCPUs := int64(1e9)
	if limits.CPULimit != "" {
		var cpus float64
		if _, err := fmt.Sscanf(limits.CPULimit, "%f", &cpus); err == nil && cpus > 0 {
			nanoCPUs = int64(cpus * 1e9)
		}
	}

	pidsLimit := limits.MaxPIDs
	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			Memory:     memBytes,
			MemorySwap: swapBytes,
			NanoCPUs:   nanoCPUs,
			PidsLimit:  &pidsLimit,
			Ulimits: []*units.Ulimit{
				{Name: "nofile", Soft: limits.MaxOpenFiles, Hard: limits.MaxOpenFiles},
			},
		},
		NetworkMode: "none",
		CapDrop:     []string{"ALL"},
		SecurityOpt: []string{"no-new-privileges:true"},
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=64m",
		},
		Binds:      []string{workDir + ":/app"},
		AutoRemove: false,
	}

	containerConfig := &container.Config{
		Image:        image,
		Cmd:          cmd,
		WorkingDir:   "/app",
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		OpenStdin:    true,
		StdinOnce:    true,
		Tty:          false,
	}

	name := fmt.Sprintf("judge-run-%s", uuid.New().String())
	resp, err := s.docker.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return nil, fmt.Errorf("judge: create container: %w", err)
	}
	containerID := resp.ID
	defer s.remove(containerID)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attachResp, err := s.docker.ContainerAttach(runCtx, containerID, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("judge: attach container: %w", err)
	}
	defer attachResp.Close()

	if err := s.docker.ContainerStart(runCtx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("judge: start container: %w", err)
	}

	if stdin != "" {
		io.Copy(attachResp.Conn, strings.NewReader(stdin))
	}
	attachResp.CloseWrite()

	var stdout, stderr bytes.Buffer
	copyDone := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		copyDone <- err
	}()

	start := time.Now()
	statusCh, errCh := s.docker.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int
	var timedOut bool
	select {
	case <-runCtx.Done():
		timedOut = true
		exitCode = timeoutExitCode
		killTimeout := 5 * time.Second
		s.docker.ContainerStop(context.Background(), containerID, container.StopOptions{Timeout: intPtr(int(killTimeout.Seconds()))})
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("judge: wait container: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}
	<-copyDone

	return &RunResult{
		ExitCode:  exitCode,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		TimedOut:  timedOut,
		RuntimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

func (s *Sandbox) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.docker.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
}

func intPtr(v int) *int { return &v }
