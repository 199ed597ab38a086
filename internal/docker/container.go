package docker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/stdcopy"
)

// Container status values as the orchestrators see them.
const (
	StateRunning = "running"
	StateExited  = "exited"
	StateMissing = "missing"
)

// Health values; HealthNone means the container declares no health check.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthNone      = "none"
)

type PullProgress struct {
	Status         string `json:"status"`
	ProgressDetail struct {
		Current int64 `json:"current"`
		Total   int64 `json:"total"`
	} `json:"progressDetail"`
	Progress string `json:"progress"`
	ID       string `json:"id"`
}

func (c *Client) PullImage(imageName string, progressWriter io.Writer) error {
	ctx, cancel := context.WithTimeout(c.ctx, ImagePullTimeout)
	defer cancel()

	reader, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	var lastStatus string

	for scanner.Scan() {
		var progress PullProgress
		if err := json.Unmarshal(scanner.Bytes(), &progress); err != nil {
			continue
		}

		if progress.Status != lastStatus && progress.ID == "" {
			if progressWriter != nil {
				statusMsg := progress.Status
				if strings.Contains(statusMsg, "Digest:") || strings.Contains(statusMsg, "Status:") {
					continue // skip
				}
				fmt.Fprintf(progressWriter, "  %s\n", statusMsg)
			}
			lastStatus = progress.Status
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read pull output: %w", err)
	}

	return nil
}

// ImageID resolves an image reference to its ID.
func (c *Client) ImageID(ctx context.Context, ref string) (string, error) {
	inspect, _, err := c.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}
	return inspect.ID, nil
}

// FindServiceContainer locates the container a compose service is running
// as, via the compose project/service labels.
func (c *Client) FindServiceContainer(ctx context.Context, project, service string) (string, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", "com.docker.compose.project="+project),
			filters.Arg("label", "com.docker.compose.service="+service),
		),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return "", fmt.Errorf("no container found for service %s in project %s", service, project)
	}

	return containers[0].ID, nil
}

// ContainerImageID returns the image ID the named container runs.
func (c *Client) ContainerImageID(ctx context.Context, nameOrID string) (string, error) {
	inspect, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container %s: %w", nameOrID, err)
	}
	return inspect.Image, nil
}

// ContainerStatus maps the container state to running/exited/missing.
func (c *Client) ContainerStatus(ctx context.Context, nameOrID string) (string, error) {
	inspect, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return StateMissing, nil
		}
		return "", fmt.Errorf("failed to inspect container: %w", err)
	}

	if inspect.State.Running {
		return StateRunning, nil
	}
	return StateExited, nil
}

// ContainerHealth reports the health check state, or HealthNone when the
// container declares no health check.
func (c *Client) ContainerHealth(ctx context.Context, nameOrID string) (string, error) {
	inspect, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect container: %w", err)
	}

	if inspect.State.Health == nil {
		return HealthNone, nil
	}
	if inspect.State.Health.Status == "healthy" {
		return HealthHealthy, nil
	}
	return HealthUnhealthy, nil
}

func (c *Client) StartContainer(containerID string) error {
	ctx, cancel := context.WithTimeout(c.ctx, ContainerOpTimeout)
	defer cancel()

	if err := c.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", containerID, err)
	}
	return nil
}

func (c *Client) StopContainer(containerID string) error {
	ctx, cancel := context.WithTimeout(c.ctx, ContainerOpTimeout)
	defer cancel()

	timeout := 30
	if err := c.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", containerID, err)
	}
	return nil
}

func (c *Client) RemoveContainer(containerID string) error {
	ctx, cancel := context.WithTimeout(c.ctx, ContainerOpTimeout)
	defer cancel()

	err := c.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: false,
	})
	if err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// RenameContainer gives the container a new name; used to park pre-update
// snapshots and to bring them back during rollback.
func (c *Client) RenameContainer(ctx context.Context, containerID, newName string) error {
	if err := c.cli.ContainerRename(ctx, containerID, newName); err != nil {
		return fmt.Errorf("failed to rename container %s to %s: %w", containerID, newName, err)
	}
	return nil
}

// CommitContainer commits the container filesystem to an image tag.
func (c *Client) CommitContainer(ctx context.Context, containerID, tag string) (string, error) {
	resp, err := c.cli.ContainerCommit(ctx, containerID, container.CommitOptions{
		Reference: tag,
		Pause:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit container %s: %w", containerID, err)
	}
	return resp.ID, nil
}

func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	_, err := c.cli.ImageRemove(ctx, ref, image.RemoveOptions{})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}
	return nil
}

// ExecResult carries the captured output and exit code of an in-container
// command. Exit code is the only success signal the orchestrators trust.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec runs a command inside a container and waits for it to finish.
func (c *Client) Exec(ctx context.Context, containerID string, cmd []string, user string, env []string) (*ExecResult, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		User:         user,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := c.cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := c.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return nil, fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return &ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// ExecStreamOut runs a command inside a container and streams its stdout to
// the writer. Used for piping pg_dump straight into the gzip writer without
// buffering the whole dump in memory.
func (c *Client) ExecStreamOut(ctx context.Context, containerID string, cmd []string, env []string, stdout io.Writer) (int, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := c.cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return -1, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := c.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return -1, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(stdout, &stderr, attachResp.Reader); err != nil {
		return -1, fmt.Errorf("failed to stream exec output: %w", err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return -1, fmt.Errorf("failed to inspect exec: %w", err)
	}

	if inspect.ExitCode != 0 {
		return inspect.ExitCode, fmt.Errorf("command exited with code %d: %s", inspect.ExitCode, strings.TrimSpace(stderr.String()))
	}

	return 0, nil
}

// ExecStreamIn runs a command inside a container feeding it stdin from the
// reader. Used for piping a decompressed dump into psql.
func (c *Client) ExecStreamIn(ctx context.Context, containerID string, cmd []string, env []string, stdin io.Reader) error {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := c.cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := c.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{Tty: false})
	if err != nil {
		return fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	if _, err := io.Copy(attachResp.Conn, stdin); err != nil {
		return fmt.Errorf("failed to write exec input: %w", err)
	}
	attachResp.CloseWrite()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return fmt.Errorf("failed to inspect exec: %w", err)
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("command exited with code %d: %s", inspect.ExitCode, strings.TrimSpace(stderr.String()))
	}

	return nil
}
