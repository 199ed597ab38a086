package docker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Compose drives service-level operations through the docker compose CLI,
// which the SDK has no notion of. Everything else goes through the SDK.
type Compose struct {
	Project string
	File    string
}

func NewCompose(project, file string) *Compose {
	return &Compose{Project: project, File: file}
}

func (c *Compose) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ComposeOpTimeout)
	defer cancel()

	base := []string{"compose", "-p", c.Project}
	if c.File != "" {
		base = append(base, "-f", c.File)
	}

	cmd := exec.CommandContext(ctx, "docker", append(base, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("docker compose %s failed: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Up recreates and starts one service from the compose file, giving it the
// compose-managed container name.
func (c *Compose) Up(ctx context.Context, service string) error {
	_, err := c.run(ctx, "up", "-d", "--no-deps", service)
	return err
}

func (c *Compose) Start(ctx context.Context, services ...string) error {
	_, err := c.run(ctx, append([]string{"start"}, services...)...)
	return err
}

func (c *Compose) Stop(ctx context.Context, services ...string) error {
	_, err := c.run(ctx, append([]string{"stop"}, services...)...)
	return err
}

// Logs captures the most recent log lines of one service.
func (c *Compose) Logs(ctx context.Context, service string, tail int) (string, error) {
	return c.run(ctx, "logs", "--no-color", "--tail", strconv.Itoa(tail), service)
}

// Services lists the service names defined in the compose file.
func (c *Compose) Services(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "config", "--services")
	if err != nil {
		return nil, err
	}

	var services []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			services = append(services, line)
		}
	}
	return services, nil
}

// Available reports whether the docker CLI with the compose plugin is
// usable; a prerequisite check, not an operation.
func ComposeAvailable(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "compose", "version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker compose plugin not available: %w", err)
	}
	return nil
}
