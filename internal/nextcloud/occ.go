package nextcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/docker"
)

// Client runs occ commands inside the application container. The commands
// are opaque to the orchestrators; the exit code is the only signal.
type Client struct {
	docker    *docker.Client
	container string
	binary    string
	user      string
}

func NewClient(dockerClient *docker.Client, containerName, binary, user string) *Client {
	if binary == "" {
		binary = "php occ"
	}
	if user == "" {
		user = "www-data"
	}
	return &Client{
		docker:    dockerClient,
		container: containerName,
		binary:    binary,
		user:      user,
	}
}

func (c *Client) occ(ctx context.Context, args ...string) error {
	// a nil client means no application container is available; the
	// maintenance commands silently become no-ops
	if c == nil || c.docker == nil {
		return nil
	}

	cmd := append(strings.Fields(c.binary), args...)

	result, err := c.docker.Exec(ctx, c.container, cmd, c.user, nil)
	if err != nil {
		return fmt.Errorf("occ %s: %w", strings.Join(args, " "), err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("occ %s exited with code %d: %s",
			strings.Join(args, " "), result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	return nil
}

// MaintenanceMode toggles the application-level flag that suspends
// user-facing mutation during backup and restore windows.
func (c *Client) MaintenanceMode(ctx context.Context, on bool) error {
	state := "--off"
	if on {
		state = "--on"
	}
	return c.occ(ctx, "maintenance:mode", state)
}

// FilesScan rescans the data directory after a data restore.
func (c *Client) FilesScan(ctx context.Context) error {
	return c.occ(ctx, "files:scan", "--all")
}

func (c *Client) AddMissingIndices(ctx context.Context) error {
	return c.occ(ctx, "db:add-missing-indices")
}

func (c *Client) Repair(ctx context.Context, expensive bool) error {
	if expensive {
		return c.occ(ctx, "maintenance:repair", "--include-expensive")
	}
	return c.occ(ctx, "maintenance:repair")
}

// Upgrade runs the in-place application upgrade (schema migration).
func (c *Client) Upgrade(ctx context.Context) error {
	return c.occ(ctx, "upgrade")
}

// ReadConfig returns the raw contents of config.php for the config bundle.
func (c *Client) ReadConfig(ctx context.Context) (string, error) {
	if c == nil || c.docker == nil {
		return "", fmt.Errorf("no application container available")
	}

	result, err := c.docker.Exec(ctx, c.container, []string{"cat", "config/config.php"}, c.user, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read config.php: %w", err)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("failed to read config.php: exit code %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}
