package docker

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/volume"
)

const helperImage = "alpine:latest"

func (c *Client) VolumeExists(ctx context.Context, volumeName string) (bool, error) {
	_, err := c.cli.VolumeInspect(ctx, volumeName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect volume %s: %w", volumeName, err)
	}
	return true, nil
}

func (c *Client) CreateVolume(ctx context.Context, volumeName string) error {
	_, err := c.cli.VolumeCreate(ctx, volume.CreateOptions{
		Name:   volumeName,
		Driver: "local",
	})
	if err != nil {
		return fmt.Errorf("failed to create volume %s: %w", volumeName, err)
	}
	return nil
}

// ArchiveVolume tars a named volume's contents into archivePath on the
// host, via a throwaway helper container with the volume mounted read-only.
func (c *Client) ArchiveVolume(ctx context.Context, volumeName, archivePath string) error {
	cmd := fmt.Sprintf("tar czf /backup/%s -C /volume-data .", filepath.Base(archivePath))
	return c.runVolumeHelper(ctx, volumeName, archivePath, cmd, true)
}

// RestoreVolume wipes a named volume and untars archivePath into it.
func (c *Client) RestoreVolume(ctx context.Context, volumeName, archivePath string) error {
	cmd := fmt.Sprintf("rm -rf /volume-data/* /volume-data/..?* /volume-data/.[!.]* 2>/dev/null || true && tar xzf /backup/%s -C /volume-data", filepath.Base(archivePath))
	return c.runVolumeHelper(ctx, volumeName, archivePath, cmd, false)
}

func (c *Client) runVolumeHelper(ctx context.Context, volumeName, archivePath, shellCmd string, readOnlyVolume bool) error {
	ctx, cancel := context.WithTimeout(ctx, VolumeCopyTimeout)
	defer cancel()

	config := &container.Config{
		Image: helperImage,
		Cmd:   []string{"sh", "-c", shellCmd},
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:     mount.TypeVolume,
				Source:   volumeName,
				Target:   "/volume-data",
				ReadOnly: readOnlyVolume,
			},
			{
				Type:     mount.TypeBind,
				Source:   filepath.Dir(archivePath),
				Target:   "/backup",
				ReadOnly: !readOnlyVolume,
			},
		},
		AutoRemove: true,
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return fmt.Errorf("failed to create helper container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start helper container: %w", err)
	}

	statusCh, errCh := c.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error waiting for helper container: %w", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("helper container exited with code %d", status.StatusCode)
		}
	}

	return nil
}
