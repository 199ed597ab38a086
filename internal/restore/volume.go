package restore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ncdeploy/ncdeploy/internal/backup"
)

// RestoreVolume replaces a named volume's entire content from a volume
// artifact. The target volume is derived from the artifact filename; only
// the services the stack manifest maps to that volume are stopped.
func (m *Manager) RestoreVolume(ctx context.Context, timestamp string) error {
	path, err := m.selectArtifact("volumes", timestamp)
	if err != nil {
		return err
	}

	parsed, err := backup.ParseArtifactName(path)
	if err != nil {
		return err
	}
	volumeName := parsed.Name
	dockerVolume := fmt.Sprintf("%s_%s", m.cfg.ComposeProject, volumeName)

	plain, cleanup, err := m.stageDecrypted(ctx, path)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := m.docker.VolumeExists(ctx, dockerVolume)
	if err != nil {
		return err
	}
	if !exists {
		if !m.confirmer.Confirm(fmt.Sprintf("volume %s does not exist, create it", dockerVolume), true) {
			return fmt.Errorf("volume restore cancelled")
		}
		if err := m.docker.CreateVolume(ctx, dockerVolume); err != nil {
			return err
		}
	}

	if !m.confirmer.Confirm(fmt.Sprintf("replace all content of volume %s with backup %s", dockerVolume, filepath.Base(path)), false) {
		return fmt.Errorf("volume restore cancelled")
	}

	vol, ok := m.stack.Volumes[volumeName]
	if !ok {
		m.log.Warnf("volume %s is not in the stack manifest; no services will be stopped", volumeName)
	}

	if len(vol.DependentServices) > 0 {
		m.log.Infof("stopping dependent services: %v", vol.DependentServices)
		if err := m.compose.Stop(ctx, vol.DependentServices...); err != nil {
			return fmt.Errorf("failed to stop dependent services: %w", err)
		}
	}

	restoreErr := m.docker.RestoreVolume(ctx, dockerVolume, plain)

	if err := m.restartServices(ctx, vol.DependentServices); err != nil {
		if restoreErr != nil {
			return fmt.Errorf("volume restore failed (%v); additionally: %w", restoreErr, err)
		}
		return err
	}

	if restoreErr != nil {
		return fmt.Errorf("failed to restore volume %s: %w", dockerVolume, restoreErr)
	}

	return nil
}
