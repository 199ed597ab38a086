package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// backupVolumes snapshots each named persistent volume in the stack
// manifest via a throwaway container. A missing volume is a warning, not a
// failure: not every deployment uses every volume.
func (m *Manager) backupVolumes(ctx context.Context, runID string, ts time.Time) ([]models.Artifact, error) {
	names := make([]string, 0, len(m.stack.Volumes))
	for name := range m.stack.Volumes {
		names = append(names, name)
	}
	sort.Strings(names)

	var artifacts []models.Artifact
	for _, name := range names {
		dockerVolume := fmt.Sprintf("%s_%s", m.cfg.ComposeProject, name)

		exists, err := m.docker.VolumeExists(ctx, dockerVolume)
		if err != nil {
			return artifacts, err
		}
		if !exists {
			m.log.Warnf("volume %s does not exist, skipping", dockerVolume)
			continue
		}

		path := filepath.Join(m.cfg.BackupDir, ArtifactName("volumes", name, ts))
		if err := m.docker.ArchiveVolume(ctx, dockerVolume, path); err != nil {
			return artifacts, fmt.Errorf("failed to archive volume %s: %w", dockerVolume, err)
		}

		artifact, err := m.finalize(ctx, runID, "volumes", name, ts, path)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}
