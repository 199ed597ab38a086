package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/archive"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// backupData archives the live data directory inside a maintenance-mode
// window so the application does not mutate files mid-archive. A failed
// toggle is a warning by default: the archive still proceeds, being
// consistent enough for disaster recovery. BACKUP_REQUIRE_MAINTENANCE
// upgrades the toggle to a hard requirement.
func (m *Manager) backupData(ctx context.Context, runID string, ts time.Time) ([]models.Artifact, error) {
	if err := m.occ.MaintenanceMode(ctx, true); err != nil {
		if m.cfg.RequireMaintenance {
			return nil, fmt.Errorf("failed to enable maintenance mode: %w", err)
		}
		m.log.Warnf("could not enable maintenance mode, archiving anyway: %v", err)
	}
	defer func() {
		if err := m.occ.MaintenanceMode(ctx, false); err != nil {
			m.log.Warnf("could not disable maintenance mode: %v", err)
		}
	}()

	path := filepath.Join(m.cfg.BackupDir, ArtifactName("data", "nextcloud", ts))
	if err := archive.Create(m.cfg.DataDir, path); err != nil {
		return nil, fmt.Errorf("failed to archive data directory: %w", err)
	}

	artifact, err := m.finalize(ctx, runID, "data", "nextcloud", ts, path)
	if err != nil {
		return nil, err
	}
	return []models.Artifact{artifact}, nil
}
