package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/archive"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

const logTailLines = 2000

// backupLogs captures recent log output per service into a bundle. The
// uncompressed per-service files live in a temp directory that is removed
// whatever happens; no plaintext log directory survives the run.
func (m *Manager) backupLogs(ctx context.Context, runID string, ts time.Time) ([]models.Artifact, error) {
	staging, err := os.MkdirTemp("", "ncdeploy-logs-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	captured := 0
	for _, svc := range m.stack.Services {
		out, err := m.compose.Logs(ctx, svc.Name, logTailLines)
		if err != nil {
			m.log.Warnf("could not capture logs for service %s: %v", svc.Name, err)
			continue
		}

		file := filepath.Join(staging, svc.Name+".log")
		if err := os.WriteFile(file, []byte(out), 0644); err != nil {
			m.log.Warnf("could not write log file for service %s: %v", svc.Name, err)
			continue
		}
		captured++
	}

	if captured == 0 {
		return nil, fmt.Errorf("no service logs could be captured")
	}

	path := filepath.Join(m.cfg.BackupDir, ArtifactName("logs", m.cfg.ComposeProject, ts))
	if err := archive.Create(staging, path); err != nil {
		return nil, fmt.Errorf("failed to bundle logs: %w", err)
	}

	artifact, err := m.finalize(ctx, runID, "logs", m.cfg.ComposeProject, ts, path)
	if err != nil {
		return nil, err
	}
	return []models.Artifact{artifact}, nil
}
