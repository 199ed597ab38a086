package backup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// RetentionThresholds maps each category to its age threshold. Volumes
// share the data window.
func RetentionThresholds(cfg *models.Config) map[string]time.Duration {
	day := 24 * time.Hour
	return map[string]time.Duration{
		"database": time.Duration(cfg.RetentionDBDays) * day,
		"data":     time.Duration(cfg.RetentionDataDays) * day,
		"config":   time.Duration(cfg.RetentionConfigDays) * day,
		"volumes":  time.Duration(cfg.RetentionDataDays) * day,
		"logs":     time.Duration(cfg.RetentionLogsDays) * day,
	}
}

// Cleanup deletes artifacts at or beyond their category's age threshold,
// matching both plaintext and encrypted siblings. Deletion is
// unconditional once the threshold is met; there is no prompt. Returns the
// deleted file paths.
func (m *Manager) Cleanup() ([]string, error) {
	return m.cleanupAt(m.now())
}

func (m *Manager) cleanupAt(now time.Time) ([]string, error) {
	thresholds := RetentionThresholds(m.cfg)

	entries, err := os.ReadDir(m.cfg.BackupDir)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		parsed, err := ParseArtifactName(entry.Name())
		if err != nil {
			continue // not one of ours
		}

		threshold, ok := thresholds[parsed.Category]
		if !ok {
			continue
		}

		age := now.Sub(parsed.Timestamp)
		if age < threshold {
			continue
		}

		path := filepath.Join(m.cfg.BackupDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.log.Warnf("could not delete expired artifact %s: %v", path, err)
			continue
		}

		m.log.Infof("deleted expired %s artifact %s (age %s)", parsed.Category, entry.Name(), age.Truncate(time.Second))
		deleted = append(deleted, path)
	}

	if err := m.registry.Prune(); err != nil {
		m.log.Warnf("could not prune backup registry: %v", err)
	}

	return deleted, nil
}
