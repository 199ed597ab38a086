package restore

import (
	"context"
	"fmt"
	"os"
)

// RestoreData replaces the live data directory with an archived one. The
// current directory is moved aside to a timestamped sibling first, never
// deleted outright; on extraction failure the sibling is moved back over
// the target path before the error is reported.
func (m *Manager) RestoreData(ctx context.Context, timestamp string) error {
	path, err := m.selectArtifact("data", timestamp)
	if err != nil {
		return err
	}

	plain, cleanup, err := m.stageDecrypted(ctx, path)
	if err != nil {
		return err
	}
	defer cleanup()

	if !m.confirmer.Confirm(fmt.Sprintf("replace data directory %s with backup %s", m.cfg.DataDir, path), false) {
		return fmt.Errorf("data restore cancelled")
	}

	if err := m.occ.MaintenanceMode(ctx, true); err != nil {
		m.log.Warnf("could not enable maintenance mode: %v", err)
	}
	defer func() {
		if err := m.occ.MaintenanceMode(ctx, false); err != nil {
			m.log.Warnf("could not disable maintenance mode: %v", err)
		}
	}()

	aside := fmt.Sprintf("%s.pre-restore-%s", m.cfg.DataDir, m.now().Format("20060102_150405"))

	if _, err := os.Stat(m.cfg.DataDir); err == nil {
		if err := os.Rename(m.cfg.DataDir, aside); err != nil {
			return fmt.Errorf("failed to move current data directory aside: %w", err)
		}
		m.log.Infof("moved current data directory to %s", aside)
	} else if os.IsNotExist(err) {
		aside = ""
	} else {
		return fmt.Errorf("failed to inspect data directory: %w", err)
	}

	if err := os.MkdirAll(m.cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to recreate data directory: %w", err)
	}

	if err := m.extract(plain, m.cfg.DataDir); err != nil {
		// restore the implicit rollback point
		os.RemoveAll(m.cfg.DataDir)
		if aside != "" {
			if moveErr := os.Rename(aside, m.cfg.DataDir); moveErr != nil {
				return fmt.Errorf("%w: extraction failed (%v) and the original directory could not be moved back from %s: %v",
					ErrRecoveryFailed, err, aside, moveErr)
			}
			m.log.Infof("extraction failed, original data directory restored")
		}
		return fmt.Errorf("failed to extract data archive: %w", err)
	}

	if err := m.occ.FilesScan(ctx); err != nil {
		m.log.Warnf("post-restore file rescan failed: %v", err)
	}

	if aside != "" {
		if m.confirmer.Confirm(fmt.Sprintf("delete the moved-aside directory %s", aside), false) {
			if err := os.RemoveAll(aside); err != nil {
				m.log.Warnf("could not delete %s: %v", aside, err)
			}
		} else {
			m.log.Infof("keeping moved-aside directory %s", aside)
		}
	}

	return nil
}
