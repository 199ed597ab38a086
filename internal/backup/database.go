package backup

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// backupDatabase dumps the database through gzip straight to the backup
// path. The dump stream must exit zero and close cleanly before the
// artifact moves on to the encryption step; a failed dump never leaves a
// partial archive behind masquerading as success.
func (m *Manager) backupDatabase(ctx context.Context, runID string, ts time.Time) ([]models.Artifact, error) {
	path := filepath.Join(m.cfg.BackupDir, ArtifactName("database", m.cfg.DBName, ts))

	var err error
	if m.cfg.ExternalDB() {
		err = m.dumpExternal(ctx, path)
	} else {
		err = m.dumpContainer(ctx, path)
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dump reported success but archive is missing: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return nil, fmt.Errorf("dump produced an empty archive")
	}

	artifact, err := m.finalize(ctx, runID, "database", m.cfg.DBName, ts, path)
	if err != nil {
		return nil, err
	}
	return []models.Artifact{artifact}, nil
}

func (m *Manager) dumpContainer(ctx context.Context, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)

	cmd := []string{
		"pg_dump",
		"-U", m.cfg.DBUser,
		"-d", m.cfg.DBName,
		"--clean",
		"--if-exists",
		"--no-owner",
		"--no-acl",
	}

	if _, err := m.docker.ExecStreamOut(ctx, m.cfg.DBContainer, cmd, nil, gzw); err != nil {
		return fmt.Errorf("pg_dump in container %s failed: %w", m.cfg.DBContainer, err)
	}

	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressed dump: %w", err)
	}
	return out.Close()
}

func (m *Manager) dumpExternal(ctx context.Context, path string) error {
	password, err := m.store.Read("postgres_password")
	if err != nil {
		return fmt.Errorf("failed to resolve database credentials: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)

	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", m.cfg.DBHost,
		"-p", strconv.Itoa(m.cfg.DBPort),
		"-U", m.cfg.DBUser,
		"-d", m.cfg.DBName,
		"--clean",
		"--if-exists",
		"--no-owner",
		"--no-acl",
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+password)
	cmd.Stdout = gzw

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump against %s failed: %w", m.cfg.DBHost, err)
	}

	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressed dump: %w", err)
	}
	return out.Close()
}
