package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/archive"
	"github.com/ncdeploy/ncdeploy/internal/backup"
	"github.com/ncdeploy/ncdeploy/internal/crypto"
	"github.com/ncdeploy/ncdeploy/internal/docker"
	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/internal/nextcloud"
	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// ErrRecoveryFailed marks the higher-severity condition: a destructive
// step failed and the best-effort recovery failed too. Manual intervention
// is required.
var ErrRecoveryFailed = fmt.Errorf("recovery after failed restore did not succeed, manual intervention required")

// Manager restores backup artifacts into the live deployment. Unlike
// backups, the composite restore aborts on the first category failure:
// later categories assume earlier ones succeeded.
type Manager struct {
	cfg   *models.Config
	stack *models.StackConfig

	docker    *docker.Client
	compose   *docker.Compose
	engine    *crypto.Engine
	occ       *nextcloud.Client
	store     *secrets.Store
	log       *logger.Logger
	confirmer prompt.Confirmer

	// extract is injectable so tests can force extraction failures.
	extract func(archivePath, destDir string) error
	now     func() time.Time
}

func NewManager(
	cfg *models.Config,
	stack *models.StackConfig,
	dockerClient *docker.Client,
	engine *crypto.Engine,
	occ *nextcloud.Client,
	store *secrets.Store,
	log *logger.Logger,
	confirmer prompt.Confirmer,
) *Manager {
	return &Manager{
		cfg:       cfg,
		stack:     stack,
		docker:    dockerClient,
		compose:   docker.NewCompose(cfg.ComposeProject, cfg.ComposeFile),
		engine:    engine,
		occ:       occ,
		store:     store,
		log:       log,
		confirmer: confirmer,
		extract:   archive.Extract,
		now:       time.Now,
	}
}

// RestoreFull runs database, data and config restores in that fixed order,
// aborting on the first failure.
func (m *Manager) RestoreFull(ctx context.Context) error {
	steps := []struct {
		category string
		run      func(context.Context, string) error
	}{
		{"database", m.RestoreDatabase},
		{"data", m.RestoreData},
		{"config", m.RestoreConfig},
	}

	for _, step := range steps {
		m.log.Infof("restoring category %s", step.category)
		if err := step.run(ctx, ""); err != nil {
			return fmt.Errorf("%s restore failed, aborting remaining categories: %w", step.category, err)
		}
	}

	return nil
}

// selectArtifact finds the artifact of the requested category to restore:
// by exact timestamp when given, otherwise prompting the operator with the
// newest first.
func (m *Manager) selectArtifact(category, timestamp string) (string, error) {
	entries, err := os.ReadDir(m.cfg.BackupDir)
	if err != nil {
		return "", fmt.Errorf("failed to read backup directory: %w", err)
	}

	type candidate struct {
		path   string
		parsed *backup.ParsedArtifact
	}
	var candidates []candidate

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parsed, err := backup.ParseArtifactName(entry.Name())
		if err != nil || parsed.Category != category {
			continue
		}
		if timestamp != "" && parsed.Timestamp.Format(backup.TimestampLayout) != timestamp {
			continue
		}
		candidates = append(candidates, candidate{
			path:   filepath.Join(m.cfg.BackupDir, entry.Name()),
			parsed: parsed,
		})
	}

	if len(candidates) == 0 {
		if timestamp != "" {
			return "", fmt.Errorf("no %s backup with timestamp %s found", category, timestamp)
		}
		return "", fmt.Errorf("no %s backups found in %s", category, m.cfg.BackupDir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].parsed.Timestamp.After(candidates[j].parsed.Timestamp)
	})

	if timestamp != "" || len(candidates) == 1 {
		return candidates[0].path, nil
	}

	options := make([]string, len(candidates))
	for i, c := range candidates {
		marker := ""
		if c.parsed.Encrypted {
			marker = " (encrypted)"
		}
		options[i] = fmt.Sprintf("%s%s", filepath.Base(c.path), marker)
	}

	choice, err := m.confirmer.Select(fmt.Sprintf("select %s backup to restore", category), options)
	if err != nil {
		return "", err
	}
	return candidates[choice].path, nil
}

// stageDecrypted returns a plaintext path for the artifact, decrypting
// into a temporary directory when needed, plus a cleanup function that
// removes any decrypted copy.
func (m *Manager) stageDecrypted(ctx context.Context, path string) (string, func(), error) {
	noop := func() {}

	encrypted := crypto.IsEncryptedPath(path)
	if !encrypted {
		verdict, err := crypto.SniffFile(path)
		switch {
		case err != nil:
			return "", noop, err
		case verdict == crypto.VerdictEncrypted:
			encrypted = true
		case verdict == crypto.VerdictUnknown:
			// ambiguous content, let the operator decide; fail-closed
			// non-interactive means we treat it as plaintext only on
			// explicit confirmation
			encrypted = m.confirmer.Confirm(
				fmt.Sprintf("cannot tell whether %s is encrypted; attempt decryption", filepath.Base(path)), false)
		}
	}

	if !encrypted {
		return path, noop, nil
	}

	tmpDir, err := os.MkdirTemp("", "ncdeploy-restore-*")
	if err != nil {
		return "", noop, fmt.Errorf("failed to create staging directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, strings.TrimSuffix(filepath.Base(path), ".gpg"))
	if err := m.engine.Decrypt(ctx, path, out); err != nil {
		cleanup()
		return "", noop, err
	}

	return out, cleanup, nil
}

// restartServices is the best-effort recovery path after a destructive
// step failed; its own failure is the distinct higher-severity condition.
func (m *Manager) restartServices(ctx context.Context, services []string) error {
	if len(services) == 0 {
		return nil
	}
	if err := m.compose.Start(ctx, services...); err != nil {
		return fmt.Errorf("%w: failed to restart %s: %v", ErrRecoveryFailed, strings.Join(services, ", "), err)
	}
	return nil
}
