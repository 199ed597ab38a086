package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lucsky/cuid"
	"github.com/ncdeploy/ncdeploy/internal/crypto"
	"github.com/ncdeploy/ncdeploy/internal/docker"
	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/internal/nextcloud"
	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// FullOrder is the fixed category order of a full backup run.
var FullOrder = []string{"database", "data", "config", "volumes", "logs"}

// Manager produces category-scoped backup artifacts and hands each one to
// the encryption policy engine. Category failures are independent: a full
// run continues past them and surfaces an aggregate error at the end.
type Manager struct {
	cfg        *models.Config
	stack      *models.StackConfig
	configPath string

	docker   *docker.Client
	compose  *docker.Compose
	engine   *crypto.Engine
	occ      *nextcloud.Client
	store    *secrets.Store
	registry *Registry
	log      *logger.Logger

	// run dispatches one category; injectable so tests can script
	// per-category outcomes.
	run func(ctx context.Context, category, runID string, ts time.Time) ([]models.Artifact, error)
	now func() time.Time
}

func NewManager(
	cfg *models.Config,
	stack *models.StackConfig,
	configPath string,
	dockerClient *docker.Client,
	engine *crypto.Engine,
	occ *nextcloud.Client,
	store *secrets.Store,
	log *logger.Logger,
) (*Manager, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	m := &Manager{
		cfg:        cfg,
		stack:      stack,
		configPath: configPath,
		docker:     dockerClient,
		compose:    docker.NewCompose(cfg.ComposeProject, cfg.ComposeFile),
		engine:     engine,
		occ:        occ,
		store:      store,
		registry:   NewRegistry(cfg.BackupDir),
		log:        log,
		now:        time.Now,
	}
	m.run = m.runCategory
	return m, nil
}

// CreateCategory runs one backup category and returns the artifacts it
// produced (volumes yield one per named volume, the rest exactly one).
func (m *Manager) CreateCategory(ctx context.Context, category string) ([]models.Artifact, error) {
	return m.run(ctx, category, cuid.New(), m.now())
}

func (m *Manager) runCategory(ctx context.Context, category, runID string, ts time.Time) ([]models.Artifact, error) {
	switch category {
	case "database":
		return m.backupDatabase(ctx, runID, ts)
	case "data":
		return m.backupData(ctx, runID, ts)
	case "config":
		return m.backupConfig(ctx, runID, ts)
	case "volumes":
		return m.backupVolumes(ctx, runID, ts)
	case "logs":
		return m.backupLogs(ctx, runID, ts)
	default:
		return nil, fmt.Errorf("unknown backup category %q", category)
	}
}

// CreateFull runs every category in the fixed order, continuing past
// individual failures. Each category's outcome is reported independently;
// the returned error aggregates the failures.
func (m *Manager) CreateFull(ctx context.Context) ([]models.Artifact, error) {
	var all []models.Artifact
	var failures []error

	for _, category := range FullOrder {
		m.log.Infof("backing up category %s", category)

		artifacts, err := m.CreateCategory(ctx, category)
		if err != nil {
			m.log.Errorf("category %s failed: %v", category, err)
			failures = append(failures, fmt.Errorf("%s: %w", category, err))
			continue
		}

		m.log.Infof("category %s completed (%d artifact(s))", category, len(artifacts))
		all = append(all, artifacts...)
	}

	if len(failures) > 0 {
		return all, fmt.Errorf("%d of %d categories failed: %w",
			len(failures), len(FullOrder), errors.Join(failures...))
	}

	return all, nil
}

// List returns registry entries, category-filtered when category is set.
func (m *Manager) List(category string) ([]models.Artifact, error) {
	return m.registry.List(category)
}

// finalize applies the encryption policy to a freshly written archive and
// records the completed artifact. The archive is only registered as
// completed once the policy step succeeded: a failed encryption never
// counts as "backup complete".
func (m *Manager) finalize(ctx context.Context, runID, category, name string, ts time.Time, path string) (models.Artifact, error) {
	artifact := models.Artifact{
		ID:        fmt.Sprintf("%s-%s-%s", CategoryPrefix(category), name, ts.Format(TimestampLayout)),
		RunID:     runID,
		Category:  category,
		Name:      name,
		Timestamp: ts,
		FilePath:  path,
		Status:    models.StatusInProgress,
	}
	if err := m.registry.Add(artifact); err != nil {
		return artifact, err
	}

	finalPath, encrypted, err := m.engine.Apply(ctx, category, path)
	if err != nil {
		artifact.Status = models.StatusFailed
		m.registry.Update(artifact)
		return artifact, err
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		artifact.Status = models.StatusFailed
		m.registry.Update(artifact)
		return artifact, fmt.Errorf("failed to stat artifact: %w", err)
	}

	artifact.FilePath = finalPath
	artifact.Encrypted = encrypted
	artifact.SizeBytes = info.Size()
	artifact.Status = models.StatusCompleted

	if err := m.registry.Update(artifact); err != nil {
		return artifact, err
	}

	return artifact, nil
}
