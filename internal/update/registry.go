package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// Registry appends update run records next to the backup registry so
// operators can correlate snapshots on disk with the runs that made them.
type Registry struct {
	path string
}

func NewRegistry(backupDir string) *Registry {
	return &Registry{path: filepath.Join(backupDir, "updates.json")}
}

func (r *Registry) Append(run models.UpdateRun) error {
	registry, err := r.load()
	if err != nil {
		return err
	}
	registry.Runs = append(registry.Runs, run)

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}
	return utils.AtomicWriteFile(r.path, data, 0644)
}

func (r *Registry) List() ([]models.UpdateRun, error) {
	registry, err := r.load()
	if err != nil {
		return nil, err
	}
	return registry.Runs, nil
}

func (r *Registry) load() (*models.UpdateRegistry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.UpdateRegistry{}, nil
		}
		return nil, fmt.Errorf("failed to read update registry: %w", err)
	}

	var registry models.UpdateRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse update registry: %w", err)
	}

	return &registry, nil
}
