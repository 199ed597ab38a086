package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// Registry is the JSON artifact index kept next to the archives. It carries
// the encrypted flag explicitly so restore never has to sniff files this
// tool produced.
type Registry struct {
	path string
}

func NewRegistry(backupDir string) *Registry {
	return &Registry{path: filepath.Join(backupDir, "registry.json")}
}

func (r *Registry) load() (*models.ArtifactRegistry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.ArtifactRegistry{}, nil
		}
		return nil, fmt.Errorf("failed to read backup registry: %w", err)
	}

	var registry models.ArtifactRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse backup registry: %w", err)
	}

	return &registry, nil
}

func (r *Registry) save(registry *models.ArtifactRegistry) error {
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return err
	}
	return utils.AtomicWriteFile(r.path, data, 0644)
}

func (r *Registry) Add(artifact models.Artifact) error {
	registry, err := r.load()
	if err != nil {
		return err
	}
	registry.Artifacts = append(registry.Artifacts, artifact)
	return r.save(registry)
}

func (r *Registry) Update(artifact models.Artifact) error {
	registry, err := r.load()
	if err != nil {
		return err
	}
	for i, a := range registry.Artifacts {
		if a.ID == artifact.ID {
			registry.Artifacts[i] = artifact
			return r.save(registry)
		}
	}
	return fmt.Errorf("artifact %s not found in registry", artifact.ID)
}

// List returns artifacts, optionally filtered by category.
func (r *Registry) List(category string) ([]models.Artifact, error) {
	registry, err := r.load()
	if err != nil {
		return nil, err
	}

	if category == "" {
		return registry.Artifacts, nil
	}

	var filtered []models.Artifact
	for _, a := range registry.Artifacts {
		if a.Category == category {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// Prune drops registry entries whose files no longer exist on disk.
func (r *Registry) Prune() error {
	registry, err := r.load()
	if err != nil {
		return err
	}

	kept := registry.Artifacts[:0]
	for _, a := range registry.Artifacts {
		if _, err := os.Stat(a.FilePath); err == nil {
			kept = append(kept, a)
		}
	}
	registry.Artifacts = kept
	return r.save(registry)
}
