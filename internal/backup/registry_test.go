package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact(id, category, path string) models.Artifact {
	return models.Artifact{
		ID:        id,
		RunID:     "run1",
		Category:  category,
		Name:      "nextcloud",
		Timestamp: time.Now(),
		FilePath:  path,
		Status:    models.StatusInProgress,
	}
}

func TestRegistryAddAndList(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)

	require.NoError(t, r.Add(testArtifact("a1", "database", filepath.Join(dir, "a1"))))
	require.NoError(t, r.Add(testArtifact("a2", "data", filepath.Join(dir, "a2"))))

	all, err := r.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	dbOnly, err := r.List("database")
	require.NoError(t, err)
	require.Len(t, dbOnly, 1)
	assert.Equal(t, "a1", dbOnly[0].ID)
}

func TestRegistryUpdate(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)

	a := testArtifact("a1", "database", filepath.Join(dir, "a1"))
	require.NoError(t, r.Add(a))

	a.Status = models.StatusCompleted
	a.SizeBytes = 42
	require.NoError(t, r.Update(a))

	got, err := r.List("")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StatusCompleted, got[0].Status)
	assert.EqualValues(t, 42, got[0].SizeBytes)
}

func TestRegistryUpdateUnknownArtifact(t *testing.T) {
	r := NewRegistry(t.TempDir())
	err := r.Update(testArtifact("ghost", "database", "/nowhere"))
	assert.Error(t, err)
}

func TestRegistryPruneDropsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)

	present := filepath.Join(dir, "present.tar.gz")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))

	require.NoError(t, r.Add(testArtifact("kept", "data", present)))
	require.NoError(t, r.Add(testArtifact("gone", "data", filepath.Join(dir, "missing.tar.gz"))))

	require.NoError(t, r.Prune())

	got, err := r.List("")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].ID)
}

func TestRegistryEmptyWhenFileMissing(t *testing.T) {
	r := NewRegistry(t.TempDir())
	got, err := r.List("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
