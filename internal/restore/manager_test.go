package restore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/backup"
	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pickLast selects the last offered option, to prove the prompt result is
// honored rather than the sort order.
type pickLast struct{}

func (pickLast) Confirm(string, bool) bool { return false }
func (pickLast) Select(_ string, options []string) (int, error) {
	return len(options) - 1, nil
}

func writeArtifact(t *testing.T, dir, category, name string, ts time.Time) string {
	t.Helper()
	path := filepath.Join(dir, backup.ArtifactName(category, name, ts))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestSelectArtifactByTimestamp(t *testing.T) {
	dir := t.TempDir()
	older := time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local)
	newer := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	olderPath := writeArtifact(t, dir, "database", "nextcloud", older)
	writeArtifact(t, dir, "database", "nextcloud", newer)

	m := &Manager{cfg: &models.Config{BackupDir: dir}, log: logger.Nop(), confirmer: pickLast{}}

	got, err := m.selectArtifact("database", "20260110_090000")
	require.NoError(t, err)
	assert.Equal(t, olderPath, got)
}

func TestSelectArtifactSingleCandidateSkipsPrompt(t *testing.T) {
	dir := t.TempDir()
	only := writeArtifact(t, dir, "data", "nextcloud", time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local))
	writeArtifact(t, dir, "database", "nextcloud", time.Date(2026, 1, 16, 9, 0, 0, 0, time.Local))

	m := &Manager{cfg: &models.Config{BackupDir: dir}, log: logger.Nop(), confirmer: pickLast{}}

	got, err := m.selectArtifact("data", "")
	require.NoError(t, err)
	assert.Equal(t, only, got)
}

func TestSelectArtifactPromptsAmongMultiple(t *testing.T) {
	dir := t.TempDir()
	older := time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local)
	newer := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	olderPath := writeArtifact(t, dir, "database", "nextcloud", older)
	writeArtifact(t, dir, "database", "nextcloud", newer)

	m := &Manager{cfg: &models.Config{BackupDir: dir}, log: logger.Nop(), confirmer: pickLast{}}

	// options are newest-first, so picking the last yields the oldest
	got, err := m.selectArtifact("database", "")
	require.NoError(t, err)
	assert.Equal(t, olderPath, got)
}

func TestSelectArtifactMissingTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "database", "nextcloud", time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local))

	m := &Manager{cfg: &models.Config{BackupDir: dir}, log: logger.Nop(), confirmer: pickLast{}}

	_, err := m.selectArtifact("database", "20990101_000000")
	assert.Error(t, err)
}
