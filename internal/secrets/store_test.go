package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesAllSecretsWithTightPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	store := NewStore(dir)

	require.NoError(t, store.Init(prompt.NonInteractive{}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	for _, name := range Names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		require.NoError(t, err, "secret %s should exist", name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "secret %s", name)

		value, err := store.Read(name)
		require.NoError(t, err)
		assert.Len(t, value, passwordLength)
	}
}

func TestInitKeepsExistingSecretsWithoutConfirmation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	store := NewStore(dir)
	require.NoError(t, store.Init(prompt.NonInteractive{}))

	before, err := store.Read("postgres_password")
	require.NoError(t, err)

	// the fail-closed confirmer declines regeneration
	require.NoError(t, store.Init(prompt.NonInteractive{}))

	after, err := store.Read("postgres_password")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRotateChangesValue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	store := NewStore(dir)
	require.NoError(t, store.Init(prompt.NonInteractive{}))

	before, err := store.Read("redis_password")
	require.NoError(t, err)

	require.NoError(t, store.Rotate("redis_password"))

	after, err := store.Read("redis_password")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestRotateRejectsUnknownName(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.Error(t, store.Rotate("root_password"))
}

func TestReadRejectsMultiLineSecret(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postgres_password"), []byte("line1\nline2\n"), 0600))

	_, err := store.Read("postgres_password")
	assert.Error(t, err)
}

func TestReadTrimsTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postgres_password"), []byte("hunter2\n"), 0600))

	value, err := store.Read("postgres_password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestReadRejectsEmptySecret(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postgres_password"), []byte("\n"), 0600))

	_, err := store.Read("postgres_password")
	assert.Error(t, err)
}

func TestEnsurePermsTightensLooseFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postgres_password"), []byte("x\n"), 0644))

	store := NewStore(dir)
	require.NoError(t, store.EnsurePerms())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dir, "postgres_password"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestListSortsAndSkipsMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	dir := t.TempDir()
	store = NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b"), []byte("x\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("x\n"), 0600))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
