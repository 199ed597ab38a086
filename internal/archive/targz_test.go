package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSource(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "nested.txt"), []byte("nested"), 0600))
	return src
}

func TestCreateExtractRoundTrip(t *testing.T) {
	src := buildSource(t)
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")

	require.NoError(t, Create(src, out))

	dest := t.TempDir()
	require.NoError(t, Extract(out, dest))

	top, err := os.ReadFile(filepath.Join(dest, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("top"), top)

	nested, err := os.ReadFile(filepath.Join(dest, "sub", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("nested"), nested)

	info, err := os.Stat(filepath.Join(dest, "sub", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCreateMissingSourceLeavesNoPartialArchive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")
	err := Create(filepath.Join(t.TempDir(), "absent"), out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestExtractRejectsPathEscape(t *testing.T) {
	// hand-build an archive with a traversal entry
	out := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(out)
	require.NoError(t, err)
	gzw := gzip.NewWriter(f)
	tw := tar.NewWriter(gzw)
	content := []byte("pwned")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0644, Size: int64(len(content))}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, os.MkdirAll(dest, 0755))

	err = Extract(out, dest)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.txt"))
}

func TestListReturnsRegularEntries(t *testing.T) {
	src := buildSource(t)
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, Create(src, out))

	names, err := List(out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top.txt", "sub/nested.txt"}, names)
}

func TestExtractFile(t *testing.T) {
	src := buildSource(t)
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, Create(src, out))

	dest := filepath.Join(t.TempDir(), "only.txt")
	require.NoError(t, ExtractFile(out, "sub/nested.txt", dest, 0600))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("nested"), data)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExtractFileMissingEntry(t *testing.T) {
	src := buildSource(t)
	out := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, Create(src, out))

	err := ExtractFile(out, "nope.txt", filepath.Join(t.TempDir(), "x"), 0644)
	assert.Error(t, err)
}
