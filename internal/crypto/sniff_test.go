package crypto

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestIsEncryptedPath(t *testing.T) {
	assert.True(t, IsEncryptedPath("db-nextcloud-20260115_093000.sql.gz.gpg"))
	assert.False(t, IsEncryptedPath("db-nextcloud-20260115_093000.sql.gz"))
	assert.False(t, IsEncryptedPath("notes.gpg.txt"))
}

func TestSniffFileGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.sql.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("SELECT 1;"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	verdict, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictPlain, verdict)
}

func TestSniffFileTar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.tar")
	f, err := os.Create(path)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	content := []byte("hello")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "hello.txt", Mode: 0644, Size: int64(len(content))}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	verdict, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictPlain, verdict)
}

func TestSniffFileArmored(t *testing.T) {
	path := writeTemp(t, "msg.asc", []byte("-----BEGIN PGP MESSAGE-----\n\nhQEMA...\n-----END PGP MESSAGE-----\n"))

	verdict, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictEncrypted, verdict)
}

func TestSniffFileBinaryPackets(t *testing.T) {
	// new-format packet, tag 18 (encrypted and integrity protected)
	newFormat := writeTemp(t, "new.bin", []byte{0xd2, 0x01, 0x02, 0x03})
	verdict, err := SniffFile(newFormat)
	require.NoError(t, err)
	assert.Equal(t, VerdictEncrypted, verdict)

	// old-format packet, tag 1 (public-key encrypted session key)
	oldFormat := writeTemp(t, "old.bin", []byte{0x84, 0x01, 0x02, 0x03})
	verdict, err = SniffFile(oldFormat)
	require.NoError(t, err)
	assert.Equal(t, VerdictEncrypted, verdict)
}

func TestSniffFileUnknown(t *testing.T) {
	path := writeTemp(t, "notes.txt", []byte("just some text"))

	verdict, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictUnknown, verdict)
}

func TestSniffFileMissing(t *testing.T) {
	_, err := SniffFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
