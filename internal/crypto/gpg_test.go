package crypto

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genTestKey creates a passphrase-less key in an isolated homedir so the
// round-trip test never touches the user's keyring.
func genTestKey(t *testing.T, homedir string) {
	t.Helper()

	require.NoError(t, os.Chmod(homedir, 0700))
	cmd := exec.Command("gpg",
		"--homedir", homedir,
		"--batch", "--passphrase", "",
		"--quick-generate-key", "backup-test@example.com", "default", "default", "never")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Skipf("cannot generate test key: %v: %s", err, out)
	}
}

func TestGPGRoundTrip(t *testing.T) {
	if !Available() {
		t.Skip("gpg binary not installed")
	}

	homedir := t.TempDir()
	genTestKey(t, homedir)

	dir := t.TempDir()
	plain := filepath.Join(dir, "artifact.tar.gz")
	require.NoError(t, os.WriteFile(plain, []byte("payload"), 0644))

	g := NewGPG([]string{"backup-test@example.com"}, "AES256", 6, homedir)
	ctx := context.Background()

	encrypted := plain + ".gpg"
	require.NoError(t, g.EncryptFile(ctx, plain, encrypted))

	// exactly one file remains after encryption
	_, err := os.Stat(plain)
	assert.True(t, os.IsNotExist(err), "plaintext should be gone")
	_, err = os.Stat(encrypted)
	require.NoError(t, err)

	restored := filepath.Join(dir, "restored.tar.gz")
	require.NoError(t, g.DecryptFile(ctx, encrypted, restored))

	data, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestGPGEncryptInPlaceKeepsCiphertext(t *testing.T) {
	if !Available() {
		t.Skip("gpg binary not installed")
	}

	homedir := t.TempDir()
	genTestKey(t, homedir)

	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))

	g := NewGPG([]string{"backup-test@example.com"}, "AES256", 6, homedir)
	require.NoError(t, g.EncryptFile(context.Background(), path, path))

	// encrypting onto the input path must not delete the result
	verdict, err := SniffFile(path)
	require.NoError(t, err)
	assert.Equal(t, VerdictEncrypted, verdict)
}

func TestGPGEncryptWithoutRecipients(t *testing.T) {
	g := NewGPG(nil, "AES256", 6, "")
	err := g.EncryptFile(context.Background(), "in", "out")
	assert.Error(t, err)
}

func TestGPGDecryptRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "existing")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

	g := NewGPG(nil, "AES256", 6, "")
	err := g.DecryptFile(context.Background(), filepath.Join(dir, "in.gpg"), out)
	assert.Error(t, err)
}

func TestNewGPGDefaults(t *testing.T) {
	g := NewGPG(nil, "", -1, "")
	assert.Equal(t, "AES256", g.Cipher)
	assert.Equal(t, 6, g.CompressLevel)
}
