package crypto

import (
	"context"
	"fmt"
	"testing"

	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCryptor records calls instead of shelling out to gpg.
type fakeCryptor struct {
	encrypted [][2]string
	failWith  error
}

func (f *fakeCryptor) EncryptFile(ctx context.Context, in, out string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.encrypted = append(f.encrypted, [2]string{in, out})
	return nil
}

func (f *fakeCryptor) DecryptFile(ctx context.Context, in, out string) error {
	return nil
}

func TestEngineApplySkipsExcludedCategory(t *testing.T) {
	fake := &fakeCryptor{}
	engine := NewEngineWithCryptor(true, "database", fake)

	path, encrypted, err := engine.Apply(context.Background(), "logs", "/backups/logs-stack-20260115_093000.tar.gz")
	require.NoError(t, err)
	assert.False(t, encrypted)
	assert.Equal(t, "/backups/logs-stack-20260115_093000.tar.gz", path)
	assert.Empty(t, fake.encrypted)
}

func TestEngineApplyEncryptsIncludedCategory(t *testing.T) {
	fake := &fakeCryptor{}
	engine := NewEngineWithCryptor(true, "all", fake)

	path, encrypted, err := engine.Apply(context.Background(), "database", "/backups/db-nextcloud-20260115_093000.sql.gz")
	require.NoError(t, err)
	assert.True(t, encrypted)
	assert.Equal(t, "/backups/db-nextcloud-20260115_093000.sql.gz.gpg", path)
	require.Len(t, fake.encrypted, 1)
}

func TestEngineApplyFailureKeepsPlaintextPath(t *testing.T) {
	fake := &fakeCryptor{failWith: fmt.Errorf("gpg exploded")}
	engine := NewEngineWithCryptor(true, "all", fake)

	path, encrypted, err := engine.Apply(context.Background(), "database", "/backups/db-nextcloud-20260115_093000.sql.gz")
	require.Error(t, err)
	assert.False(t, encrypted)
	assert.Equal(t, "/backups/db-nextcloud-20260115_093000.sql.gz", path)
}

func TestNewEngineRequiresRecipientsWhenEnabled(t *testing.T) {
	cfg := &models.Config{GPGEncryption: true, GPGRecipients: "", GPGEncryptTypes: "all"}
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestNewEngineDisabledNeedsNoRecipients(t *testing.T) {
	cfg := &models.Config{GPGEncryption: false}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.False(t, engine.Applies("database"))
}
