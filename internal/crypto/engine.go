package crypto

import (
	"context"
	"fmt"

	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// Engine evaluates the encryption policy per category and applies it to
// backup artifacts. Exactly one file remains at the returned path: the
// untouched plaintext when policy skips the category, the ciphertext when
// it does not.
type Engine struct {
	enabled bool
	types   string
	cryptor Cryptor
}

// NewEngine builds the policy engine from the deployment config. When
// encryption is enabled the recipient list must be non-empty; that is a
// configuration error, not a runtime one.
func NewEngine(cfg *models.Config) (*Engine, error) {
	var recipients []string
	if cfg.GPGEncryption {
		var err error
		recipients, err = ParseRecipients(cfg.GPGRecipients)
		if err != nil {
			return nil, fmt.Errorf("BACKUP_GPG_ENCRYPTION is enabled: %w", err)
		}
	}

	return &Engine{
		enabled: cfg.GPGEncryption,
		types:   cfg.GPGEncryptTypes,
		cryptor: NewGPG(recipients, cfg.GPGCipher, cfg.GPGCompressLevel, cfg.GPGHomedir),
	}, nil
}

// NewEngineWithCryptor is the test constructor.
func NewEngineWithCryptor(enabled bool, types string, cryptor Cryptor) *Engine {
	return &Engine{enabled: enabled, types: types, cryptor: cryptor}
}

// Recipients returns the configured recipient identifiers; empty when
// encryption is disabled.
func (e *Engine) Recipients() []string {
	if gpg, ok := e.cryptor.(*GPG); ok {
		return gpg.Recipients
	}
	return nil
}

// Applies reports whether the policy would encrypt the given category.
func (e *Engine) Applies(category string) bool {
	return ShouldEncrypt(e.enabled, e.types, category)
}

// Apply runs the policy for one artifact. A failed encryption leaves the
// plaintext in place and returns an error; callers must not report the
// backup as complete in that case.
func (e *Engine) Apply(ctx context.Context, category, path string) (string, bool, error) {
	if !e.Applies(category) {
		return path, false, nil
	}

	out := path + ".gpg"
	if err := e.cryptor.EncryptFile(ctx, path, out); err != nil {
		return path, false, fmt.Errorf("failed to encrypt %s artifact: %w", category, err)
	}

	return out, true, nil
}

// Decrypt unwraps an encrypted artifact to out.
func (e *Engine) Decrypt(ctx context.Context, in, out string) error {
	return e.cryptor.DecryptFile(ctx, in, out)
}
