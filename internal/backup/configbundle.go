package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/archive"
	"github.com/ncdeploy/ncdeploy/internal/utils"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

const plaintextWarning = `WARNING: PLAINTEXT SECRETS

The files in this directory are unencrypted credentials. Anyone holding
this bundle can read them. Store it accordingly.

Files:
`

const decryptHelper = `#!/bin/sh
# Decrypts every .gpg secret in this directory in place.
# Requires a private key matching one of the recipients in README.txt.
set -e
for f in *.gpg; do
    [ -e "$f" ] || continue
    gpg --output "${f%.gpg}" --decrypt "$f"
    chmod 600 "${f%.gpg}"
done
`

// backupConfig bundles the in-container configuration, the on-disk compose
// and environment files, and the secret store. Secrets are policy-evaluated
// per file under the "secrets" category, not per bundle.
func (m *Manager) backupConfig(ctx context.Context, runID string, ts time.Time) ([]models.Artifact, error) {
	staging, err := os.MkdirTemp("", "ncdeploy-config-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	appConfig, err := m.occ.ReadConfig(ctx)
	if err != nil {
		m.log.Warnf("could not read in-container config.php: %v", err)
	} else {
		if err := os.WriteFile(filepath.Join(staging, "config.php"), []byte(appConfig), 0600); err != nil {
			return nil, fmt.Errorf("failed to stage config.php: %w", err)
		}
	}

	for _, f := range []string{m.cfg.ComposeFile, m.configPath} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			m.log.Warnf("skipping missing file %s", f)
			continue
		}
		if err := utils.CopyFile(f, filepath.Join(staging, filepath.Base(f)), 0644); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}

	if err := m.stageSecrets(ctx, staging); err != nil {
		return nil, err
	}

	path := filepath.Join(m.cfg.BackupDir, ArtifactName("config", m.cfg.ComposeProject, ts))
	if err := archive.Create(staging, path); err != nil {
		return nil, fmt.Errorf("failed to archive config bundle: %w", err)
	}

	artifact, err := m.finalize(ctx, runID, "config", m.cfg.ComposeProject, ts, path)
	if err != nil {
		return nil, err
	}
	return []models.Artifact{artifact}, nil
}

func (m *Manager) stageSecrets(ctx context.Context, staging string) error {
	names, err := m.store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}

	secretsDir := filepath.Join(staging, "secrets")
	if err := os.MkdirAll(secretsDir, 0700); err != nil {
		return fmt.Errorf("failed to stage secrets directory: %w", err)
	}

	encrypt := m.engine.Applies("secrets")

	for _, name := range names {
		src := filepath.Join(m.store.Dir(), name)
		dst := filepath.Join(secretsDir, name)
		if err := utils.CopyFile(src, dst, 0600); err != nil {
			return fmt.Errorf("failed to stage secret %q: %w", name, err)
		}

		if encrypt {
			if _, _, err := m.engine.Apply(ctx, "secrets", dst); err != nil {
				return fmt.Errorf("failed to encrypt secret %q: %w", name, err)
			}
		}
	}

	if encrypt {
		readme := fmt.Sprintf("Secrets in this directory are GPG-encrypted.\n\nRecipients:\n  %s\n\nRun ./decrypt.sh with a matching private key to recover them.\n",
			strings.Join(m.engine.Recipients(), "\n  "))
		if err := os.WriteFile(filepath.Join(secretsDir, "README.txt"), []byte(readme), 0644); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(secretsDir, "decrypt.sh"), []byte(decryptHelper), 0755); err != nil {
			return err
		}
		return nil
	}

	m.log.Warnf("secrets are bundled in cleartext (policy excludes category \"secrets\"): %s", strings.Join(names, ", "))
	readme := plaintextWarning
	for _, name := range names {
		readme += "  " + name + "\n"
	}
	return os.WriteFile(filepath.Join(secretsDir, "README.txt"), []byte(readme), 0644)
}
