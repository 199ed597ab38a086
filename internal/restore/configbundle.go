package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/archive"
	"github.com/ncdeploy/ncdeploy/internal/crypto"
)

// RestoreConfig extracts selected files from a config bundle. Secrets get
// the symmetric treatment to the backup path: gpg-wrapped ones are
// decrypted individually, plaintext ones are copied with owner-only
// permissions. Existing destinations are never overwritten without
// per-file confirmation.
func (m *Manager) RestoreConfig(ctx context.Context, timestamp string) error {
	path, err := m.selectArtifact("config", timestamp)
	if err != nil {
		return err
	}

	plain, cleanup, err := m.stageDecrypted(ctx, path)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := archive.List(plain)
	if err != nil {
		return err
	}

	var restorable []string
	for _, e := range entries {
		switch filepath.Base(e) {
		case "README.txt", "decrypt.sh":
			continue
		}
		restorable = append(restorable, e)
	}
	if len(restorable) == 0 {
		return fmt.Errorf("config bundle %s contains no restorable files", path)
	}

	selected, err := m.pickBundleEntries(restorable)
	if err != nil {
		return err
	}

	for _, entry := range selected {
		if err := m.restoreBundleEntry(ctx, plain, entry); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) pickBundleEntries(entries []string) ([]string, error) {
	options := append([]string{"all files", "choose per file"}, entries...)
	choice, err := m.confirmer.Select("select files to restore", options)
	if err != nil {
		return nil, err
	}

	switch choice {
	case 0:
		return entries, nil
	case 1:
		var selected []string
		for _, entry := range entries {
			if m.confirmer.Confirm(fmt.Sprintf("restore %s", entry), false) {
				selected = append(selected, entry)
			}
		}
		if len(selected) == 0 {
			return nil, fmt.Errorf("no files selected")
		}
		return selected, nil
	}

	return []string{entries[choice-2]}, nil
}

func (m *Manager) restoreBundleEntry(ctx context.Context, bundlePath, entry string) error {
	isSecret := strings.HasPrefix(entry, "secrets/")

	dest := m.destinationFor(entry)
	if dest == "" {
		m.log.Warnf("no destination known for bundle entry %s, skipping", entry)
		return nil
	}

	if _, err := os.Stat(dest); err == nil {
		if !m.confirmer.Confirm(fmt.Sprintf("overwrite existing file %s", dest), false) {
			m.log.Infof("skipping %s", entry)
			return nil
		}
		// decryption and extraction below refuse existing outputs, so
		// the confirmed overwrite removes the old file first
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dest, err)
		}
	}

	perm := os.FileMode(0644)
	if isSecret {
		perm = 0600
		if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
			return err
		}
	}

	if isSecret && crypto.IsEncryptedPath(entry) {
		staging := filepath.Join(filepath.Dir(dest), "."+filepath.Base(entry))
		if err := archive.ExtractFile(bundlePath, entry, staging, 0600); err != nil {
			return err
		}
		defer os.Remove(staging)

		if err := m.engine.Decrypt(ctx, staging, dest); err != nil {
			return fmt.Errorf("failed to decrypt secret %s: %w", entry, err)
		}
		if err := os.Chmod(dest, 0600); err != nil {
			return err
		}
		m.log.Infof("restored secret %s", dest)
		return nil
	}

	if err := archive.ExtractFile(bundlePath, entry, dest, perm); err != nil {
		return err
	}
	m.log.Infof("restored %s", dest)
	return nil
}

// destinationFor maps a bundle entry back to its live path.
func (m *Manager) destinationFor(entry string) string {
	if strings.HasPrefix(entry, "secrets/") {
		name := strings.TrimSuffix(strings.TrimPrefix(entry, "secrets/"), ".gpg")
		return filepath.Join(m.cfg.SecretsDir, name)
	}

	switch entry {
	case filepath.Base(m.cfg.ComposeFile):
		return m.cfg.ComposeFile
	case "config.php":
		// in-container file; restored next to the compose file for the
		// operator to copy in deliberately
		return filepath.Join(filepath.Dir(m.cfg.ComposeFile), "config.php.restored")
	default:
		return filepath.Join(filepath.Dir(m.cfg.ComposeFile), filepath.Base(entry))
	}
}
