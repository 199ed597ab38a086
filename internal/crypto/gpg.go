package crypto

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Decryption failure classes, to the extent gpg distinguishes them.
var (
	ErrNoSecretKey   = errors.New("no matching private key")
	ErrBadPassphrase = errors.New("wrong passphrase")
	ErrCorruptInput  = errors.New("corrupt or truncated ciphertext")
)

// Cryptor wraps and unwraps files. The production implementation drives
// the gpg binary; tests substitute a fake.
type Cryptor interface {
	EncryptFile(ctx context.Context, in, out string) error
	DecryptFile(ctx context.Context, in, out string) error
}

// GPG shells out to the gpg binary with batch-mode flags.
type GPG struct {
	Recipients    []string
	Cipher        string
	CompressLevel int
	Homedir       string
}

// NewGPG builds the gpg driver. Recipients may be empty for decrypt-only
// use; EncryptFile refuses to run without at least one.
func NewGPG(recipients []string, cipher string, compressLevel int, homedir string) *GPG {
	if cipher == "" {
		cipher = "AES256"
	}
	if compressLevel < 0 || compressLevel > 9 {
		compressLevel = 6
	}
	return &GPG{
		Recipients:    recipients,
		Cipher:        cipher,
		CompressLevel: compressLevel,
		Homedir:       homedir,
	}
}

// EncryptFile encrypts in to out, deleting the plaintext on success so
// exactly one file remains. On failure the plaintext stays untouched and
// any partial ciphertext is removed.
func (g *GPG) EncryptFile(ctx context.Context, in, out string) error {
	if len(g.Recipients) == 0 {
		return fmt.Errorf("refusing to encrypt without recipients")
	}

	tmp := out + ".partial"

	args := []string{
		"--batch", "--yes",
		"--trust-model", "always",
		"--cipher-algo", g.Cipher,
		"--compress-level", strconv.Itoa(g.CompressLevel),
	}
	if g.Homedir != "" {
		args = append(args, "--homedir", g.Homedir)
	}
	for _, r := range g.Recipients {
		args = append(args, "--recipient", r)
	}
	args = append(args, "--output", tmp, "--encrypt", in)

	cmd := exec.CommandContext(ctx, "gpg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("gpg encryption failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move ciphertext into place: %w", err)
	}

	if in != out {
		if err := os.Remove(in); err != nil {
			return fmt.Errorf("encrypted but failed to remove plaintext %s: %w", in, err)
		}
	}

	return nil
}

// DecryptFile decrypts in to out. The caller is responsible for refusing to
// overwrite existing outputs; this function fails if out already exists.
func (g *GPG) DecryptFile(ctx context.Context, in, out string) error {
	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", out)
	}

	args := []string{"--batch", "--yes"}
	if g.Homedir != "" {
		args = append(args, "--homedir", g.Homedir)
	}
	args = append(args, "--output", out, "--decrypt", in)

	cmd := exec.CommandContext(ctx, "gpg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return fmt.Errorf("gpg decryption of %s failed: %w: %s", in, classifyDecryptError(stderr.String()), strings.TrimSpace(stderr.String()))
	}

	return nil
}

// Available reports whether the gpg binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("gpg")
	return err == nil
}

func classifyDecryptError(stderr string) error {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "no secret key"):
		return ErrNoSecretKey
	case strings.Contains(s, "bad passphrase"), strings.Contains(s, "bad session key"):
		return ErrBadPassphrase
	default:
		return ErrCorruptInput
	}
}
