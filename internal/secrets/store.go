package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/internal/utils"
)

// Names of the credentials the stack consumes, one file each.
var Names = []string{"postgres_password", "redis_password", "admin_password"}

const passwordLength = 32

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Store is the one-file-per-secret credential directory. The directory is
// owner-only (0700) and every file inside it is 0600.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Init creates the secrets directory and generates any missing credential
// files. Existing secrets are only regenerated when the operator confirms.
func (s *Store) Init(confirmer prompt.Confirmer) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	for _, name := range Names {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err == nil {
			if !confirmer.Confirm(fmt.Sprintf("secret %q already exists, regenerate it", name), false) {
				continue
			}
		}

		if err := s.generate(name); err != nil {
			return err
		}
	}

	return s.EnsurePerms()
}

// Rotate overwrites one secret with a freshly generated value.
func (s *Store) Rotate(name string) error {
	if !validName(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	return s.generate(name)
}

func (s *Store) generate(name string) error {
	value, err := randomPassword(passwordLength)
	if err != nil {
		return fmt.Errorf("failed to generate secret %q: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	if err := utils.AtomicWriteFile(path, []byte(value+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write secret %q: %w", name, err)
	}

	return nil
}

// Read returns the single-line credential value.
func (s *Store) Read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read secret %q: %w", name, err)
	}

	value := strings.TrimRight(string(data), "\r\n")
	if value == "" {
		return "", fmt.Errorf("secret %q is empty", name)
	}
	if strings.ContainsAny(value, "\r\n") {
		return "", fmt.Errorf("secret %q contains more than one line", name)
	}

	return value, nil
}

// List returns the files currently present in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// EnsurePerms tightens the directory to 0700 and every secret file to 0600.
func (s *Store) EnsurePerms() error {
	if err := os.Chmod(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to set secrets directory permissions: %w", err)
	}

	names, err := s.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Chmod(filepath.Join(s.dir, name), 0600); err != nil {
			return fmt.Errorf("failed to set permissions on secret %q: %w", name, err)
		}
	}

	return nil
}

func validName(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

func randomPassword(length int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
