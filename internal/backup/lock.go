package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// OpLock is an advisory lock file guarding the backup directory, the live
// data directory and the secrets store against concurrent orchestrator
// invocations. These paths are single-writer; a second invocation fails
// fast instead of corrupting state.
type OpLock struct {
	path string
}

func NewOpLock(backupDir string) *OpLock {
	return &OpLock{path: filepath.Join(backupDir, ".ncdeploy.lock")}
}

// Acquire creates the lock file exclusively, recording the holder PID.
func (l *OpLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(l.path)
			return fmt.Errorf("another operation is in progress (lock held by pid %s); remove %s if it is stale",
				string(holder), l.path)
		}
		return fmt.Errorf("failed to acquire operation lock: %w", err)
	}

	fmt.Fprint(f, strconv.Itoa(os.Getpid()))
	return f.Close()
}

func (l *OpLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to release operation lock: %w", err)
	}
	return nil
}
