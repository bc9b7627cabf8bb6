// Package lock keeps two runs from working on the same logical volume at
// once. Both would fight over the snapshot name, the mount point and the
// incremental-state file.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrAlreadyRunning = errors.New("another backup of this volume is running")

type RunLock struct {
	fileLock *flock.Flock
}

// Path returns <dir>/snap-backup-<vg>-<lv>.lock.
func Path(dir, group, logical string) string {
	return filepath.Join(dir, fmt.Sprintf("snap-backup-%s-%s.lock", group, logical))
}

// Acquire takes the advisory lock without waiting.
func Acquire(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fileLock := flock.New(path)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is held", ErrAlreadyRunning, path)
	}

	return &RunLock{fileLock: fileLock}, nil
}

func (l *RunLock) Release() error {
	if l == nil {
		return nil
	}
	return l.fileLock.Unlock()
}
