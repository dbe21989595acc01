//go:build !windows

package service

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const lockFile = "warmjar.lock"

// fileLock is an advisory flock on a file in the store directory. The
// kernel releases it automatically when the process dies, so a crashed
// daemon never leaves a stale lock behind.
type fileLock struct {
	f *os.File
}

// acquireLock takes the singleton lock for dir without blocking. A held
// lock yields ErrAlreadyRunning.
func acquireLock(dir string) (*fileLock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("service: creating store dir: %w", err)
	}
	path := filepath.Join(dir, lockFile)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("service: opening lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("service: locking %s: %w", path, err)
	}
	return &fileLock{f: f}, nil
}

// Release drops the lock. The file is left in place; only the flock
// matters.
func (l *fileLock) Release() {
	if l.f == nil {
		return
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
	l.f = nil
}
