//go:build windows

package service

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

const lockFile = "warmjar.lock"

// fileLock holds an exclusive LockFileEx region on a file in the store
// directory. The OS releases it when the process exits.
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
	ol := new(windows.Overlapped)
	err = windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol)
	if err != nil {
		f.Close()
		if err == windows.ERROR_LOCK_VIOLATION {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("service: locking %s: %w", path, err)
	}
	return &fileLock{f: f}, nil
}

// Release drops the lock.
func (l *fileLock) Release() {
	if l.f == nil {
		return
	}
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, ol)
	_ = l.f.Close()
	l.f = nil
}
