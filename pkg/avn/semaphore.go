// pkg/avn/semaphore.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package avn

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultLockPath is the well-known name of the cross-process lock that
// guards paid-flag flips; it plays the role of a named counting semaphore
// with initial value 1.
const DefaultLockPath = "/tmp/avn_semaphore.lock"

// ProcessLock is a file-backed mutex shared across processes, so that a
// second generator instance (say, restarted by a supervisor) cannot race a
// paid-flag update.
type ProcessLock struct {
	f *os.File
}

// OpenProcessLock creates or opens the lock file.  Failure here is fatal
// for the generator: it must refuse to start rather than run unguarded.
func OpenProcessLock(path string) (*ProcessLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("create process lock %s: %w", path, err)
	}
	return &ProcessLock{f: f}, nil
}

func (l *ProcessLock) Acquire() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
}

func (l *ProcessLock) Release() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}

func (l *ProcessLock) Close() error {
	return l.f.Close()
}
