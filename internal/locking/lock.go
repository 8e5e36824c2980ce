// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package locking guards a library root against a second writer process.
package locking

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// StateDir is the library-local directory holding the lock and snapshot
const StateDir = ".memorylane"

// LockFile is the lock file name inside StateDir
const LockFile = "lock"

// ErrLocked is returned when another process or operation holds the library lock
var ErrLocked = errors.New("library is busy: another operation holds the lock")

// Locker is what the engine needs from a lock
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// RootLock is an advisory file lock on <root>/.memorylane/lock. A flock
// handle does not exclude its own process, so RootLock also refuses a
// second TryLock while it is held.
type RootLock struct {
	path string
	lock *flock.Flock

	mu   sync.Mutex
	held bool
}

// NewRootLock prepares (but does not take) the lock for a library root
func NewRootLock(root string) *RootLock {
	path := filepath.Join(root, StateDir, LockFile)
	return &RootLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location
func (l *RootLock) Path() string {
	return l.path
}

// TryLock takes the lock without blocking
func (l *RootLock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	l.held = ok
	return ok, nil
}

// Unlock releases the lock
func (l *RootLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return l.lock.Unlock()
}

// Locked reports whether this process holds the lock
func (l *RootLock) Locked() bool {
	return l.lock.Locked()
}

// Acquire takes lk and returns its release function, or ErrLocked
func Acquire(lk Locker) (func(), error) {
	if lk == nil {
		return func() {}, nil
	}
	ok, err := lk.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = lk.Unlock() }, nil
}
