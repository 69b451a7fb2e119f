// SPDX-License-Identifier: GPL-3.0-or-later

package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another run, in this or another process, holds the lock of a host.
var ErrBusy = errors.New("host is locked by another run")

// New returns a Locker keeping one lock file per host in dir.
func New(dir string) *Locker {
	return &Locker{
		suffix: ".host.lock",
		dir:    dir,
		locks:  make(map[string]*flock.Flock),
	}
}

// Locker serializes check runs of the same host across processes.
// It is safe for concurrent use by the goroutines of one process.
type Locker struct {
	suffix string
	dir    string

	mu    sync.Mutex
	locks map[string]*flock.Flock
}

// Lock acquires the lock of host without blocking.
// A host this Locker already holds is busy as well.
func (l *Locker) Lock(host string) error {
	filename := l.filename(host)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.locks[filename]; ok {
		return fmt.Errorf("lock %s: %w", host, ErrBusy)
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("lock %s: %w", host, err)
	}
	locker := flock.New(filename)

	ok, err := locker.TryLock()
	if err != nil {
		_ = locker.Close()
		return fmt.Errorf("lock %s: %w", host, err)
	}
	if !ok {
		_ = locker.Close()
		return fmt.Errorf("lock %s: %w", host, ErrBusy)
	}

	l.locks[filename] = locker
	return nil
}

func (l *Locker) Unlock(host string) {
	filename := l.filename(host)

	l.mu.Lock()
	defer l.mu.Unlock()

	locker, ok := l.locks[filename]
	if !ok {
		return
	}
	delete(l.locks, filename)
	_ = locker.Close()
}

func (l *Locker) UnlockAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, locker := range l.locks {
		delete(l.locks, key)
		_ = locker.Close()
	}
}

func (l *Locker) isLocked(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.locks[l.filename(host)]
	return ok
}

func (l *Locker) filename(host string) string {
	return filepath.Join(l.dir, filepath.Base(host)+l.suffix)
}
