// Package lock implements the Controller's single-run advisory lock: an
// exclusive flock on a well-known file, blocking for torrent-done
// callbacks and non-blocking for maintenance ticks (spec.md §4.8, §5).
package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrHeld is returned by TryAcquire when another instance already holds
// the lock.
var ErrHeld = fmt.Errorf("lock: already held by another instance")

// Lock wraps the advisory-locked file descriptor.
type Lock struct {
	f *os.File
}

// TryAcquire attempts a non-blocking exclusive lock on path, creating the
// file if needed. It returns ErrHeld if another process holds it.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("lock: flock %q: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Acquire blocks until the exclusive lock on path is granted.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %q: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock: flock %q: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock and closes the underlying file.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
