// Package pidfile guards against double-starting the daemon. The PID file
// holds the daemon's process id and is kept exclusively write-locked for the
// daemon's lifetime; a second instance fails to acquire the lock and exits.
package pidfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning indicates another process holds the PID file lock.
var ErrAlreadyRunning = errors.New("pidfile: already locked by another process")

// File is an acquired, locked PID file. The lock is held until Close.
type File struct {
	path string
	f    *os.File
}

// DefaultPath places the PID file under the system temp directory.
func DefaultPath(name string) string {
	return filepath.Join(os.TempDir(), name+".pid")
}

// Acquire opens (creating if needed) the PID file at path, takes an
// exclusive write lock on it, and rewrites it with the current process id.
// The descriptor is close-on-exec, and record locks are not inherited by
// child processes, so the lock identifies exactly this daemon instance.
func Acquire(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open PID file %s: %w", path, err)
	}

	lock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: io.SeekStart,
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &lock); err != nil {
		f.Close()
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
		}
		return nil, fmt.Errorf("lock PID file %s: %w", path, err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate PID file %s: %w", path, err)
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("write PID file %s: %w", path, err)
	}

	return &File{path: path, f: f}, nil
}

// Path returns the location of the PID file.
func (p *File) Path() string {
	return p.path
}

// Close releases the lock. The file itself is intentionally left in place;
// stale files are harmless because the lock, not the file's existence, is
// what prevents a double start.
func (p *File) Close() error {
	return p.f.Close()
}
