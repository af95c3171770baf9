package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
	lockRetryDelay = 250 * time.Millisecond
	DefaultDBPath  = "revscope.sqlite"
)

// DBLock serializes writers to one SQLite file across revscope processes.
// Readers never take it.
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock creates the lock for dbPath; the lock file sits next to it.
func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute db path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &DBLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, polling until ctx is done.
func (l *DBLock) Lock(ctx context.Context) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.Warnf("Another revscope process is writing to %s, waiting for it to finish", filepath.Base(l.path))
	locked, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("gave up waiting for lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("lock on %s not acquired", l.path)
	}
	return nil
}

// Unlock releases the lock. Releasing a lock that was never taken is not an error.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// WithDBLock runs fn while holding the write lock for dbPath.
func WithDBLock(ctx context.Context, dbPath string, fn func() error) error {
	l, err := NewDBLock(dbPath)
	if err != nil {
		return err
	}
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := l.Unlock(); err != nil {
			Log.Errorf("%v", err)
		}
	}()
	return fn()
}

// GetAbsDBPath resolves the database path. An empty path means revscope.sqlite
// in the current directory.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	return filepath.Abs(dbPath)
}
