// Package lock provides MySQL advisory locks that serialize run-history
// writes for one project across assetprof instances.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbsmedya/assetprof/internal/fingerprint"
)

// ErrLockTimeout is returned when another instance holds the lock past the
// acquisition timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Timeouts for GET_LOCK, in seconds.
const (
	// TimeoutImmediate returns at once when the lock is taken.
	TimeoutImmediate = 0

	// TimeoutShort suits fast-failing writers.
	TimeoutShort = 1

	// TimeoutMedium queues briefly behind another writer.
	TimeoutMedium = 10

	// TimeoutInfinite waits until the lock is free; MySQL treats negative
	// values as infinite.
	TimeoutInfinite = -1
)

// maxLockNameLength is MySQL's limit on user lock names.
const maxLockNameLength = 64

// Querier is the subset of *sql.DB and *sql.Conn the lock needs. Advisory
// locks belong to a session, so callers that acquire and release across
// several statements should pass a *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AdvisoryLock is a named MySQL lock taken with GET_LOCK() and released with
// RELEASE_LOCK() or when its session ends.
type AdvisoryLock struct {
	db       Querier
	lockName string
	held     bool
}

// NewAdvisoryLock creates a lock with the given name. Nothing is acquired yet.
func NewAdvisoryLock(db Querier, lockName string) *AdvisoryLock {
	return &AdvisoryLock{db: db, lockName: lockName}
}

// AcquireLock waits up to timeoutSeconds for the lock. It reports false when
// the timeout passed with the lock still held elsewhere.
//
// GET_LOCK() returns 1 on success, 0 on timeout and NULL on error.
func (a *AdvisoryLock) AcquireLock(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.held {
		return true, nil
	}

	var result sql.NullInt64
	err := a.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", a.lockName)
	}

	switch result.Int64 {
	case 1:
		a.held = true
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// ReleaseLock releases a held lock. It reports false when the lock was not
// held by this session.
//
// RELEASE_LOCK() returns 1 on success, 0 when another session owns the lock
// and NULL when no such lock exists.
func (a *AdvisoryLock) ReleaseLock(ctx context.Context) (bool, error) {
	if !a.held {
		return false, nil
	}

	var result sql.NullInt64
	err := a.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	a.held = false
	if !result.Valid {
		return false, fmt.Errorf("RELEASE_LOCK returned NULL for lock %q", a.lockName)
	}
	return result.Int64 == 1, nil
}

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// LockName returns the lock name.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// TryAcquire attempts the lock without waiting.
func (a *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	return a.AcquireLock(ctx, TimeoutImmediate)
}

// WithLock runs fn while holding the lock. The lock is released when fn
// returns or panics; ErrLockTimeout is returned when it cannot be taken.
func (a *AdvisoryLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) error {
	acquired, err := a.AcquireLock(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	}

	defer func() {
		// The caller's context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = a.ReleaseLock(releaseCtx)
	}()

	return fn()
}

// GenerateProjectLockName returns "assetprof:project:<path>" with characters
// outside [A-Za-z0-9_-./] replaced by underscores. Names that would exceed
// MySQL's 64 character limit keep a prefix of the path plus a short hash of
// the full path, so distinct projects still get distinct locks.
func GenerateProjectLockName(projectPath string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-' || r == '.' || r == '/':
			return r
		}
		return '_'
	}, projectPath)

	name := "assetprof:project:" + sanitized
	if len(name) <= maxLockNameLength {
		return name
	}

	hash := fingerprint.Strings([]string{projectPath}).Short()
	keep := maxLockNameLength - len("assetprof:project:") - len(hash) - 1
	return "assetprof:project:" + sanitized[:keep] + ":" + hash
}

// NewProjectLock creates the history-write lock for a project.
func NewProjectLock(db Querier, projectPath string) *AdvisoryLock {
	return NewAdvisoryLock(db, GenerateProjectLockName(projectPath))
}
