// Package quiesce holds a database read lock while the snapshot is taken.
package quiesce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrLockFailed   = errors.New("failed to acquire database read lock")
	ErrUnlockFailed = errors.New("failed to release database read lock")
)

const (
	lockStatement   = "FLUSH TABLES WITH READ LOCK"
	unlockStatement = "UNLOCK TABLES"
)

// Session is a single database connection. The read lock belongs to the
// connection that took it, so lock and unlock must go through the same one.
// *sql.Conn satisfies it.
type Session interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// Coordinator wraps snapshot creation in a global read lock.
type Coordinator struct {
	Open func(ctx context.Context) (Session, error)
}

// WithReadLock connects, locks all tables, runs body, then unlocks and
// disconnects. Unlock and close run even when body fails. When the lock
// cannot be taken body is never called.
func (c *Coordinator) WithReadLock(ctx context.Context, body func(ctx context.Context) error) (err error) {
	session, err := c.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", ErrLockFailed, err)
	}

	if _, err := session.ExecContext(ctx, lockStatement); err != nil {
		_ = session.Close()
		return fmt.Errorf("%w: %w", ErrLockFailed, err)
	}

	defer func() {
		// The body may have been cancelled; the lock must still go.
		releaseCtx := context.WithoutCancel(ctx)

		_, unlockErr := session.ExecContext(releaseCtx, unlockStatement)
		closeErr := session.Close()
		if err != nil {
			return
		}
		if releaseErr := errors.Join(unlockErr, closeErr); releaseErr != nil {
			err = fmt.Errorf("%w: %w", ErrUnlockFailed, releaseErr)
		}
	}()

	return body(ctx)
}
