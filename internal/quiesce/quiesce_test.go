package quiesce

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	log      *[]string
	failOn   map[string]error
	closeErr error
}

func (f *fakeSession) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	*f.log = append(*f.log, query)
	if err, ok := f.failOn[query]; ok {
		return nil, err
	}
	return nil, nil
}

func (f *fakeSession) Close() error {
	*f.log = append(*f.log, "close")
	return f.closeErr
}

func newCoordinator(log *[]string, session *fakeSession, openErr error) *Coordinator {
	return &Coordinator{
		Open: func(context.Context) (Session, error) {
			*log = append(*log, "open")
			if openErr != nil {
				return nil, openErr
			}
			return session, nil
		},
	}
}

func TestWithReadLockOrdering(t *testing.T) {
	var log []string
	c := newCoordinator(&log, &fakeSession{log: &log}, nil)

	err := c.WithReadLock(context.Background(), func(context.Context) error {
		log = append(log, "snapshot")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"open", lockStatement, "snapshot", unlockStatement, "close"}, log)
}

func TestWithReadLockBodyFailureStillUnlocks(t *testing.T) {
	var log []string
	bodyErr := errors.New("lvcreate failed")
	c := newCoordinator(&log, &fakeSession{log: &log}, nil)

	err := c.WithReadLock(context.Background(), func(context.Context) error {
		log = append(log, "snapshot")
		return bodyErr
	})
	assert.ErrorIs(t, err, bodyErr)
	assert.NotErrorIs(t, err, ErrUnlockFailed)
	assert.Equal(t, []string{"open", lockStatement, "snapshot", unlockStatement, "close"}, log)
}

func TestWithReadLockConnectFailureSkipsBody(t *testing.T) {
	var log []string
	c := newCoordinator(&log, nil, errors.New("access denied"))

	called := false
	err := c.WithReadLock(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockFailed)
	assert.False(t, called)
	assert.Equal(t, []string{"open"}, log)
}

func TestWithReadLockLockFailureSkipsBody(t *testing.T) {
	var log []string
	session := &fakeSession{log: &log, failOn: map[string]error{lockStatement: errors.New("no RELOAD privilege")}}
	c := newCoordinator(&log, session, nil)

	called := false
	err := c.WithReadLock(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockFailed)
	assert.False(t, called)
	assert.Equal(t, []string{"open", lockStatement, "close"}, log)
}

func TestWithReadLockUnlockFailure(t *testing.T) {
	var log []string
	session := &fakeSession{log: &log, failOn: map[string]error{unlockStatement: errors.New("gone away")}}
	c := newCoordinator(&log, session, nil)

	err := c.WithReadLock(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnlockFailed)
	assert.Equal(t, []string{"open", lockStatement, unlockStatement, "close"}, log)
}

func TestOptionsDSN(t *testing.T) {
	socket := Options{User: "flush", Password: "flush", Socket: "/run/mysqld/mysqld.sock"}
	assert.Equal(t, "flush:flush@unix(/run/mysqld/mysqld.sock)/", socket.DSN())

	tcp := Options{User: "backup", Password: "secret", Socket: "/ignored", Address: "db1:3306"}
	assert.Equal(t, "backup:secret@tcp(db1:3306)/", tcp.DSN())
}
