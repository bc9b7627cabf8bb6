//go:build unix

package syslog

import (
	"log/syslog"

	"github.com/rs/zerolog"
)

// SetServiceLogger copies every entry to the local syslog daemon in addition
// to the sink the logger was built with.
func (l *Logger) SetServiceLogger() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sysWriter, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "snap-backup")
	if err != nil {
		return err
	}

	w := zerolog.MultiLevelWriter(l.out, newConsoleWriter(&LogWriter{logger: sysWriter}))
	zlogger := newZerolog(w)
	l.zlog = &zlogger
	l.out = w

	return nil
}
