package syslog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/snapbackup/snap-backup/internal/store/constants"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is the operator-facing output of a run. Progress goes to Out, errors
// and the stderr of child processes go to Err. The caller owns its lifecycle.
type Sink struct {
	Out io.Writer
	Err io.Writer
}

// StdSink writes to the process stdout and stderr.
func StdSink() Sink {
	return Sink{Out: os.Stdout, Err: os.Stderr}
}

// LogFiles is a Sink backed by <base>.log and <base>_error.log.
type LogFiles struct {
	Sink

	out *lumberjack.Logger
	err *lumberjack.Logger
}

// OpenLogFiles appends to <base>.log and <base>_error.log, rotating them by
// size.
func OpenLogFiles(base string) (*LogFiles, error) {
	if base == "" {
		return nil, errors.New("log base path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(base), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out := newRotatingFile(base + ".log")
	errOut := newRotatingFile(base + "_error.log")

	return &LogFiles{
		Sink: Sink{Out: out, Err: errOut},
		out:  out,
		err:  errOut,
	}, nil
}

func newRotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogFileMaxSizeMB,
		MaxBackups: constants.LogFileMaxBackups,
		MaxAge:     constants.LogFileMaxAgeDays,
		Compress:   true,
	}
}

func (f *LogFiles) Close() error {
	return errors.Join(f.out.Close(), f.err.Close())
}
