package syslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/snapbackup/snap-backup/internal/utils"
)

// Global logger instance. It writes to the process stdout until the
// caller installs another sink.
var L = NewLogger(Sink{Out: os.Stdout})

// NewLogger builds a logger that writes every entry to sink.Out and mirrors
// error entries to sink.Err.
func NewLogger(sink Sink) *Logger {
	hostname, _ := utils.GetHostname()

	var w io.Writer = newConsoleWriter(sink.Out)
	if sink.Err != nil {
		w = zerolog.MultiLevelWriter(w, errorsOnly{w: newConsoleWriter(sink.Err)})
	}

	zlogger := newZerolog(w)
	return &Logger{zlog: &zlogger, out: w, hostname: hostname}
}

func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = true
		w.FormatCaller = func(i any) string {
			var c string
			if cc, ok := i.(string); ok {
				c = cc
			}
			if c == "" {
				return ""
			}

			parts := strings.Split(c, "/")
			if len(parts) >= 2 {
				return fmt.Sprintf("%s/%s", parts[len(parts)-2], parts[len(parts)-1])
			}
			return filepath.Base(c)
		}
	})
}

func newZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().
		CallerWithSkipFrameCount(3).
		Timestamp().
		Logger()
}

// errorsOnly drops everything below error level.
type errorsOnly struct {
	w io.Writer
}

func (e errorsOnly) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e errorsOnly) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}

func (l *Logger) Disable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = true
}

func (l *Logger) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = false
}

// Error creates a new error-level LogEntry.
func (l *Logger) Error(err error) *LogEntry {
	return l.entry("error").withErr(err)
}

// Warn creates a new warning-level LogEntry.
func (l *Logger) Warn() *LogEntry {
	return l.entry("warn")
}

// Info creates a new info-level LogEntry.
func (l *Logger) Info() *LogEntry {
	return l.entry("info")
}

// Debug creates a new debug-level LogEntry.
func (l *Logger) Debug() *LogEntry {
	return l.entry("debug")
}

func (l *Logger) entry(level string) *LogEntry {
	return &LogEntry{
		Level:  level,
		Fields: make(map[string]any),
		logger: l,
	}
}

func (e *LogEntry) withErr(err error) *LogEntry {
	e.Err = err
	return e
}

// WithMessage sets the log message.
func (e *LogEntry) WithMessage(msg string) *LogEntry {
	e.Message = msg
	return e
}

// WithMessagef sets a formatted log message.
func (e *LogEntry) WithMessagef(format string, args ...any) *LogEntry {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithVolume tags the entry with the logical volume being backed up.
func (e *LogEntry) WithVolume(volume string) *LogEntry {
	e.Volume = volume
	return e
}

// WithField adds one key-value pair to the LogEntry.
func (e *LogEntry) WithField(key string, value any) *LogEntry {
	e.Fields[key] = value
	return e
}

// WithFields adds multiple key-value pairs to the LogEntry.
func (e *LogEntry) WithFields(fields map[string]any) *LogEntry {
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

func (e *LogEntry) Write() {
	e.logger.mu.RLock()
	defer e.logger.mu.RUnlock()

	if e.logger.disabled {
		return
	}

	if _, ok := e.Fields["hostname"]; !ok && e.logger.hostname != "" {
		e.Fields["hostname"] = e.logger.hostname
	}
	if e.Volume != "" {
		e.Fields["volume"] = e.Volume
	}

	switch e.Level {
	case "info":
		e.logger.zlog.Info().Fields(e.Fields).Msg(e.Message)
	case "debug":
		e.logger.zlog.Debug().Fields(e.Fields).Msg(e.Message)
	case "warn":
		e.logger.zlog.Warn().Fields(e.Fields).Msg(e.Message)
	case "error":
		e.logger.zlog.Error().Err(e.Err).Fields(e.Fields).Msg(e.Message)
	default:
		e.logger.zlog.Info().Fields(e.Fields).Msg(e.Message)
	}
}
