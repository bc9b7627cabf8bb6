package syslog

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Logger struct {
	mu       sync.RWMutex
	zlog     *zerolog.Logger
	out      io.Writer
	hostname string
	disabled bool
}

// LogEntry represents a structured log entry.
type LogEntry struct {
	Level    string         `json:"level"`
	Message  string         `json:"message"`
	Hostname string         `json:"hostname,omitempty"`
	Volume   string         `json:"volume,omitempty"`
	Err      error          `json:"-"`
	Fields   map[string]any `json:"fields,omitempty"`
	logger   *Logger        `json:"-"`
}
