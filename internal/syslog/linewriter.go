package syslog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// LineWriter prefixes every complete line written to it with a timestamp
// before passing it on. Partial lines are held until their newline arrives
// or Flush is called.
type LineWriter struct {
	mu      sync.Mutex
	out     io.Writer
	pending []byte
	now     func() time.Time
}

func NewLineWriter(out io.Writer) *LineWriter {
	return &LineWriter{out: out, now: time.Now}
}

func (b *LineWriter) Write(in []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.out == nil {
		return 0, errors.New("line writer closed")
	}

	b.pending = append(b.pending, in...)
	for {
		idx := bytes.IndexByte(b.pending, '\n')
		if idx < 0 {
			break
		}
		if err := b.emit(b.pending[:idx]); err != nil {
			return 0, err
		}
		b.pending = b.pending[idx+1:]
	}

	return len(in), nil
}

func (b *LineWriter) emit(line []byte) error {
	timestamp := b.now().Format(time.RFC3339)
	if _, err := fmt.Fprintf(b.out, "%s: %s\n", timestamp, line); err != nil {
		return fmt.Errorf("error writing log line: %w", err)
	}
	return nil
}

// Flush writes out a trailing partial line, if any.
func (b *LineWriter) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 || b.out == nil {
		return nil
	}
	err := b.emit(b.pending)
	b.pending = nil
	return err
}
