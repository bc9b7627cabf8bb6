package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external programs. Every volume-manager, mount, tar and
// find invocation goes through it so the callers can be tested without
// touching the host.
type Runner interface {
	// Run executes the command, streaming its output to the runner's sink.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError reports a command that could not be started or exited with a
// nonzero status.
type CommandError struct {
	Path     string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Path, strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s: exit status %d", msg, e.ExitCode)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec. Stdout and Stderr receive the child
// output; nil writers discard it.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var errBuf tailBuffer
	cmd.Stdout = writerOrDiscard(r.Stdout)
	cmd.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), &errBuf)

	if err := cmd.Run(); err != nil {
		return newCommandError(name, args, errBuf.String(), err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var outBuf bytes.Buffer
	var errBuf tailBuffer
	cmd.Stdout = &outBuf
	cmd.Stderr = io.MultiWriter(writerOrDiscard(r.Stderr), &errBuf)

	if err := cmd.Run(); err != nil {
		return outBuf.Bytes(), newCommandError(name, args, errBuf.String(), err)
	}
	return outBuf.Bytes(), nil
}

func newCommandError(name string, args []string, output string, err error) *CommandError {
	cmdErr := &CommandError{
		Path:     name,
		Args:     args,
		ExitCode: -1,
		Output:   output,
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return cmdErr
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

const maxTail = 4096

// tailBuffer keeps the last maxTail bytes written to it.
type tailBuffer struct {
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > maxTail {
		t.buf = t.buf[len(t.buf)-maxTail:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
