// Package runnertest provides a scripted utils.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/snapbackup/snap-backup/internal/utils"
)

// Call is one recorded command invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result scripts the outcome of a command.
type Result struct {
	Stdout   string
	ExitCode int
}

// Recorder records every command and answers from a table keyed by program
// name. Unknown programs succeed with empty output.
type Recorder struct {
	mu      sync.Mutex
	Calls   []Call
	Results map[string]Result
}

func New() *Recorder {
	return &Recorder{Results: make(map[string]Result)}
}

// Fail makes every invocation of name exit with status 1.
func (r *Recorder) Fail(name string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results[name] = Result{ExitCode: 1}
	return r
}

// Respond sets the standard output returned for name.
func (r *Recorder) Respond(name, stdout string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results[name] = Result{Stdout: stdout}
	return r
}

func (r *Recorder) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

func (r *Recorder) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})

	res := r.Results[name]
	if res.ExitCode != 0 {
		return nil, &utils.CommandError{
			Path:     name,
			Args:     args,
			ExitCode: res.ExitCode,
			Output:   "scripted failure",
		}
	}
	return []byte(res.Stdout), nil
}

// Commands returns the recorded invocations rendered as command lines.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.String())
	}
	return out
}

// Names returns the program names in invocation order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.Name)
	}
	return out
}
