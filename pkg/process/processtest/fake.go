// Package processtest provides an in-memory process.Executor for tests.
package processtest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/askiada/amplicon-pipeline/pkg/process"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

// Handler produces the output of a fake invocation. Returning a non-nil startErr makes
// Start fail as if the program could not be launched.
type Handler func(name string, args []string) (output string, startErr error)

// Executor records every call and answers with its Handler.
type Executor struct {
	mu      sync.Mutex
	handler Handler
	calls   []Call
}

// New returns a fake executor answering with handler.
func New(handler Handler) *Executor {
	return &Executor{handler: handler}
}

// Lines returns a Handler that always prints lines.
func Lines(lines ...string) Handler {
	return func(string, []string) (string, error) {
		return strings.Join(lines, "\n"), nil
	}
}

type fakeProcess struct {
	output io.Reader
}

func (p *fakeProcess) Output() io.Reader { return p.output }

func (p *fakeProcess) Wait() error { return nil }

// Start implements process.Executor.
func (e *Executor) Start(_ context.Context, name string, args ...string) (process.Process, error) {
	e.mu.Lock()
	e.calls = append(e.calls, Call{Name: name, Args: append([]string(nil), args...)})
	e.mu.Unlock()

	out, err := e.handler(name, args)
	if err != nil {
		return nil, err
	}

	return &fakeProcess{output: strings.NewReader(out)}, nil
}

// Calls returns a copy of the recorded invocations.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]Call(nil), e.calls...)
}

var _ process.Executor = (*Executor)(nil)
