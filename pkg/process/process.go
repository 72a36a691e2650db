package process

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Process is a started external program.
type Process interface {
	// Output is the merged standard output and standard error of the process.
	// It reaches io.EOF once the process has exited and all its output was read.
	Output() io.Reader
	// Wait blocks until the process has exited. It must be called after Output has been drained.
	Wait() error
}

// Executor starts external programs.
type Executor interface {
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

type execExecutor struct {
	dir string
}

// Option configures the default executor.
type Option func(e *execExecutor)

// WorkingDir sets the working directory of every started process.
func WorkingDir(dir string) Option {
	return func(e *execExecutor) {
		e.dir = dir
	}
}

// New returns an Executor backed by os/exec.
func New(opts ...Option) Executor {
	e := &execExecutor{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type execProcess struct {
	output *io.PipeReader
	grp    *errgroup.Group
}

func (p *execProcess) Output() io.Reader {
	return p.output
}

func (p *execProcess) Wait() error {
	return p.grp.Wait()
}

// Start launches name with args. Standard output and standard error share one pipe so
// lines keep the order in which the program wrote them.
func (e *execExecutor) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir

	reader, writer := io.Pipe()
	cmd.Stdout = writer
	cmd.Stderr = writer

	err := cmd.Start()
	if err != nil {
		_ = writer.Close()
		_ = reader.Close()

		return nil, errors.Wrapf(err, "unable to start %s", name)
	}

	grp := &errgroup.Group{}
	grp.Go(func() error {
		waitErr := cmd.Wait()
		// closing the writer is what lets the reader reach io.EOF
		_ = writer.Close()
		if waitErr != nil {
			return errors.Wrapf(waitErr, "%s did not exit cleanly", name)
		}

		return nil
	})

	return &execProcess{output: reader, grp: grp}, nil
}

// Collect runs name to completion and returns its trimmed merged output.
// The exit status is returned as an error alongside whatever output was produced.
func Collect(ctx context.Context, exe Executor, name string, args ...string) (string, error) {
	proc, err := exe.Start(ctx, name, args...)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	_, copyErr := io.Copy(&buf, proc.Output())
	waitErr := proc.Wait()

	out := strings.TrimSpace(buf.String())
	if copyErr != nil {
		return out, errors.Wrapf(copyErr, "unable to read output of %s", name)
	}

	return out, waitErr
}
