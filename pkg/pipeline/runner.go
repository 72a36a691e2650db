package pipeline

import (
	"bufio"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/process"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
	"github.com/askiada/amplicon-pipeline/pkg/stager"
)

const maxLineSize = 16 * 1024 * 1024

// Runner runs a single stage.
type Runner struct {
	exe    process.Executor
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner returns a Runner launching processes with exe and logging to logger.
func NewRunner(exe process.Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{exe: exe, logger: logger, now: time.Now}
}

// Run executes st. Every output line is logged as it arrives and handed to onLine when set.
// A stage that is not classified as successful returns a *StepError, a program that cannot
// be started a *LaunchError.
func (r *Runner) Run(ctx context.Context, st Stage, onLine func(line string) error) (StepResult, error) {
	heading := "[Run " + st.Program + "]"
	if st.Description != "" {
		heading += " " + st.Description
	}

	runlog.Heading(ctx, r.logger, heading)

	start := r.now()
	res := StepResult{Stage: st.Name}

	var err error
	if st.Action != nil {
		err = r.action(ctx, st, &res)
	} else {
		err = r.external(ctx, st, &res, onLine)
	}

	res.Elapsed = r.now().Sub(start)

	if err != nil {
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			r.logger.ErrorContext(ctx, "Error while executing command "+launchErr.Command, "error", launchErr.Err)
		}

		var stepErr *StepError
		if errors.As(err, &stepErr) {
			stepErr.Elapsed = res.Elapsed
		}

		r.logger.ErrorContext(ctx, "Interrupted after: "+runlog.FormatElapsed(res.Elapsed))
		runlog.Blank(ctx, r.logger)

		return res, err
	}

	if st.After != nil {
		err = st.After(ctx)
		if err != nil {
			return res, errors.Wrapf(err, "unable to finish stage %s", st.Name)
		}
	}

	r.logger.InfoContext(ctx, "Elapsed time: "+runlog.FormatElapsed(res.Elapsed))
	runlog.Blank(ctx, r.logger)

	if st.Count != "" {
		n, err := stager.CountSequences(st.Count)
		if err != nil {
			return res, errors.Wrapf(err, "unable to count sequences of stage %s", st.Name)
		}

		r.logger.InfoContext(ctx, st.CountLabel+": "+strconv.Itoa(n))
		runlog.Blank(ctx, r.logger)
	}

	return res, nil
}

func (r *Runner) action(ctx context.Context, st Stage, res *StepResult) error {
	err := st.Action(ctx)
	if err != nil {
		res.Outcome = Failure
		r.logger.ErrorContext(ctx, "ERROR executing "+st.Program+"!", "error", err)

		return &StepError{Stage: st.Name, Program: st.Program, Outcome: Failure, Cause: err}
	}

	res.Outcome = Success

	return nil
}

func (r *Runner) external(ctx context.Context, st Stage, res *StepResult, onLine func(string) error) error {
	r.logger.InfoContext(ctx, "Command information:")
	r.logger.InfoContext(ctx, "  "+st.Path)
	for _, arg := range st.Args {
		r.logger.InfoContext(ctx, "  "+arg)
	}
	runlog.Blank(ctx, r.logger)
	r.logger.InfoContext(ctx, "Running...")

	proc, err := r.exe.Start(ctx, st.Path, st.Args...)
	if err != nil {
		return &LaunchError{Stage: st.Name, Command: st.Command(), Err: err}
	}

	matched := false
	scanner := bufio.NewScanner(proc.Output())
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		res.Lines = append(res.Lines, line)

		if st.Classifier.Matches(line) {
			matched = true

			if st.Classifier.Extract != nil {
				res.Value = st.Classifier.Extract(line)
			}
		}

		r.logger.InfoContext(ctx, line)

		if onLine != nil {
			err = onLine(line)
			if err != nil {
				_, _ = drain(proc)
				res.ExitErr = proc.Wait()

				return errors.Wrapf(err, "unable to handle output of stage %s", st.Name)
			}
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		_, _ = drain(proc)
	}

	res.ExitErr = proc.Wait()
	if res.ExitErr != nil {
		r.logger.DebugContext(ctx, "process exit status", "stage", st.Name, "error", res.ExitErr)
	}

	if scanErr != nil {
		return errors.Wrapf(scanErr, "unable to read output of stage %s", st.Name)
	}

	res.Outcome = st.Classifier.Classify(matched)
	if res.Outcome != Success {
		r.logger.ErrorContext(ctx, "ERROR executing "+st.Program+"!")
		r.logger.ErrorContext(ctx, "Check the command: "+st.Command())

		return &StepError{Stage: st.Name, Program: st.Program, Command: st.Command(), Outcome: res.Outcome}
	}

	return nil
}
