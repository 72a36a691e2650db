package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/process/processtest"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
)

func newRunner(handler processtest.Handler) (*pipeline.Runner, *processtest.Executor, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	exe := processtest.New(handler)
	logger := slog.New(runlog.NewHandler(logs, "", &runlog.Options{Level: slog.LevelDebug}))

	return pipeline.NewRunner(exe, logger), exe, logs
}

func clusterStage() pipeline.Stage {
	return pipeline.Stage{
		Name:       "Precluster",
		Program:    "vsearch",
		Path:       "/tools/vsearch",
		Args:       []string{"--cluster_size", "all.dereplicated.fa", "--id", "0.97"},
		Classifier: pipeline.Classifier{Marker: "Clustering 100%"},
	}
}

func TestRunnerMarker(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		lines   []string
		outcome pipeline.Outcome
	}{
		"prefix":         {lines: []string{"Sorting", "Clustering 100%"}, outcome: pipeline.Success},
		"contained":      {lines: []string{"Clustering 0%\tClustering 100%  "}, outcome: pipeline.Success},
		"missing":        {lines: []string{"Clustering 99%", "Fatal error"}, outcome: pipeline.Failure},
		"empty output":   {outcome: pipeline.Failure},
		"different case": {lines: []string{"clustering 100%"}, outcome: pipeline.Failure},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner, _, _ := newRunner(processtest.Lines(tc.lines...))
			res, err := runner.Run(context.Background(), clusterStage(), nil)
			assert.Equal(t, tc.outcome, res.Outcome)

			if tc.outcome == pipeline.Success {
				require.NoError(t, err)

				return
			}

			var stepErr *pipeline.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, "Precluster", stepErr.Stage)
			assert.ErrorIs(t, err, pipeline.ErrStageFailed)
		})
	}
}

func TestRunnerAlwaysSucceed(t *testing.T) {
	t.Parallel()

	runner, _, _ := newRunner(processtest.Lines())
	st := pipeline.Stage{
		Name:       "Get table of abundances",
		Program:    "get_abundances_table_asv.py",
		Path:       "python3",
		Classifier: pipeline.Classifier{AlwaysSucceed: true},
	}

	res, err := runner.Run(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Success, res.Outcome)
	assert.Empty(t, res.Lines)
}

func TestRunnerUnclassifiable(t *testing.T) {
	t.Parallel()

	runner, _, _ := newRunner(processtest.Lines("anything"))
	_, err := runner.Run(context.Background(), pipeline.Stage{Name: "no marker", Program: "tool", Path: "tool"}, nil)

	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, pipeline.Unclassifiable, stepErr.Outcome)
}

func TestRunnerExtract(t *testing.T) {
	t.Parallel()

	runner, exe, _ := newRunner(processtest.Lines("Reading", "Reverse-complement: GGACTACHVGGGTWTCTAAT", "done"))
	st := pipeline.Stage{
		Name:    "Reverse-complement",
		Program: "reverse_complement.py",
		Path:    "python3",
		Args:    []string{"/util/reverse_complement.py", "ATTAGAWACCCBDGTAGTCC"},
		Classifier: pipeline.Classifier{
			Marker:  "Reverse-complement",
			Extract: pipeline.SecondField,
		},
	}

	res, err := runner.Run(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, "GGACTACHVGGGTWTCTAAT", res.Value)
	assert.Len(t, res.Lines, 3)

	calls := exe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "python3", calls[0].Name)
	assert.Equal(t, st.Args, calls[0].Args)
}

func TestRunnerLogs(t *testing.T) {
	t.Parallel()

	runner, _, logs := newRunner(processtest.Lines("Clustering 50%"))
	_, err := runner.Run(context.Background(), clusterStage(), nil)
	require.Error(t, err)

	out := logs.String()
	assert.Contains(t, out, "[Run vsearch]")
	assert.Contains(t, out, "Command information:")
	assert.Contains(t, out, "  --cluster_size")
	assert.Contains(t, out, "Running...")
	assert.Contains(t, out, "Clustering 50%")
	assert.Contains(t, out, "ERROR executing vsearch!")
	assert.Contains(t, out, "Check the command: /tools/vsearch --cluster_size all.dereplicated.fa --id 0.97")
	assert.Contains(t, out, "Interrupted after: 00:00:00")
	assert.NotContains(t, out, "Elapsed time")
}

func TestRunnerLaunchError(t *testing.T) {
	t.Parallel()

	runner, _, logs := newRunner(func(string, []string) (string, error) {
		return "", errors.New("exec: no such file")
	})

	_, err := runner.Run(context.Background(), clusterStage(), nil)

	var launchErr *pipeline.LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.ErrorIs(t, err, pipeline.ErrLaunch)
	assert.Contains(t, logs.String(), "Error while executing command /tools/vsearch")
}

func TestRunnerOnLine(t *testing.T) {
	t.Parallel()

	runner, _, _ := newRunner(processtest.Lines("a", "Clustering 100%", "b"))

	var seen []string
	_, err := runner.Run(context.Background(), clusterStage(), func(line string) error {
		seen = append(seen, line)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Clustering 100%", "b"}, seen)

	_, err = runner.Run(context.Background(), clusterStage(), func(string) error {
		return errors.New("observer failed")
	})
	assert.ErrorContains(t, err, "observer failed")
}

func TestRunnerAction(t *testing.T) {
	t.Parallel()

	runner, exe, logs := newRunner(processtest.Lines())
	dir := t.TempDir()
	out := filepath.Join(dir, "all.fa")

	st := pipeline.Stage{
		Name:    "Merge all samples",
		Program: "merge",
		Action: func(context.Context) error {
			return os.WriteFile(out, []byte(">a\nAC\n>b\nGT\n"), 0o644)
		},
		Count:      out,
		CountLabel: "Number of sequences",
	}

	res, err := runner.Run(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Success, res.Outcome)
	assert.Empty(t, exe.Calls())
	assert.Contains(t, logs.String(), "Number of sequences: 2")
	assert.Contains(t, logs.String(), "Elapsed time: 00:00:00")

	st.Action = func(context.Context) error { return errors.New("disk full") }
	_, err = runner.Run(context.Background(), st, nil)

	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorContains(t, err, "disk full")
}

func TestRunnerAfter(t *testing.T) {
	t.Parallel()

	runner, _, _ := newRunner(processtest.Lines("Clustering 100%"))
	called := false
	st := clusterStage()
	st.After = func(context.Context) error {
		called = true

		return nil
	}

	_, err := runner.Run(context.Background(), st, nil)
	require.NoError(t, err)
	assert.True(t, called)

	st.After = func(context.Context) error { return errors.New("rename failed") }
	_, err = runner.Run(context.Background(), st, nil)
	assert.ErrorContains(t, err, "rename failed")
}

func TestSecondField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACGT", pipeline.SecondField("Reverse-complement: ACGT"))
	assert.Empty(t, pipeline.SecondField("Reverse-complement:"))
}
