package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/process/processtest"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err      error
		expected int
	}{
		"success":         {expected: 0},
		"stage failure":   {err: &pipeline.StepError{Stage: "merge"}, expected: exitStageFailure},
		"launch failure":  {err: &pipeline.LaunchError{Stage: "merge", Err: os.ErrNotExist}, expected: exitStageFailure},
		"config failure":  {err: &configError{err: errors.New("bad")}, expected: exitConfigFailure},
		"wrapped config":  {err: errors.Wrap(&configError{err: errors.New("bad")}, "run"), expected: exitConfigFailure},
		"any other error": {err: errors.New("boom"), expected: exitStageFailure},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, exitCode(tc.err))
		})
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, name := range []string{"samples/A_R1_001.fastq", "samples/A_R2_001.fastq", "db/ref.fasta", "db/primers.fa"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(">x\nACGT\n"), 0o644))
	}

	require.NoError(t, os.MkdirAll(filepath.Join(root, "util"), 0o755))

	content := "[PARAMETERS]\n" +
		"APPROACH_TYPE = asv\n" +
		"SAMPLES_PATH = " + filepath.Join(root, "samples") + "\n" +
		"DATABASE_PATH = " + filepath.Join(root, "db") + "\n" +
		"UTIL_PATH = " + filepath.Join(root, "util") + "\n" +
		"OUTPUT_PATH = " + filepath.Join(root, "out") + "\n" +
		"TOOLS_PATH = " + filepath.Join(root, "missing-tools") + "\n" +
		"PRIMERS_FILE = primers.fa\n" +
		"DATABASE_FASTA = ref.fasta\n" +
		"THREADS = 2\n" +
		"PLATFORM_TYPE = gnulinux\n" +
		"PYTHON_VERSION = python3\n" +
		"FILTER_MAXEE = 0.5\n" +
		"FILTER_MINLEN = 300\n" +
		"HIGH_IDENTITY_ASV = 99\n" +
		"SINTAX_CUTOFF = 0.8\n"

	path := filepath.Join(root, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestExecute(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     func(t *testing.T) []string
		expected int
		logged   string
	}{
		"version": {
			args:     func(*testing.T) []string { return []string{"--version"} },
			expected: 0,
		},
		"missing flag": {
			args:     func(*testing.T) []string { return nil },
			expected: exitConfigFailure,
			logged:   "config_file",
		},
		"unknown flag": {
			args:     func(*testing.T) []string { return []string{"--threads", "4"} },
			expected: exitConfigFailure,
		},
		"missing config file": {
			args: func(t *testing.T) []string {
				return []string{"-c", filepath.Join(t.TempDir(), "config.ini")}
			},
			expected: exitConfigFailure,
			logged:   "doesn't exist",
		},
		"tools not installed": {
			args:     func(t *testing.T) []string { return []string{"--config_file", writeConfig(t)} },
			expected: exitConfigFailure,
			logged:   "tool is not installed",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			console := &bytes.Buffer{}
			exe := processtest.New(processtest.Lines())

			code := execute(context.Background(), tc.args(t), console, exe)
			assert.Equal(t, tc.expected, code)
			assert.Contains(t, console.String(), tc.logged)
			assert.Empty(t, exe.Calls())
		})
	}
}
