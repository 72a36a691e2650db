package primer_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/primer"
	"github.com/askiada/amplicon-pipeline/pkg/process/processtest"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
)

func writePrimers(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "primers.fa")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRead(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content  string
		expected primer.Pair
		wantErr  bool
	}{
		"two records": {
			content:  ">fwd\nGTGCCAGCMGCCGCGGTAA\n>rev\nGGACTACHVGGGTWTCTAAT\n",
			expected: primer.Pair{Forward: "GTGCCAGCMGCCGCGGTAA", Reverse: "GGACTACHVGGGTWTCTAAT"},
		},
		"extra records ignored": {
			content:  ">a\nACGT\n>b\nTTGA\n>c\nCCCC\n",
			expected: primer.Pair{Forward: "ACGT", Reverse: "TTGA"},
		},
		"wrapped sequence": {
			content:  ">a\nACGT\nACGT\n>b\nTT\n",
			expected: primer.Pair{Forward: "ACGTACGT", Reverse: "TT"},
		},
		"single record": {
			content: ">a\nACGT\n",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := primer.Read(writePrimers(t, tc.content))
			if tc.wantErr {
				assert.ErrorIs(t, err, primer.ErrMissingPrimer)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := primer.Read(filepath.Join(t.TempDir(), "missing.fa"))
	require.Error(t, err)
}

func newPipeline(t *testing.T, handler processtest.Handler) (*pipeline.Pipeline, *processtest.Executor) {
	t.Helper()

	exe := processtest.New(handler)
	logger := slog.New(runlog.NewHandler(io.Discard, "", nil))

	pipe, err := pipeline.New(pipeline.NewRunner(exe, logger))
	require.NoError(t, err)

	return pipe, exe
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		PrimersFile: writePrimers(t, ">fwd\nAAAC\n>rev\nGGTT\n"),
		Interpreter: "python3",
		UtilPath:    "/opt/util",
	}

	pipe, exe := newPipeline(t, processtest.Lines("Input: GGTT", "Reverse-complement: AACC"))

	got, err := primer.Resolve(context.Background(), pipe, cfg)
	require.NoError(t, err)
	assert.Equal(t, primer.Pair{Forward: "AAAC", Reverse: "GGTT", ReverseComplement: "AACC"}, got)

	calls := exe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "python3", calls[0].Name)
	assert.Equal(t, []string{filepath.Join("/opt/util", primer.Helper), "GGTT"}, calls[0].Args)
}

func TestResolveNativeHelper(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		PrimersFile: writePrimers(t, ">fwd\nAAAC\n>rev\nGGTT\n"),
		Interpreter: "python3",
		UtilPath:    "/opt/util",
		Helpers:     config.HelpersNative,
		Toolchain:   config.PlatformLinux.Toolchain("/opt/tools").WithUtil("/opt/tools"),
	}

	st := primer.ReverseComplementStage(cfg, "GGTT")
	assert.Equal(t, config.UtilBinary, st.Program)

	pipe, exe := newPipeline(t, processtest.Lines("Reverse-complement: AACC"))

	got, err := primer.Resolve(context.Background(), pipe, cfg)
	require.NoError(t, err)
	assert.Equal(t, "AACC", got.ReverseComplement)

	calls := exe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, filepath.Join("/opt/tools", "gnulinux", config.UtilBinary), calls[0].Name)
	assert.Equal(t, []string{primer.Subcommand, "GGTT"}, calls[0].Args)
}

func TestResolveFailures(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		lines       []string
		expectedErr error
	}{
		"no marker":    {lines: []string{"Traceback (most recent call last):"}, expectedErr: pipeline.ErrStageFailed},
		"marker alone": {lines: []string{"Reverse-complement:"}, expectedErr: primer.ErrNoReverseComplement},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Config{
				PrimersFile: writePrimers(t, ">fwd\nAAAC\n>rev\nGGTT\n"),
				Interpreter: "python3",
			}

			pipe, _ := newPipeline(t, processtest.Lines(tc.lines...))
			_, err := primer.Resolve(context.Background(), pipe, cfg)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestResolveNilStepper(t *testing.T) {
	t.Parallel()

	_, err := primer.Resolve(context.Background(), nil, config.Config{})
	assert.ErrorIs(t, err, primer.ErrStepperMustBeSet)
}
