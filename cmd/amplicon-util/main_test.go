package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseComplement(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		expected string
		wantErr  bool
	}{
		"plain":     {input: "AGTC", expected: "GACT"},
		"lowercase": {input: "ggactac", expected: "GTAGTCC"},
		"uracil":    {input: "AUG", expected: "CAT"},
		"iupac":     {input: "GGACTACHVGGGTWTCTAAT", expected: "ATTAGAWACCCBDGTAGTCC"},
		"invalid":   {input: "ACGT!", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ReverseComplement(tc.input)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRevcompCommand(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"revcomp", "GGTT"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Reverse-complement: AACC\n", out.String())
}

func TestRootCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"unknown"})
	require.Error(t, cmd.Execute())
}

func TestMapSequences(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		return path
	}

	fasta1 := write("all.dereplicated.fa", ">u1;size=5\nAAAA\n>u2;size=3\nCCCC\n>u3;size=2\nGGGG\n>u4;size=2\nTTTT\n")
	uc := write("all.preclustered.uc",
		"S\t0\t4\t*\t*\t*\t*\t*\tu1;size=5\t*\n"+
			"H\t0\t4\t100.0\t+\t0\t0\t4M\tu2;size=3\tu1;size=5\n"+
			"H\t1\t4\t99.0\t+\t0\t0\t4M\tu4;size=2\tu3;size=2\n"+
			"C\t0\t2\t*\t*\t*\t*\t*\tu1;size=8\t*\n")
	fasta2 := write("all.ref.nonchimeras.fa", ">u1;size=8\nAAAA\n")
	output := filepath.Join(dir, "all.nonchimeras.dereplicated.fa")

	n, err := MapSequences(fasta1, uc, fasta2, output)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, ">u1;size=5\nAAAA\n>u2;size=3\nCCCC\n", string(got))
}

func TestMapSequencesEmptyReference(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fasta1 := filepath.Join(dir, "a.fa")
	empty := filepath.Join(dir, "empty.fa")
	uc := filepath.Join(dir, "a.uc")
	require.NoError(t, os.WriteFile(fasta1, []byte(">a\nACGT\n"), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	require.NoError(t, os.WriteFile(uc, nil, 0o644))

	n, err := MapSequences(fasta1, uc, empty, filepath.Join(dir, "out.fa"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, filepath.Join(dir, "out.fa"))
}

func TestMapCommandArgs(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"map", "a.fa"})

	require.Error(t, cmd.Execute())
}
