package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/amplicon-pipeline/pkg/config"
)

func TestToolchainLinux(t *testing.T) {
	t.Parallel()

	tc := config.PlatformLinux.Toolchain("/tools")
	assert.Equal(t, filepath.Join("/tools", "gnulinux", "usearch"), tc.Usearch)
	assert.False(t, tc.RelocatesReports())

	cmd := tc.QualityCheck("/in/A_R1_001.fastq", "/out")
	assert.Equal(t, filepath.Join("/tools", "common", "FastQC", "fastqc"), cmd.Program)
	assert.Equal(t, []string{"-f", "fastq", "-o", "/out", "/in/A_R1_001.fastq"}, cmd.Args)
	assert.Equal(t, []string{"--version"}, tc.FastQCVersion.Args)
	assert.Len(t, tc.Executables(), 5)
}

func TestToolchainWindows(t *testing.T) {
	t.Parallel()

	tc := config.PlatformWindows.Toolchain("/tools")
	assert.Equal(t, filepath.Join("/tools", "win", "vsearch.exe"), tc.Vsearch)
	assert.Equal(t, filepath.Join("/tools", "win", "blastn.exe"), tc.Blastn)
	assert.True(t, tc.RelocatesReports())
	assert.Empty(t, tc.Executables())

	cmd := tc.QualityCheck("/in/A_R1_001.fastq", "/out")
	assert.Equal(t, "java", cmd.Program)
	assert.Equal(t, "/in/A_R1_001.fastq", cmd.Args[len(cmd.Args)-1])
	assert.Contains(t, cmd.Args, "uk.ac.babraham.FastQC.FastQCApplication")
	assert.Contains(t, tc.FastQCVersion.Args, "-Dfastqc.show_version=true")
}

func TestCommandWithDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := config.Command{Program: "tool", Args: make([]string, 1, 4)}
	first := base.With("a")
	second := base.With("b")
	assert.Equal(t, "a", first.Args[1])
	assert.Equal(t, "b", second.Args[1])
	assert.Equal(t, "tool  b", second.String())
}

func TestToolchainWithUtil(t *testing.T) {
	t.Parallel()

	linux := config.PlatformLinux.Toolchain("/tools").WithUtil("/tools")
	assert.Equal(t, filepath.Join("/tools", "gnulinux", "amplicon-util"), linux.Util)
	assert.Len(t, linux.Executables(), 6)

	win := config.PlatformWindows.Toolchain("/tools").WithUtil("/tools")
	assert.Equal(t, filepath.Join("/tools", "win", "amplicon-util.exe"), win.Util)
}

func TestHelper(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Interpreter: "python3",
		UtilPath:    "/util",
		Helpers:     config.HelpersScripts,
		Toolchain:   config.PlatformLinux.Toolchain("/tools").WithUtil("/tools"),
	}

	cmd := cfg.Helper("map.py", "map").With("a.fa")
	assert.Equal(t, "python3", cmd.Program)
	assert.Equal(t, []string{filepath.Join("/util", "map.py"), "a.fa"}, cmd.Args)
	assert.False(t, cfg.NativeHelpers())

	cfg.Helpers = config.HelpersNative
	cmd = cfg.Helper("map.py", "map").With("a.fa")
	assert.Equal(t, cfg.Toolchain.Util, cmd.Program)
	assert.Equal(t, []string{"map", "a.fa"}, cmd.Args)
	assert.True(t, cfg.NativeHelpers())
}
