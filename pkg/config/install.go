package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/process"
)

// ErrToolNotInstalled is returned when a tool does not answer its version query.
var ErrToolNotInstalled = errors.New("tool is not installed")

type probe struct {
	name string
	cmd  Command
}

func (cfg Config) probes() []probe {
	tc := cfg.Toolchain
	probes := []probe{
		{name: "vsearch", cmd: Command{Program: tc.Vsearch, Args: []string{"--version"}}},
		{name: "usearch", cmd: Command{Program: tc.Usearch, Args: []string{"--version"}}},
		{name: "cutadapt", cmd: Command{Program: tc.Cutadapt, Args: []string{"--version"}}},
	}

	if cfg.Approach == ApproachOTU {
		probes = append(probes, probe{name: "blastn", cmd: Command{Program: tc.Blastn, Args: []string{"-version"}}})
	}

	probes = append(probes, probe{name: "fastqc", cmd: tc.FastQCVersion})

	if tc.Util != "" {
		probes = append(probes, probe{name: UtilBinary, cmd: Command{Program: tc.Util, Args: []string{"--version"}}})
	}

	return probes
}

// CheckInstallation makes the bundled binaries executable on POSIX platforms and runs the
// version query of every tool the approach needs. A tool printing nothing is not installed.
func CheckInstallation(ctx context.Context, cfg Config, exe process.Executor) error {
	for _, path := range cfg.Toolchain.Executables() {
		err := makeExecutable(path)
		if err != nil {
			return errors.Wrapf(ErrToolNotInstalled, "%s: %s", filepath.Base(path), err.Error())
		}
	}

	for _, p := range cfg.probes() {
		out, err := process.Collect(ctx, exe, p.cmd.Program, p.cmd.Args...)
		if out == "" {
			if err != nil {
				return errors.Wrapf(ErrToolNotInstalled, "%s (%s): %s", p.name, p.cmd, err.Error())
			}

			return errors.Wrapf(ErrToolNotInstalled, "%s (%s)", p.name, p.cmd)
		}

		slog.DebugContext(ctx, "tool version", "tool", p.name, "version", firstLine(out))
	}

	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}

	return s
}
