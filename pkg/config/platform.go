package config

import (
	"path/filepath"
	"strings"
)

// Platform is the target operating system of the bundled tools.
type Platform string

const (
	PlatformLinux   Platform = "gnulinux"
	PlatformWindows Platform = "win"
)

const fastQCMain = "uk.ac.babraham.FastQC.FastQCApplication"

// Known reports whether p is a supported platform.
func (p Platform) Known() bool {
	return p == PlatformLinux || p == PlatformWindows
}

func (p Platform) binary(dir, name string) string {
	if p == PlatformWindows {
		name += ".exe"
	}

	return filepath.Join(dir, name)
}

// Command is a program and the arguments that always precede the call specific ones.
type Command struct {
	Program string
	Args    []string
}

// With returns a copy of c with args appended.
func (c Command) With(args ...string) Command {
	all := make([]string, 0, len(c.Args)+len(args))
	all = append(all, c.Args...)
	all = append(all, args...)

	return Command{Program: c.Program, Args: all}
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Toolchain holds the resolved external tools of a run.
type Toolchain struct {
	Platform Platform

	Vsearch  string
	Usearch  string
	Cutadapt string
	Blastn   string
	FastQC   Command

	// FastQCVersion queries the FastQC version.
	FastQCVersion Command

	// Util is the amplicon-util binary, empty unless native helpers are enabled.
	Util string
}

// UtilBinary is the name of the native sequence helpers binary.
const UtilBinary = "amplicon-util"

// WithUtil returns a copy of t running the sequence helpers from the amplicon-util binary
// bundled under toolsPath/<platform>.
func (t Toolchain) WithUtil(toolsPath string) Toolchain {
	t.Util = t.Platform.binary(filepath.Join(toolsPath, string(t.Platform)), UtilBinary)

	return t
}

// Toolchain resolves the tools bundled under toolsPath. Platform binaries live in
// toolsPath/<platform>, FastQC in toolsPath/common/FastQC.
func (p Platform) Toolchain(toolsPath string) Toolchain {
	binDir := filepath.Join(toolsPath, string(p))
	fastQCDir := filepath.Join(toolsPath, "common", "FastQC")

	tc := Toolchain{
		Platform: p,
		Vsearch:  p.binary(binDir, "vsearch"),
		Usearch:  p.binary(binDir, "usearch"),
		Cutadapt: p.binary(binDir, "cutadapt"),
		Blastn:   p.binary(binDir, "blastn"),
	}

	if p == PlatformWindows {
		classpath := strings.Join([]string{
			fastQCDir,
			filepath.Join(fastQCDir, "sam-1.103.jar"),
			filepath.Join(fastQCDir, "jbzip2-0.9.jar"),
		}, ";")
		tc.FastQC = Command{Program: "java", Args: []string{"-Xmx250m", "-classpath", classpath, fastQCMain}}
		tc.FastQCVersion = Command{Program: "java", Args: []string{
			"-Xmx250m", "-Dfastqc.show_version=true", "-Djava.awt.headless=true", "-classpath", classpath, fastQCMain,
		}}

		return tc
	}

	tc.FastQC = Command{Program: filepath.Join(fastQCDir, "fastqc")}
	tc.FastQCVersion = tc.FastQC.With("--version")

	return tc
}

// QualityCheck builds the FastQC invocation for input. On Windows the reports are written
// next to input and must be relocated afterwards, see RelocatesReports.
func (t Toolchain) QualityCheck(input, outputDir string) Command {
	if t.Platform == PlatformWindows {
		return t.FastQC.With(input)
	}

	return t.FastQC.With("-f", "fastq", "-o", outputDir, input)
}

// RelocatesReports reports whether FastQC reports have to be moved to the output directory.
func (t Toolchain) RelocatesReports() bool {
	return t.Platform == PlatformWindows
}

// Executables lists the files that must carry the executable bit on POSIX platforms.
func (t Toolchain) Executables() []string {
	if t.Platform == PlatformWindows {
		return nil
	}

	executables := []string{t.Vsearch, t.Usearch, t.Cutadapt, t.Blastn, t.FastQC.Program}
	if t.Util != "" {
		executables = append(executables, t.Util)
	}

	return executables
}
