// Package config turns the raw run parameters into an immutable, validated Config
// and resolves the external tools for the target platform.
package config

import "path/filepath"

// Approach selects the stage graph variant.
type Approach string

const (
	// ApproachOTU is the clustering-based variant.
	ApproachOTU Approach = "otu"
	// ApproachASV is the denoising-based variant.
	ApproachASV Approach = "asv"
)

// Configuration keys of the PARAMETERS section.
const (
	KeyApproach        = "APPROACH_TYPE"
	KeySamplesPath     = "SAMPLES_PATH"
	KeyDatabasePath    = "DATABASE_PATH"
	KeyUtilPath        = "UTIL_PATH"
	KeyOutputPath      = "OUTPUT_PATH"
	KeyToolsPath       = "TOOLS_PATH"
	KeyPrimersFile     = "PRIMERS_FILE"
	KeyDatabaseFasta   = "DATABASE_FASTA"
	KeyDatabaseBin     = "DATABASE_BIN"
	KeyDatabaseType    = "DATABASE_TYPE"
	KeyThreads         = "THREADS"
	KeyInterpreter     = "PYTHON_VERSION"
	KeyPlatform        = "PLATFORM_TYPE"
	KeyFilterMaxEE     = "FILTER_MAXEE"
	KeyFilterMinLen    = "FILTER_MINLEN"
	KeyFilterMaxLen    = "FILTER_MAXLEN"
	KeyClusterIdentity = "CLUSTER_IDENTITY"
	KeyBlastIdentity   = "BLAST_IDENTITY"
	KeyHighIdentity    = "HIGH_IDENTITY_ASV"
	KeySintaxCutoff    = "SINTAX_CUTOFF"
	KeyHelpers         = "HELPERS"
)

// Sequence helper implementations selected by HELPERS.
const (
	// HelpersScripts runs the Python helpers of the util path.
	HelpersScripts = "scripts"
	// HelpersNative runs the amplicon-util binary bundled with the platform tools.
	HelpersNative = "native"
)

// Reference database conventions understood by the abundance table builder.
const (
	DatabaseSilva = "silva"
	DatabaseRDP   = "rdp"
)

// Config is a fully validated run configuration. It is only ever built by Validate.
type Config struct {
	Approach Approach
	Platform Platform

	SamplesPath  string
	DatabasePath string
	UtilPath     string
	OutputPath   string
	ToolsPath    string

	// PrimersFile, DatabaseFasta and DatabaseBin are resolved against DatabasePath.
	PrimersFile   string
	DatabaseFasta string
	DatabaseBin   string
	DatabaseType  string

	Threads     int
	Interpreter string
	// Helpers is HelpersScripts or HelpersNative.
	Helpers string

	FilterMaxEE  float64
	FilterMinLen int
	// FilterMaxLen is 0 when unset.
	FilterMaxLen int

	// Identity and cutoff values are fractions in (0,1].
	ClusterIdentity      float64
	BlastIdentity        float64
	HighIdentity         float64
	ClassificationCutoff float64

	Toolchain Toolchain
}

// Helper returns the command running a sequence helper: the amplicon-util subcommand
// with native helpers, the script of the util path otherwise.
func (cfg Config) Helper(script, subcommand string) Command {
	if cfg.Helpers == HelpersNative {
		return Command{Program: cfg.Toolchain.Util, Args: []string{subcommand}}
	}

	return Command{Program: cfg.Interpreter, Args: []string{filepath.Join(cfg.UtilPath, script)}}
}

// NativeHelpers reports whether sequence helpers run through amplicon-util.
func (cfg Config) NativeHelpers() bool {
	return cfg.Helpers == HelpersNative
}
