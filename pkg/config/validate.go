package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/samples"
)

var (
	numberRe  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	integerRe = regexp.MustCompile(`^\d+$`)
)

// ValidationError reports the first setting that prevented a Config from being built.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
	// Err is the underlying cause, when there is one.
	Err error
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parameter %s: %s", strings.ToLower(e.Key), e.Reason)
	}

	return fmt.Sprintf("parameter %s (%s): %s", strings.ToLower(e.Key), e.Value, e.Reason)
}

func invalid(key, value, reason string) error {
	return &ValidationError{Key: key, Value: value, Reason: reason}
}

type validator struct {
	logger *slog.Logger
	exeDir string
}

// Option configures Validate.
type Option func(v *validator)

// WithLogger sets the logger receiving validation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(v *validator) {
		v.logger = logger
	}
}

// WithExecutableDir sets the directory used to derive the default tools path.
func WithExecutableDir(dir string) Option {
	return func(v *validator) {
		v.exeDir = dir
	}
}

// Validate builds a Config from raw settings. Checks run in a fixed order and the first
// failure is returned as a *ValidationError; no partially filled Config is ever returned.
// The output directory is created when missing.
func Validate(settings Settings, opts ...Option) (Config, error) {
	v := &validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}

	cfg, err := v.validate(settings)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (v *validator) validate(settings Settings) (Config, error) {
	cfg := Config{}

	approach, err := required(settings, KeyApproach)
	if err != nil {
		return cfg, err
	}

	cfg.Approach = Approach(strings.ToLower(approach))
	if cfg.Approach != ApproachOTU && cfg.Approach != ApproachASV {
		return cfg, invalid(KeyApproach, approach, fmt.Sprintf("must be %s or %s", ApproachASV, ApproachOTU))
	}

	cfg.OutputPath, err = v.outputPath(settings)
	if err != nil {
		return cfg, err
	}

	cfg.SamplesPath, err = existingDir(settings, KeySamplesPath)
	if err != nil {
		return cfg, err
	}

	found, err := samples.Discover(cfg.SamplesPath)
	switch {
	case errors.Is(err, samples.ErrDuplicateSample):
		return cfg, &ValidationError{Key: KeySamplesPath, Value: cfg.SamplesPath, Reason: err.Error(), Err: err}
	case err != nil:
		return cfg, errors.Wrapf(err, "unable to scan %s", cfg.SamplesPath)
	case len(found) == 0:
		return cfg, invalid(KeySamplesPath, cfg.SamplesPath, "no FASTQ file named <part1>_R1_<part2>.fastq")
	}

	cfg.DatabasePath, err = existingDir(settings, KeyDatabasePath)
	if err != nil {
		return cfg, err
	}

	cfg.UtilPath, err = existingDir(settings, KeyUtilPath)
	if err != nil {
		return cfg, err
	}

	cfg.DatabaseFasta, err = databaseFile(settings, KeyDatabaseFasta, cfg.DatabasePath, "")
	if err != nil {
		return cfg, err
	}

	if cfg.Approach == ApproachOTU {
		cfg.DatabaseBin, err = databaseFile(settings, KeyDatabaseBin, cfg.DatabasePath, ".nhr")
		if err != nil {
			return cfg, err
		}

		cfg.DatabaseType = strings.ToLower(settings.Get(KeyDatabaseType))
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSilva
		}

		if cfg.DatabaseType != DatabaseSilva && cfg.DatabaseType != DatabaseRDP {
			return cfg, invalid(KeyDatabaseType, cfg.DatabaseType, fmt.Sprintf("must be %s or %s", DatabaseSilva, DatabaseRDP))
		}
	}

	cfg.PrimersFile, err = databaseFile(settings, KeyPrimersFile, cfg.DatabasePath, "")
	if err != nil {
		return cfg, err
	}

	cfg.Threads, err = positiveInt(settings, KeyThreads)
	if err != nil {
		return cfg, err
	}

	err = v.platformAndInterpreter(settings, &cfg)
	if err != nil {
		return cfg, err
	}

	err = filters(settings, &cfg)
	if err != nil {
		return cfg, err
	}

	err = thresholds(settings, &cfg)
	if err != nil {
		return cfg, err
	}

	cfg.ToolsPath = settings.Get(KeyToolsPath)
	if cfg.ToolsPath == "" {
		cfg.ToolsPath, err = v.defaultToolsPath()
		if err != nil {
			return cfg, err
		}
	}

	cfg.ToolsPath = filepath.Clean(cfg.ToolsPath)
	cfg.Toolchain = cfg.Platform.Toolchain(cfg.ToolsPath)

	cfg.Helpers = strings.ToLower(settings.Get(KeyHelpers))
	switch cfg.Helpers {
	case "":
		cfg.Helpers = HelpersScripts
	case HelpersScripts:
	case HelpersNative:
		cfg.Toolchain = cfg.Toolchain.WithUtil(cfg.ToolsPath)
	default:
		return cfg, invalid(KeyHelpers, settings.Get(KeyHelpers), fmt.Sprintf("must be %s or %s", HelpersScripts, HelpersNative))
	}

	return cfg, nil
}

func (v *validator) outputPath(settings Settings) (string, error) {
	path, err := required(settings, KeyOutputPath)
	if err != nil {
		return "", err
	}

	path = filepath.Clean(path)

	err = os.MkdirAll(path, 0o755) //nolint:gosec // tool outputs are meant to be shared
	if err != nil {
		return "", invalid(KeyOutputPath, path, "could not create directory: "+err.Error())
	}

	return path, nil
}

func (v *validator) platformAndInterpreter(settings Settings, cfg *Config) error {
	platform, err := required(settings, KeyPlatform)
	if err != nil {
		return err
	}

	cfg.Platform = Platform(strings.ToLower(platform))
	if !cfg.Platform.Known() {
		return invalid(KeyPlatform, platform,
			fmt.Sprintf("must be %s (for GNU/Linux) or %s (for Windows)", PlatformLinux, PlatformWindows))
	}

	interpreter, err := required(settings, KeyInterpreter)
	if err != nil {
		return err
	}

	cfg.Interpreter = strings.ToLower(interpreter)
	if cfg.Interpreter != "python" && cfg.Interpreter != "python3" {
		return invalid(KeyInterpreter, interpreter,
			"must be python3 (for Python 3.x in GNU/Linux) or python (for Python 3.x in Windows)")
	}

	if cfg.Platform == PlatformLinux && cfg.Interpreter == "python" {
		v.logger.Warn("GNU/Linux platform with " + strings.ToLower(KeyInterpreter) + "=python, python3 is recommended")
	}

	return nil
}

func filters(settings Settings, cfg *Config) error {
	var err error

	cfg.FilterMaxEE, err = positiveNumber(settings, KeyFilterMaxEE)
	if err != nil {
		return err
	}

	cfg.FilterMinLen, err = positiveInt(settings, KeyFilterMinLen)
	if err != nil {
		return err
	}

	if settings.Get(KeyFilterMaxLen) == "" {
		return nil
	}

	cfg.FilterMaxLen, err = positiveInt(settings, KeyFilterMaxLen)
	if err != nil {
		return err
	}

	if cfg.FilterMinLen > cfg.FilterMaxLen {
		return invalid(KeyFilterMaxLen, settings.Get(KeyFilterMaxLen),
			fmt.Sprintf("can't be lower than %s (%d)", strings.ToLower(KeyFilterMinLen), cfg.FilterMinLen))
	}

	return nil
}

func thresholds(settings Settings, cfg *Config) error {
	var err error

	switch cfg.Approach {
	case ApproachOTU:
		cfg.ClusterIdentity, err = percentage(settings, KeyClusterIdentity)
		if err != nil {
			return err
		}

		cfg.BlastIdentity, err = percentage(settings, KeyBlastIdentity)
		if err != nil {
			return err
		}
	case ApproachASV:
		cfg.HighIdentity, err = percentage(settings, KeyHighIdentity)
		if err != nil {
			return err
		}

		cfg.ClassificationCutoff, err = fraction(settings, KeySintaxCutoff)
		if err != nil {
			return err
		}
	}

	return nil
}

func (v *validator) defaultToolsPath() (string, error) {
	dir := v.exeDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", errors.Wrap(err, "unable to locate the running executable")
		}

		dir = filepath.Dir(exe)
	}

	return filepath.Join(dir, "utilities"), nil
}

func required(settings Settings, key string) (string, error) {
	value := settings.Get(key)
	if value == "" {
		return "", invalid(key, "", "value not specified")
	}

	return value, nil
}

func existingDir(settings Settings, key string) (string, error) {
	path, err := required(settings, key)
	if err != nil {
		return "", err
	}

	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", invalid(key, path, "path doesn't exist")
	}

	return path, nil
}

// databaseFile resolves a file name against the database directory. When sidecar is set,
// the check is done on name+sidecar and the returned path is the bare name.
func databaseFile(settings Settings, key, dir, sidecar string) (string, error) {
	name, err := required(settings, key)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if !osUtil.FileExists(path + sidecar) {
		return "", invalid(key, path+sidecar, "file doesn't exist")
	}

	return path, nil
}

func positiveInt(settings Settings, key string) (int, error) {
	value, err := required(settings, key)
	if err != nil {
		return 0, err
	}

	if !integerRe.MatchString(value) {
		return 0, invalid(key, value, "is not a positive integer")
	}

	n, err := strconv.Atoi(value)
	if err != nil || n == 0 {
		return 0, invalid(key, value, "is not a positive integer")
	}

	return n, nil
}

func positiveNumber(settings Settings, key string) (float64, error) {
	value, err := required(settings, key)
	if err != nil {
		return 0, err
	}

	if !numberRe.MatchString(value) {
		return 0, invalid(key, value, "is not a positive number")
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f == 0 {
		return 0, invalid(key, value, "is not a positive number")
	}

	return f, nil
}

// percentage reads a value given in percent and returns it as a fraction.
func percentage(settings Settings, key string) (float64, error) {
	f, err := positiveNumber(settings, key)
	if err != nil {
		return 0, err
	}

	if f > 100 {
		return 0, invalid(key, settings.Get(key), "can't be greater than 100")
	}

	return f / 100, nil
}

// fraction accepts either a fraction in (0,1] or a whole percentage in (1,100] and returns
// a fraction. Decimals above 1, like 1.5, are rejected.
func fraction(settings Settings, key string) (float64, error) {
	f, err := positiveNumber(settings, key)
	if err != nil {
		return 0, err
	}

	if f <= 1 {
		return f, nil
	}

	if f > 100 || f != math.Trunc(f) {
		return 0, invalid(key, settings.Get(key), "must be a fraction in (0,1] or a whole percentage in (1,100]")
	}

	return f / 100, nil
}

// Percent renders a fraction as a percentage without floating point noise.
func Percent(fraction float64) float64 {
	return math.Round(fraction*1e6) / 1e4
}
