// Command amplicon runs the amplicon analysis pipeline described by a configuration file.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liserjrqlxue/goUtil/osUtil"
	"github.com/liserjrqlxue/version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/process"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
	"github.com/askiada/amplicon-pipeline/pkg/workflow"
)

const (
	exitStageFailure  = 1
	exitConfigFailure = 2
)

// configError marks failures that happen before any stage runs.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfigFailure
	}

	return exitStageFailure
}

func newRootCommand(console io.Writer, exe process.Executor) *cobra.Command {
	var (
		configFile  string
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:           "amplicon",
		Short:         "Pipeline for the analysis of 16S rRNA amplicons, through OTUs or ASVs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				version.LogVersion()

				return nil
			}

			if configFile == "" {
				return &configError{err: errors.New(`required flag "config_file" not set`)}
			}

			return run(cmd.Context(), configFile, console, exe)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &configError{err: err}
	})

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config_file", "c", "", "Configuration file")
	flags.BoolVar(&showVersion, "version", false, "Show the version and exit")

	return cmd
}

func run(ctx context.Context, configFile string, console io.Writer, exe process.Executor) error {
	logger := slog.New(runlog.NewHandler(console, "", &runlog.Options{Color: true}))

	if !osUtil.FileExists(configFile) {
		return &configError{err: errors.Errorf("File '%s' doesn't exist", configFile)}
	}

	settings, err := config.Load(configFile)
	if err != nil {
		return &configError{err: err}
	}

	cfg, err := config.Validate(settings, config.WithLogger(logger))
	if err != nil {
		return &configError{err: err}
	}

	logger = slog.New(runlog.NewHandler(console, runlog.FileName(cfg.OutputPath, time.Now()), &runlog.Options{Color: true}))
	slog.SetDefault(logger)

	err = config.CheckInstallation(ctx, cfg, exe)
	if err != nil {
		return &configError{err: err}
	}

	return workflow.Execute(ctx, cfg, exe, logger)
}

func execute(ctx context.Context, args []string, console io.Writer, exe process.Executor) int {
	cmd := newRootCommand(console, exe)
	cmd.SetArgs(args)
	cmd.SetOut(console)
	cmd.SetErr(console)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		var cfgErr *configError
		if errors.As(err, &cfgErr) {
			slog.New(runlog.NewHandler(console, "", nil)).ErrorContext(ctx, err.Error())
		}
	}

	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stderr, process.New())
	stop()

	os.Exit(code)
}
