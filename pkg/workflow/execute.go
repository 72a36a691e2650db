package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/drawer"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/measure"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/report"
	"github.com/askiada/amplicon-pipeline/pkg/primer"
	"github.com/askiada/amplicon-pipeline/pkg/process"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
	"github.com/askiada/amplicon-pipeline/pkg/samples"
)

// Files written next to the artifacts once the run is over.
const (
	DrawingFile = "pipeline.dot"
	SummaryFile = "run_summary.xlsx"
)

// ErrPanic wraps a panic recovered during a run.
var ErrPanic = errors.New("run panicked")

type runSettings struct {
	runID string
}

// Option configures Execute.
type Option func(s *runSettings)

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *runSettings) {
		s.runID = id
	}
}

// Run executes the stages of g in order and stops at the first failure.
func Run(ctx context.Context, pipe *pipeline.Pipeline, g Graph) error {
	if pipe == nil {
		return pipeline.ErrPipelineMustBeSet
	}

	return pipe.Run(ctx, g.Stages...)
}

// Execute discovers the samples, resolves the primers and runs the graph of cfg.
// The total elapsed time and "Done!" are logged whatever the outcome, panics included.
// Failed stages are logged by the runner, any other error is logged here.
func Execute(ctx context.Context, cfg config.Config, exe process.Executor, logger *slog.Logger, opts ...Option) (err error) {
	if logger == nil {
		logger = slog.Default()
	}

	settings := &runSettings{runID: uuid.NewString()}
	for _, opt := range opts {
		opt(settings)
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, fmt.Sprintf("%v\n%s", r, debug.Stack()))
			err = errors.Wrapf(ErrPanic, "%v", r)
		} else if err != nil && !errors.Is(err, pipeline.ErrStageFailed) && !errors.Is(err, pipeline.ErrLaunch) {
			logger.ErrorContext(ctx, err.Error())
		}

		logger.InfoContext(ctx, "Elapsed time [Total]: "+runlog.FormatElapsed(time.Since(start)))
		logger.InfoContext(ctx, "Done!")
	}()

	runlog.Banner(ctx, logger, "RUN")
	logger.InfoContext(ctx, "Run", "id", settings.runID, "approach", string(cfg.Approach))
	runlog.Blank(ctx, logger)

	all, err := samples.Discover(cfg.SamplesPath)
	if err != nil {
		return errors.Wrap(err, "unable to discover samples")
	}

	msr := measure.NewDefaultMeasure()
	pipe, err := pipeline.New(
		pipeline.NewRunner(exe, logger),
		pipeline.WithRunID(settings.runID),
		pipeline.WithOptions(
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(filepath.Join(cfg.OutputPath, DrawingFile)), msr),
			report.PipelineReport(filepath.Join(cfg.OutputPath, SummaryFile), settings.runID),
		),
	)
	if err != nil {
		return errors.Wrap(err, "unable to create pipeline")
	}

	runErr := execute(ctx, cfg, pipe, all, logger)

	err = pipe.Finish(runErr)
	if err != nil {
		logger.WarnContext(ctx, "unable to write run summary", "error", err)
	}

	return runErr
}

func execute(ctx context.Context, cfg config.Config, pipe *pipeline.Pipeline, all []samples.Sample, logger *slog.Logger) error {
	primers, err := primer.Resolve(ctx, pipe, cfg)
	if err != nil {
		return err
	}

	g, err := Build(cfg, all, primers)
	if err != nil {
		return err
	}

	err = Run(ctx, pipe, g)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Abundance file: "+g.AbundanceTable)
	runlog.Blank(ctx, logger)

	return nil
}
