package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/internal/store"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

// ErrRunnerMustBeSet is returned by New without runner.
var ErrRunnerMustBeSet = errors.New("runner must be set")

// Pipeline is a sequential run of stages.
type Pipeline struct {
	mu        sync.Mutex
	runID     string
	runner    *Runner
	artifacts *store.ArtifactStore
	opts      []model.PipelineOption
	startTime time.Time
	index     int
	previous  *model.StageInfo
	status    model.RunStatus
	finished  bool
}

// Option configures a Pipeline.
type Option func(p *Pipeline)

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		p.runID = id
	}
}

// WithOptions registers pipeline options.
func WithOptions(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}

// New creates a new pipeline.
func New(runner *Runner, opts ...Option) (*Pipeline, error) {
	if runner == nil {
		return nil, ErrRunnerMustBeSet
	}

	pipe := &Pipeline{
		runID:     uuid.NewString(),
		runner:    runner,
		artifacts: store.NewArtifactStore(),
		startTime: time.Now(),
		previous:  model.StartStage,
		status:    model.StatusRunning,
	}

	for _, opt := range opts {
		opt(pipe)
	}

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// RunID identifies the run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Status returns the current status of the run.
func (p *Pipeline) Status() model.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status
}

// Index is the index of the next stage.
func (p *Pipeline) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.index
}

// Step runs one stage. The first failing stage marks the run as failed and every
// later call returns ErrPipelineFinished.
func (p *Pipeline) Step(ctx context.Context, st Stage) (StepResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished || p.status == model.StatusFailed {
		return StepResult{}, ErrPipelineFinished
	}

	info := st.Info(p.index)

	err := p.artifacts.Record(st.Name, st.Consumes, st.Produces)
	if err != nil {
		p.status = model.StatusFailed

		return StepResult{}, errors.Wrapf(err, "unable to record files of stage %s", st.Name)
	}

	for _, opt := range p.opts {
		err = opt.PrepareStage(p.previous, info)
		if err != nil {
			p.status = model.StatusFailed

			return StepResult{}, errors.Wrap(err, "unable to prepare stage")
		}
	}

	res, runErr := p.runner.Run(ctx, st, func(line string) error {
		for _, opt := range p.opts {
			err := opt.OnStageOutput(info, line)
			if err != nil {
				return err
			}
		}

		return nil
	})

	for _, opt := range p.opts {
		err = opt.AfterStage(res.report(info))
		if err != nil && runErr == nil {
			runErr = errors.Wrap(err, "unable to report stage")
		}
	}

	p.previous = info
	p.index++

	if runErr != nil {
		p.status = model.StatusFailed

		return res, runErr
	}

	return res, nil
}

// Run executes stages in order and stops at the first error.
func (p *Pipeline) Run(ctx context.Context, stages ...Stage) error {
	for _, st := range stages {
		_, err := p.Step(ctx, st)
		if err != nil {
			return err
		}
	}

	return nil
}

// Finish closes the run. runErr is the error that ended the run, if any: it fails the run
// even when no stage failed, e.g. unreadable primers. Options are finished in registration
// order.
func (p *Pipeline) Finish(runErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return ErrPipelineFinished
	}

	p.finished = true

	switch {
	case p.status != model.StatusRunning:
	case runErr != nil:
		p.status = model.StatusFailed
	default:
		p.status = model.StatusCompleted
	}

	err := p.reportArtifacts()
	if err != nil {
		return err
	}

	total := time.Since(p.startTime)
	for _, opt := range p.opts {
		err = opt.Finish(p.status, total)
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

func (p *Pipeline) reportArtifacts() error {
	var artifacts []model.Artifact

	for _, opt := range p.opts {
		reporter, ok := opt.(model.ArtifactReporter)
		if !ok {
			continue
		}

		if artifacts == nil {
			all, err := p.artifacts.Artifacts()
			if err != nil {
				return errors.Wrap(err, "unable to list artifacts")
			}

			artifacts = all
		}

		err := reporter.ReportArtifacts(artifacts)
		if err != nil {
			return errors.Wrap(err, "unable to report artifacts")
		}
	}

	return nil
}
