package pipeline

import (
	"time"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

// StepResult is the result of running one stage.
type StepResult struct {
	Stage   string
	Outcome Outcome
	Lines   []string
	// Value is the extracted value, if the stage has an extractor and a line matched.
	Value   string
	Elapsed time.Duration
	// ExitErr is the exit status error of the process, kept for diagnostics only:
	// the outcome is decided from the output.
	ExitErr error
}

// Succeeded is a shortcut for Outcome == Success.
func (r StepResult) Succeeded() bool {
	return r.Outcome == Success
}

func (r StepResult) report(info *model.StageInfo) model.StageReport {
	return model.StageReport{
		Stage:     info,
		Succeeded: r.Succeeded(),
		Lines:     len(r.Lines),
		Value:     r.Value,
		Elapsed:   r.Elapsed,
	}
}
