package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs before the stage is executed.
	PrepareStage(previous, stage *StageInfo) error
	// OnStageOutput runs for every line printed by the stage.
	OnStageOutput(stage *StageInfo, line string) error
	// AfterStage runs once the stage is over, whatever its outcome.
	AfterStage(report StageReport) error
	// Finish runs after the last stage, or after the first failing one.
	Finish(status RunStatus, total time.Duration) error
}

// ArtifactReporter is implemented by options that also report the files of the run.
// ReportArtifacts runs right before Finish.
type ArtifactReporter interface {
	ReportArtifacts(artifacts []Artifact) error
}
