package model

import (
	"path/filepath"
	"time"
)

// StageInfo describes a stage to the pipeline options.
type StageInfo struct {
	Index       int
	Name        string
	Description string
	Program     string
	// Sample is empty for cross-sample stages.
	Sample string
}

var (
	StartStage = &StageInfo{Index: -1, Name: "start"}
	EndStage   = &StageInfo{Index: -1, Name: "end"}
)

// StageReport is what an option learns once a stage is over.
type StageReport struct {
	Stage     *StageInfo
	Succeeded bool
	Lines     int
	Value     string
	Elapsed   time.Duration
}

// RunStatus is the terminal status of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Artifact is a file exchanged between stages. It has at most one producer;
// an artifact without producer is an input of the run.
type Artifact struct {
	Name      string
	Path      string
	Producer  string
	Consumers []string
	// Sources are the files it was directly derived from.
	Sources []string
}

// File returns the artifact stored at path, named after its base name.
func File(path string) Artifact {
	return Artifact{Name: filepath.Base(path), Path: path}
}

// Files maps File over paths.
func Files(paths ...string) []Artifact {
	out := make([]Artifact, 0, len(paths))
	for _, path := range paths {
		out = append(out, File(path))
	}

	return out
}
