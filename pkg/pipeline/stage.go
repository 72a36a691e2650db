package pipeline

import (
	"context"
	"strings"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

// Outcome is the classification of a finished stage.
type Outcome int

const (
	// Unclassifiable is the outcome of a stage without marker that is not always successful.
	Unclassifiable Outcome = iota
	Success
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unclassifiable"
	}
}

// Classifier decides the outcome of a stage from the lines it printed.
type Classifier struct {
	// Marker is searched in every line, as a prefix or anywhere in the line.
	Marker string
	// AlwaysSucceed is set for tools whose completion cannot be read from their output.
	AlwaysSucceed bool
	// Extract pulls a value out of the line matching Marker.
	Extract func(line string) string
}

// Matches reports whether line carries the marker.
func (c Classifier) Matches(line string) bool {
	return c.Marker != "" && (strings.HasPrefix(line, c.Marker) || strings.Contains(line, c.Marker))
}

// Classify returns the outcome once the output is over.
func (c Classifier) Classify(matched bool) Outcome {
	switch {
	case matched, c.AlwaysSucceed:
		return Success
	case c.Marker == "":
		return Unclassifiable
	default:
		return Failure
	}
}

// SecondField returns the second whitespace separated field of line.
func SecondField(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}

	return fields[1]
}

// Stage is one step of a run.
type Stage struct {
	// Name identifies the stage in the run, e.g. "A: merge paired-end reads".
	Name        string
	Description string
	// Program is the tool name shown in the log.
	Program string
	// Path is the executable. Empty for in-process stages.
	Path       string
	Args       []string
	Classifier Classifier
	Sample     string

	Consumes []model.Artifact
	Produces []model.Artifact

	// Action replaces the external process when set.
	Action func(ctx context.Context) error
	// After runs once the stage succeeded.
	After func(ctx context.Context) error
	// Count names a FASTA file whose number of records is logged after the stage,
	// under CountLabel.
	Count      string
	CountLabel string
}

// Info returns the description of the stage handed to the pipeline options.
func (s Stage) Info(index int) *model.StageInfo {
	return &model.StageInfo{
		Index:       index,
		Name:        s.Name,
		Description: s.Description,
		Program:     s.Program,
		Sample:      s.Sample,
	}
}

// Command is the stage command line, for logs only.
func (s Stage) Command() string {
	return strings.Join(append([]string{s.Path}, s.Args...), " ")
}
