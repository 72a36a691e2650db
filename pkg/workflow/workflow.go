// Package workflow lays out the stage graphs of the clustering and denoising approaches
// and runs them.
package workflow

import (
	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/config"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/primer"
	"github.com/askiada/amplicon-pipeline/pkg/samples"
)

// ErrNoSamples is returned when the samples directory holds no forward reads.
var ErrNoSamples = errors.New("no samples found")

// Graph is the ordered list of stages of a run.
type Graph struct {
	Stages []pipeline.Stage
	// AbundanceTable is written by the last stage.
	AbundanceTable string
}

// Build returns the graph of the approach selected by cfg.
func Build(cfg config.Config, all []samples.Sample, primers primer.Pair) (Graph, error) {
	if len(all) == 0 {
		return Graph{}, ErrNoSamples
	}

	switch cfg.Approach {
	case config.ApproachOTU:
		return Clustering(cfg, all, primers), nil
	case config.ApproachASV:
		return Denoising(cfg, all, primers), nil
	default:
		return Graph{}, errors.Errorf("unknown approach %q", cfg.Approach)
	}
}
