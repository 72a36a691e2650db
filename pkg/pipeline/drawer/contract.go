package drawer

import (
	"time"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a stage to the pipeline drawer.
	AddStep(name string) error
	// AddLink adds a link between two consecutive stages.
	AddLink(parentName, childName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the total time for the stage.
	SetTotalTime(name string, total time.Duration) error
	// MarkFailed highlights a failed stage.
	MarkFailed(name string) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
