package drawer

import (
	"os"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/measure"
)

// DOTDrawer writes the executed stages as a Graphviz DOT file.
type DOTDrawer struct {
	graph       graph.Graph[string, string]
	dotFileName string
	// order lists the stages as they were added.
	order []string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer(dotFileName string) *DOTDrawer {
	return &DOTDrawer{
		dotFileName: dotFileName,
		graph:       graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddStep adds a stage to the pipeline graph. Adding a known stage is a no-op.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	switch {
	case errors.Is(err, graph.ErrVertexAlreadyExists):
		return nil
	case err != nil:
		return errors.Wrap(err, "unable to add vertex")
	}

	d.order = append(d.order, name)

	return nil
}

// AddLink adds a link between parent and child stages.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw creates a DOT file with the pipeline graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}

	err = d.render(file)
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to create dot file %s", d.dotFileName)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", d.dotFileName)
}

// SetTotalTime sets the total time for the stage.
func (d *DOTDrawer) SetTotalTime(name string, total time.Duration) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrap(err, "unable to get vertex properties")
	}

	properties.Attributes["xlabel"] = "total: " + total.String()

	return nil
}

// MarkFailed fills the stage in red.
func (d *DOTDrawer) MarkFailed(name string) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrap(err, "unable to get vertex properties")
	}

	red, err := colors.RGB(255, 0, 0) //nolint
	if err != nil {
		return errors.Wrap(err, "unable to get colour")
	}

	properties.Attributes["style"] = "filled"
	properties.Attributes["fillcolor"] = red.ToHEX().String()

	return nil
}

const maxRGB = 240

// heat maps elapsed onto a blue (fastest) to red (slowest) scale.
func heat(elapsed, minValue, maxValue time.Duration) (string, error) {
	fraction := 1.0
	if maxValue > minValue {
		fraction = float64(elapsed-minValue) / float64(maxValue-minValue)
	}

	red := maxRGB * fraction
	blue := maxRGB - maxRGB*fraction

	c, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return c.ToHEX().String(), nil
}

// AddMeasure labels every stage with its elapsed time and colours the edge entering it.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()

	elapsed := lo.FilterMap(lo.Values(metrics), func(mt measure.Metric, _ int) (time.Duration, bool) {
		return mt.AVGDuration(), mt.AVGDuration() > 0
	})
	if len(elapsed) == 0 {
		return nil
	}

	minValue, maxValue := lo.Min(elapsed), lo.Max(elapsed)

	predecessors, err := d.graph.PredecessorMap()
	if err != nil {
		return errors.Wrap(err, "unable to get predecessors")
	}

	for name, mt := range metrics {
		stepAvg := mt.AVGDuration()
		if stepAvg == 0 {
			continue
		}

		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			continue
		}

		properties.Attributes["xlabel"] = stepAvg.String()

		colour, err := heat(stepAvg, minValue, maxValue)
		if err != nil {
			return err
		}

		for parent := range predecessors[name] {
			err := d.graph.UpdateEdge(parent, name,
				graph.EdgeAttribute("label", stepAvg.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", colour),
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
