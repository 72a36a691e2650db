package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/measure"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m      measure.Measure
	last   string
	failed []string
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}

	err = pd.AddStep(model.EndStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStage(previous, stage *model.StageInfo) error {
	err := pd.AddStep(stage.Name)
	if err != nil {
		return err
	}

	pd.last = stage.Name

	return pd.AddLink(previous.Name, stage.Name)
}

func (pd *pipelineDrawer) OnStageOutput(*model.StageInfo, string) error {
	return nil
}

func (pd *pipelineDrawer) AfterStage(report model.StageReport) error {
	if !report.Succeeded {
		pd.failed = append(pd.failed, report.Stage.Name)
	}

	return nil
}

func (pd *pipelineDrawer) Finish(status model.RunStatus, total time.Duration) error {
	if status == model.StatusCompleted {
		last := pd.last
		if last == "" {
			last = model.StartStage.Name
		}

		err := pd.AddLink(last, model.EndStage.Name)
		if err != nil {
			return err
		}
	}

	err := pd.SetTotalTime(model.EndStage.Name, total)
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	for _, name := range pd.failed {
		err = pd.MarkFailed(name)
		if err != nil {
			return errors.Wrap(err, "unable to mark failed stage")
		}
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the executed stages. The measure, when set, must also be
// registered with measure.PipelineMeasure.
func PipelineDrawer(drawer Drawer, msr measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: msr}
}
