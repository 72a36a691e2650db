package measure

import (
	"time"

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStage.Name, "")
	pm.AddMetric(model.EndStage.Name, "")

	return nil
}

func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	pm.AddMetric(stage.Name, stage.Program)

	return nil
}

func (pm *pipelineMeasure) OnStageOutput(stage *model.StageInfo, _ string) error {
	pm.GetMetric(stage.Name).AddLines(1)

	return nil
}

func (pm *pipelineMeasure) AfterStage(report model.StageReport) error {
	mt := pm.GetMetric(report.Stage.Name)
	mt.AddDuration(report.Elapsed)
	mt.SetSucceeded(report.Succeeded)

	return nil
}

func (pm *pipelineMeasure) Finish(status model.RunStatus, total time.Duration) error {
	end := pm.GetMetric(model.EndStage.Name)
	end.SetTotalDuration(total)
	end.SetSucceeded(status == model.StatusCompleted)

	return nil
}

// PipelineMeasure records the metrics of every stage into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
