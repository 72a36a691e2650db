// Package report writes an xlsx summary of a run.
package report

import (
	"strings"
	"time"

	"github.com/liserjrqlxue/goUtil/simpleUtil"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
	"github.com/askiada/amplicon-pipeline/pkg/runlog"
)

const (
	SheetStages    = "Stages"
	SheetRun       = "Run"
	SheetArtifacts = "Artifacts"
)

var (
	stageHeader    = []interface{}{"#", "Stage", "Description", "Program", "Sample", "Status", "Output lines", "Elapsed"}
	artifactHeader = []interface{}{"File", "Path", "Produced by", "Consumed by", "Derived from"}
)

type row struct {
	info      *model.StageInfo
	succeeded bool
	lines     int
	elapsed   time.Duration
}

type pipelineReport struct {
	path    string
	runID   string
	started time.Time
	rows      []*row
	current   *row
	artifacts []model.Artifact
}

// PipelineReport writes the summary workbook to path when the run finishes. The returned
// option is also a model.ArtifactReporter.
func PipelineReport(path, runID string) model.PipelineOption {
	return &pipelineReport{path: path, runID: runID}
}

func (pr *pipelineReport) New() error {
	pr.started = time.Now()

	return nil
}

func (pr *pipelineReport) PrepareStage(_, stage *model.StageInfo) error {
	pr.current = &row{info: stage}
	pr.rows = append(pr.rows, pr.current)

	return nil
}

func (pr *pipelineReport) OnStageOutput(*model.StageInfo, string) error {
	return nil
}

func (pr *pipelineReport) AfterStage(report model.StageReport) error {
	if pr.current == nil || pr.current.info != report.Stage {
		return errors.Errorf("stage %s was not prepared", report.Stage.Name)
	}

	pr.current.succeeded = report.Succeeded
	pr.current.lines = report.Lines
	pr.current.elapsed = report.Elapsed

	return nil
}

func (pr *pipelineReport) ReportArtifacts(artifacts []model.Artifact) error {
	pr.artifacts = artifacts

	return nil
}

func fill(f *excelize.File, r, g, b uint8) (int, error) {
	c, err := colors.RGB(r, g, b) //nolint
	if err != nil {
		return 0, errors.Wrap(err, "unable to get colour")
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c.ToHEX().String()}},
	})
	if err != nil {
		return 0, errors.Wrap(err, "unable to create style")
	}

	return style, nil
}

func (pr *pipelineReport) Finish(status model.RunStatus, total time.Duration) error {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	err := xlsx.SetSheetName("Sheet1", SheetStages)
	if err != nil {
		return errors.Wrap(err, "unable to rename sheet")
	}

	_, err = xlsx.NewSheet(SheetRun)
	if err != nil {
		return errors.Wrap(err, "unable to create sheet")
	}

	_, err = xlsx.NewSheet(SheetArtifacts)
	if err != nil {
		return errors.Wrap(err, "unable to create sheet")
	}

	err = pr.writeStages(xlsx)
	if err != nil {
		return err
	}

	err = pr.writeArtifacts(xlsx)
	if err != nil {
		return err
	}

	runRows := [][]interface{}{
		{"Run ID", pr.runID},
		{"Started", pr.started.Format(time.DateTime)},
		{"Status", string(status)},
		{"Stages", len(pr.rows)},
		{"Elapsed", runlog.FormatElapsed(total)},
	}
	for i, values := range runRows {
		err = xlsx.SetSheetRow(SheetRun, cell(1, i+1), &values)
		if err != nil {
			return errors.Wrap(err, "unable to write run sheet")
		}
	}

	err = xlsx.SaveAs(pr.path)
	if err != nil {
		return errors.Wrapf(err, "unable to save %s", pr.path)
	}

	return nil
}

func (pr *pipelineReport) writeStages(xlsx *excelize.File) error {
	okStyle, err := fill(xlsx, 198, 239, 206)
	if err != nil {
		return err
	}

	failedStyle, err := fill(xlsx, 255, 199, 206)
	if err != nil {
		return err
	}

	err = xlsx.SetSheetRow(SheetStages, "A1", &stageHeader)
	if err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	for i, r := range pr.rows {
		status, style := "success", okStyle
		if !r.succeeded {
			status, style = "failed", failedStyle
		}

		values := []interface{}{
			r.info.Index + 1, r.info.Name, r.info.Description, r.info.Program, r.info.Sample,
			status, r.lines, runlog.FormatElapsed(r.elapsed),
		}

		err = xlsx.SetSheetRow(SheetStages, cell(1, i+2), &values)
		if err != nil {
			return errors.Wrapf(err, "unable to write stage %s", r.info.Name)
		}

		err = xlsx.SetCellStyle(SheetStages, cell(6, i+2), cell(6, i+2), style)
		if err != nil {
			return errors.Wrap(err, "unable to set style")
		}
	}

	return nil
}

func (pr *pipelineReport) writeArtifacts(xlsx *excelize.File) error {
	err := xlsx.SetSheetRow(SheetArtifacts, "A1", &artifactHeader)
	if err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	for i, a := range pr.artifacts {
		producer := a.Producer
		if producer == "" {
			producer = "run input"
		}

		values := []interface{}{
			a.Name, a.Path, producer, strings.Join(a.Consumers, "\n"), strings.Join(a.Sources, "\n"),
		}

		err = xlsx.SetSheetRow(SheetArtifacts, cell(1, i+2), &values)
		if err != nil {
			return errors.Wrapf(err, "unable to write artifact %s", a.Path)
		}
	}

	return nil
}

func cell(col, row int) string {
	return simpleUtil.HandleError(excelize.CoordinatesToCellName(col, row))
}
