package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/amplicon-pipeline/internal/store"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline"
	"github.com/askiada/amplicon-pipeline/pkg/pipeline/model"
	"github.com/askiada/amplicon-pipeline/pkg/process/processtest"
)

type recorder struct {
	events []string
	status model.RunStatus
}

func (r *recorder) New() error {
	r.events = append(r.events, "new")

	return nil
}

func (r *recorder) PrepareStage(previous, stage *model.StageInfo) error {
	r.events = append(r.events, fmt.Sprintf("prepare %s->%s", previous.Name, stage.Name))

	return nil
}

func (r *recorder) OnStageOutput(stage *model.StageInfo, line string) error {
	r.events = append(r.events, "line "+stage.Name+": "+line)

	return nil
}

func (r *recorder) AfterStage(report model.StageReport) error {
	r.events = append(r.events, fmt.Sprintf("after %s %t", report.Stage.Name, report.Succeeded))

	return nil
}

func (r *recorder) Finish(status model.RunStatus, _ time.Duration) error {
	r.status = status
	r.events = append(r.events, "finish")

	return nil
}

type artifactRecorder struct {
	recorder
	artifacts []model.Artifact
}

func (r *artifactRecorder) ReportArtifacts(artifacts []model.Artifact) error {
	r.artifacts = artifacts
	r.events = append(r.events, "artifacts")

	return nil
}

func markerStage(name, marker string) pipeline.Stage {
	return pipeline.Stage{
		Name:       name,
		Program:    "tool",
		Path:       "tool",
		Args:       []string{name},
		Classifier: pipeline.Classifier{Marker: marker},
	}
}

func echoHandler(name string, args []string) (string, error) {
	return "done " + args[0], nil
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	runner, _, _ := newRunner(echoHandler)
	pipe, err := pipeline.New(runner, pipeline.WithOptions(rec), pipeline.WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", pipe.RunID())
	assert.Equal(t, model.StatusRunning, pipe.Status())

	err = pipe.Run(context.Background(), markerStage("one", "done"), markerStage("two", "done"))
	require.NoError(t, err)
	require.NoError(t, pipe.Finish(nil))

	assert.Equal(t, model.StatusCompleted, pipe.Status())
	assert.Equal(t, model.StatusCompleted, rec.status)
	assert.Equal(t, 2, pipe.Index())
	assert.Equal(t, []string{
		"new",
		"prepare start->one",
		"line one: done one",
		"after one true",
		"prepare one->two",
		"line two: done two",
		"after two true",
		"finish",
	}, rec.events)

	assert.ErrorIs(t, pipe.Finish(nil), pipeline.ErrPipelineFinished)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	runner, exe, _ := newRunner(echoHandler)
	pipe, err := pipeline.New(runner, pipeline.WithOptions(rec))
	require.NoError(t, err)

	err = pipe.Run(context.Background(),
		markerStage("one", "done"),
		markerStage("two", "Statistics of merged reads"),
		markerStage("three", "done"),
	)
	require.ErrorIs(t, err, pipeline.ErrStageFailed)
	assert.Equal(t, model.StatusFailed, pipe.Status())
	assert.Len(t, exe.Calls(), 2)
	assert.Contains(t, rec.events, "after two false")

	_, err = pipe.Step(context.Background(), markerStage("four", "done"))
	require.ErrorIs(t, err, pipeline.ErrPipelineFinished)

	require.NoError(t, pipe.Finish(nil))
	assert.Equal(t, model.StatusFailed, rec.status)
}

func TestPipelineFinishWithRunError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	runner, _, _ := newRunner(echoHandler)
	pipe, err := pipeline.New(runner, pipeline.WithOptions(rec))
	require.NoError(t, err)

	_, err = pipe.Step(context.Background(), markerStage("one", "done"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, pipe.Status())

	require.NoError(t, pipe.Finish(errors.New("primers file unreadable")))
	assert.Equal(t, model.StatusFailed, pipe.Status())
	assert.Equal(t, model.StatusFailed, rec.status)
}

func TestPipelineArtifacts(t *testing.T) {
	t.Parallel()

	rec := &artifactRecorder{}
	runner, _, _ := newRunner(echoHandler)
	pipe, err := pipeline.New(runner, pipeline.WithOptions(rec))
	require.NoError(t, err)

	merge := markerStage("merge", "done")
	merge.Consumes = model.Files("/in/A_R1_1.fq", "/in/A_R2_1.fq")
	merge.Produces = model.Files("/out/A.merged.fq")

	_, err = pipe.Step(context.Background(), merge)
	require.NoError(t, err)

	again := markerStage("merge again", "done")
	again.Produces = model.Files("/out/A.merged.fq")
	_, err = pipe.Step(context.Background(), again)
	require.ErrorIs(t, err, store.ErrArtifactAlreadyProduced)
	assert.Equal(t, model.StatusFailed, pipe.Status())

	require.NoError(t, pipe.Finish(err))
	require.Len(t, rec.artifacts, 3)
	assert.Equal(t, "/out/A.merged.fq", rec.artifacts[2].Path)
	assert.Equal(t, "merge", rec.artifacts[2].Producer)
	assert.Equal(t, []string{"/in/A_R1_1.fq", "/in/A_R2_1.fq"}, rec.artifacts[2].Sources)
	assert.Equal(t, []string{"artifacts", "finish"}, rec.events[len(rec.events)-2:])
}

func TestNewPipelineWithoutRunner(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(nil)
	require.ErrorIs(t, err, pipeline.ErrRunnerMustBeSet)
}

func TestGeneratedRunID(t *testing.T) {
	t.Parallel()

	runner, _, _ := newRunner(processtest.Lines())
	first, err := pipeline.New(runner)
	require.NoError(t, err)
	second, err := pipeline.New(runner)
	require.NoError(t, err)

	assert.Len(t, first.RunID(), 36)
	assert.NotEqual(t, first.RunID(), second.RunID())
}
