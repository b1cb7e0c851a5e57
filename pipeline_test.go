package netsynth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func meshRequest() PipelineRequest {
	in := NewIntent("Mesh Test", FullMesh, 5)
	in.RedundancyLevel = Critical
	return PipelineRequest{Intent: in, Seed: seedOf(11), RunAnalysis: true, RunScenarios: true}
}

func TestPipelineFromIntent(t *testing.T) {
	p := NewPipeline(DefaultSettings(), WithLogger(zaptest.NewLogger(t)))
	result, err := p.Run(context.Background(), meshRequest())
	require.NoError(t, err)

	assert.Equal(t, StageSuccess, result.Status)
	assert.NotEmpty(t, result.PipelineID)
	for _, stage := range []string{ParseStage, GenerateStage, ValidateStage, AnalyzeStage, ScenariosStage} {
		sr, found := result.Stage(stage)
		require.True(t, found, stage)
		assert.Equal(t, StageSuccess, sr.Status, stage)
	}

	require.NotNil(t, result.Constraints)
	require.NotNil(t, result.Topology)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IntentSatisfied)
	require.NotNil(t, result.Report)
	assert.Equal(t, "Mesh Test", result.Report.IntentName)
	assert.Same(t, result.Validation.Analysis, result.Analysis)
	assert.Len(t, result.Scenarios, 3)
}

func TestPipelineFromCounts(t *testing.T) {
	p := NewPipeline(DefaultSettings())
	result, err := p.Run(context.Background(), PipelineRequest{Name: "lab", NumRouters: 3, NumSwitches: 2, Seed: seedOf(2)})
	require.NoError(t, err)

	assert.Equal(t, StageSuccess, result.Status)
	_, found := result.Stage(ParseStage)
	assert.False(t, found)
	sr, _ := result.Stage(AnalyzeStage)
	assert.Equal(t, StageSkipped, sr.Status)
	sr, _ = result.Stage(ScenariosStage)
	assert.Equal(t, StageSkipped, sr.Status)

	assert.Equal(t, "lab", result.Topology.Name)
	assert.Len(t, result.Topology.Devices, 5)
	assert.Nil(t, result.Analysis)
	assert.Nil(t, result.Report)
}

func TestPipelineRejectsEmptyRequest(t *testing.T) {
	_, err := NewPipeline(DefaultSettings()).Run(context.Background(), PipelineRequest{Name: "nothing"})
	assert.ErrorIs(t, err, ErrInvalidParameterRange)
}

func TestPipelineBadIntentFails(t *testing.T) {
	req := meshRequest()
	req.Intent.MaxHops = 1

	result, err := NewPipeline(DefaultSettings()).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StageFailed, result.Status)
	sr, found := result.Stage(ParseStage)
	require.True(t, found)
	assert.Equal(t, StageFailed, sr.Status)
	assert.NotEmpty(t, sr.Error)
	_, found = result.Stage(GenerateStage)
	assert.False(t, found)
	assert.Nil(t, result.Topology)
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewPipeline(DefaultSettings()).Run(ctx, meshRequest())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, StageFailed, result.Status)
}

func TestPipelineMetrics(t *testing.T) {
	recorder := NewRecorder()
	p := NewPipeline(DefaultSettings(), WithRecorder(recorder))

	_, err := p.Run(context.Background(), meshRequest())
	require.NoError(t, err)
	_, err = p.Run(context.Background(), PipelineRequest{NumRouters: 2, Seed: seedOf(1)})
	require.NoError(t, err)

	samples, err := recorder.Snapshot()
	require.NoError(t, err)

	find := func(name, labels string) (float64, bool) {
		for _, s := range samples {
			if s.Name == name && s.Labels == labels {
				return s.Value, true
			}
		}
		return 0, false
	}

	runs, found := find("netsynth_pipeline_runs_total", "status=success")
	require.True(t, found)
	assert.Equal(t, 2.0, runs)

	generated, found := find("netsynth_pipeline_stages_total", "stage=topology_generation,status=success")
	require.True(t, found)
	assert.Equal(t, 2.0, generated)

	skipped, found := find("netsynth_pipeline_stages_total", "stage=failure_scenarios,status=skipped")
	require.True(t, found)
	assert.Equal(t, 1.0, skipped)

	observed, found := find("netsynth_stage_duration_seconds_count", "stage=intent_parsing")
	require.True(t, found)
	assert.Equal(t, 1.0, observed)

	inFlight, found := find("netsynth_devices_in_flight", "")
	require.True(t, found)
	assert.Zero(t, inFlight)

	health, found := find("netsynth_last_health_score", "")
	require.True(t, found)
	assert.Greater(t, health, 0.0)
}

func TestPipelineTrace(t *testing.T) {
	tracer := CreateTraceManager("trace-test", true)
	p := NewPipeline(DefaultSettings(), WithTracer(tracer))

	result, err := p.Run(context.Background(), PipelineRequest{NumRouters: 3, Seed: seedOf(4)})
	require.NoError(t, err)

	require.Equal(t, []string{result.PipelineID}, tracer.Runs())
	traces := tracer.Traces[result.PipelineID]
	// only the generate stage runs; skipped stages leave no trace
	require.Len(t, traces, 2)
	assert.Contains(t, traces[0].TraceStr, "op: start")
	assert.Contains(t, traces[1].TraceStr, "op: stop")
	assert.Contains(t, traces[1].TraceStr, "status: success")
	assert.LessOrEqual(t, traces[0].TraceTime, traces[1].TraceTime)

	dir := t.TempDir()
	require.NoError(t, tracer.WriteToFile(filepath.Join(dir, "trace.yaml"), true))
	require.NoError(t, tracer.WriteToFile(filepath.Join(dir, "trace.json"), false))
	assert.FileExists(t, filepath.Join(dir, "trace.yaml"))
	assert.FileExists(t, filepath.Join(dir, "trace.json"))
}

func TestInactiveTracer(t *testing.T) {
	tracer := CreateTraceManager("off", false)
	p := NewPipeline(DefaultSettings(), WithTracer(tracer))
	_, err := p.Run(context.Background(), PipelineRequest{NumRouters: 2, Seed: seedOf(4)})
	require.NoError(t, err)
	assert.Empty(t, tracer.Runs())

	filename := filepath.Join(t.TempDir(), "none.yaml")
	require.NoError(t, tracer.WriteToFile(filename, true))
	assert.NoFileExists(t, filename)

	var nilTracer *TraceManager
	assert.False(t, nilTracer.Active())
}

func TestPipelineResultWriteToFile(t *testing.T) {
	result, err := NewPipeline(DefaultSettings()).Run(context.Background(), meshRequest())
	require.NoError(t, err)
	filename := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, result.WriteToFile(filename))
	assert.FileExists(t, filename)
}
