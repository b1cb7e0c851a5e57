package netsynth

// pipeline.go chains the parser, generator, validator, analyzer and simulator into
// one run, recording per-stage status and durations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StageStatus is the outcome of a stage, or of a whole run
type StageStatus string

const (
	StageSuccess   StageStatus = "success"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
	PartialSuccess StageStatus = "partial_success"
)

// Stage names, in execution order
const (
	ParseStage     = "intent_parsing"
	GenerateStage  = "topology_generation"
	ValidateStage  = "intent_validation"
	AnalyzeStage   = "topology_analysis"
	ScenariosStage = "failure_scenarios"
)

// PipelineRequest selects what a run does.  With an Intent the topology is built
// from it and validated against it; otherwise it is built from the router and switch counts.
type PipelineRequest struct {
	Name         string  `json:"name" yaml:"name"`
	Intent       *Intent `json:"intent,omitempty" yaml:"intent,omitempty"`
	NumRouters   int     `json:"numrouters,omitempty" yaml:"numrouters,omitempty"`
	NumSwitches  int     `json:"numswitches,omitempty" yaml:"numswitches,omitempty"`
	Seed         *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	RunAnalysis  bool    `json:"runanalysis" yaml:"runanalysis"`
	RunScenarios bool    `json:"runscenarios" yaml:"runscenarios"`
}

// StageResult reports one stage of a run
type StageResult struct {
	Stage           string      `json:"stage" yaml:"stage"`
	Status          StageStatus `json:"status" yaml:"status"`
	DurationSeconds float64     `json:"durationseconds" yaml:"durationseconds"`
	Error           string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// PipelineResult holds everything a run produced.  Fields of stages that did not
// run, or failed, are nil.
type PipelineResult struct {
	PipelineID           string            `json:"pipelineid" yaml:"pipelineid"`
	Timestamp            time.Time         `json:"timestamp" yaml:"timestamp"`
	TotalDurationSeconds float64           `json:"totaldurationseconds" yaml:"totaldurationseconds"`
	Status               StageStatus       `json:"status" yaml:"status"`
	Stages               []StageResult     `json:"stages" yaml:"stages"`
	Constraints          *ConstraintSet    `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Topology             *Topology         `json:"topology,omitempty" yaml:"topology,omitempty"`
	Validation           *ValidationResult `json:"validation,omitempty" yaml:"validation,omitempty"`
	Report               *IntentReport     `json:"report,omitempty" yaml:"report,omitempty"`
	Analysis             *AnalysisResult   `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Scenarios            []*ScenarioResult `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// Stage returns the result of the named stage, if it was recorded
func (pr *PipelineResult) Stage(name string) (StageResult, bool) {
	for _, sr := range pr.Stages {
		if sr.Stage == name {
			return sr, true
		}
	}
	return StageResult{}, false
}

// WriteToFile stores the result in the file whose name is given,
// as yaml or json depending on the extension
func (pr *PipelineResult) WriteToFile(filename string) error {
	return writeDesc(filename, pr)
}

// Pipeline runs the stages.  One Pipeline may serve concurrent runs.
type Pipeline struct {
	logger    *zap.Logger
	recorder  *Recorder
	tracer    *TraceManager
	parser    *Parser
	generator *Generator
	validator *Validator
	analyzer  *Analyzer
	simulator *Simulator
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the logger of the pipeline and of every component it drives
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

// WithRecorder makes the pipeline count its runs and time its stages
func WithRecorder(recorder *Recorder) PipelineOption {
	return func(p *Pipeline) { p.recorder = recorder }
}

// WithTracer makes the pipeline trace the start and stop of every stage
func WithTracer(tracer *TraceManager) PipelineOption {
	return func(p *Pipeline) { p.tracer = tracer }
}

// NewPipeline is a constructor
func NewPipeline(settings Settings, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = orNop(p.logger)
	p.parser = NewParser(p.logger)
	p.generator = NewGenerator(p.logger)
	p.validator = NewValidator(settings, p.logger)
	p.analyzer = NewAnalyzer(settings, p.logger)
	p.simulator = NewSimulator(settings, p.logger)
	return p
}

// Run executes the stages the request selects.  A failure to obtain a topology ends
// the run with status failed; a failure in a later stage marks the run partial_success
// and the remaining stages still run.  The error return is reserved for a malformed
// request and a cancelled context.
func (p *Pipeline) Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	if req.Intent == nil && req.NumRouters == 0 {
		return nil, errors.Wrap(ErrInvalidParameterRange, "pipeline request needs an intent or a router count")
	}

	start := time.Now()
	result := &PipelineResult{
		PipelineID: uuid.NewString(),
		Timestamp:  start.UTC(),
		Status:     StageSuccess,
		Stages:     []StageResult{},
	}
	logger := p.logger.With(zap.String("pipeline", result.PipelineID))
	logger.Info("pipeline started", zap.String("name", req.Name), zap.Bool("intent", req.Intent != nil))

	defer func() {
		result.TotalDurationSeconds = round(time.Since(start).Seconds(), 4)
		if p.recorder != nil {
			p.recorder.RecordRun(result.Status)
		}
		logger.Info("pipeline finished",
			zap.String("status", string(result.Status)),
			zap.Float64("seconds", result.TotalDurationSeconds))
	}()

	if req.Intent != nil {
		err := p.runStage(ctx, result, ParseStage, func() (err error) {
			result.Constraints, err = p.parser.ParseIntent(req.Intent)
			return err
		})
		if err != nil {
			return p.abort(ctx, result)
		}
	}

	err := p.runStage(ctx, result, GenerateStage, func() (err error) {
		if req.Intent != nil {
			result.Topology, err = p.generator.GenerateFromIntent(req.Intent, req.Seed)
			return err
		}
		name := req.Name
		if len(name) == 0 {
			name = "pipeline"
		}
		result.Topology, err = p.generator.Generate(GenerateRequest{
			Name:        name,
			NumRouters:  req.NumRouters,
			NumSwitches: req.NumSwitches,
			Seed:        req.Seed,
		})
		return err
	})
	if err != nil {
		return p.abort(ctx, result)
	}
	if p.recorder != nil {
		devices := float64(len(result.Topology.Devices))
		p.recorder.DevicesInFlight.Add(devices)
		defer p.recorder.DevicesInFlight.Sub(devices)
	}

	if req.Intent != nil {
		err := p.runStage(ctx, result, ValidateStage, func() (err error) {
			result.Validation, err = p.validator.Validate(result.Topology, req.Intent)
			if err == nil {
				result.Report = p.validator.Report(result.Topology, req.Intent, result.Validation)
			}
			return err
		})
		if err != nil {
			result.Status = PartialSuccess
		}
		if cerr := ctx.Err(); cerr != nil {
			return result, cerr
		}
	}

	if req.RunAnalysis {
		err := p.runStage(ctx, result, AnalyzeStage, func() (err error) {
			if result.Validation != nil {
				result.Analysis = result.Validation.Analysis
				return nil
			}
			result.Analysis, err = p.analyzer.Analyze(result.Topology)
			return err
		})
		if err != nil {
			result.Status = PartialSuccess
		} else if p.recorder != nil {
			p.recorder.HealthScore.Set(result.Analysis.HealthScore)
		}
		if cerr := ctx.Err(); cerr != nil {
			return result, cerr
		}
	} else {
		p.skipStage(result, AnalyzeStage)
	}

	if req.RunScenarios {
		err := p.runStage(ctx, result, ScenariosStage, func() error {
			for _, sc := range p.simulator.GenerateTestScenarios(result.Topology) {
				if err := ctx.Err(); err != nil {
					return err
				}
				sr, err := p.simulator.RunScenario(result.Topology, sc)
				if err != nil {
					return err
				}
				result.Scenarios = append(result.Scenarios, sr)
			}
			return nil
		})
		if err != nil {
			result.Status = PartialSuccess
		}
	} else {
		p.skipStage(result, ScenariosStage)
	}

	return result, ctx.Err()
}

// abort ends a run whose topology could not be obtained
func (p *Pipeline) abort(ctx context.Context, result *PipelineResult) (*PipelineResult, error) {
	result.Status = StageFailed
	return result, ctx.Err()
}

// runStage times fn and records its outcome under the stage name.  A context
// cancelled before the stage starts fails the stage without calling fn.
func (p *Pipeline) runStage(ctx context.Context, result *PipelineResult, stage string, fn func() error) error {
	AddStageTrace(p.tracer, &StageTrace{Time: time.Now(), RunID: result.PipelineID, Stage: stage, Op: "start"})

	began := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn()
	}
	elapsed := time.Since(began)

	sr := StageResult{Stage: stage, Status: StageSuccess, DurationSeconds: round(elapsed.Seconds(), 4)}
	if err != nil {
		sr.Status = StageFailed
		sr.Error = err.Error()
		p.logger.Error("stage failed",
			zap.String("pipeline", result.PipelineID),
			zap.String("stage", stage),
			zap.Error(err))
	} else {
		p.logger.Debug("stage done",
			zap.String("pipeline", result.PipelineID),
			zap.String("stage", stage),
			zap.Duration("elapsed", elapsed))
	}
	result.Stages = append(result.Stages, sr)

	if p.recorder != nil {
		p.recorder.RecordStage(stage, sr.Status, elapsed)
	}
	AddStageTrace(p.tracer, &StageTrace{Time: time.Now(), RunID: result.PipelineID, Stage: stage, Op: "stop",
		Status: sr.Status, Duration: sr.DurationSeconds, Detail: sr.Error})
	return err
}

func (p *Pipeline) skipStage(result *PipelineResult, stage string) {
	result.Stages = append(result.Stages, StageResult{Stage: stage, Status: StageSkipped})
	if p.recorder != nil {
		p.recorder.StagesTotal.WithLabelValues(stage, string(StageSkipped)).Inc()
	}
}
