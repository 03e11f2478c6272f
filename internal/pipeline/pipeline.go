// Package pipeline runs one statement through staging, normalization and
// the two insight steps, reporting progress along the way.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/finance-insights/internal/gcs"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/google/uuid"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure, which
// is returned as a *StageError. Resources held by the state are released on
// every exit path. A failed run keeps no analysis or recommendations.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	defer func() {
		if err := state.Release(); err != nil {
			log.Warn().Err(err).Msg("Failed to release run resources")
		}
	}()

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StageError{Step: i + 1, Stage: step.Name(), Err: err}
		}

		start := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			state.Analysis = ""
			state.Recommendations = ""
			return &StageError{Step: i + 1, Stage: step.Name(), Err: err}
		}
		log.Debug().Str("step", step.Name()).Dur("took", time.Since(start)).Msg("Pipeline step done")
	}

	state.report(StageComplete, 100, "Analysis complete")
	return nil
}

// Options configures the steps of a statement analysis pipeline.
type Options struct {
	Normalizer Normalizer
	Generator  InsightGenerator
	Fetcher    gcs.Fetcher // optional, enables gs:// sources
	TempDir    string
	MaxBytes   int64
}

// NewStatementAnalysisPipeline creates the standard 6-step pipeline.
func NewStatementAnalysisPipeline(opts Options) *Pipeline {
	return NewPipeline(
		&StageFileStep{TempDir: opts.TempDir, MaxBytes: opts.MaxBytes, Fetcher: opts.Fetcher},
		&DetectFormatStep{},
		&NormalizeStep{Normalizer: opts.Normalizer},
		&SerializeStep{},
		&AnalyzeStep{Generator: opts.Generator},
		&RecommendStep{Generator: opts.Generator},
	)
}

// Runner executes the analysis pipeline once per statement.
type Runner struct {
	pipeline *Pipeline
}

// NewRunner creates a Runner over the standard pipeline.
func NewRunner(opts Options) *Runner {
	return &Runner{pipeline: NewStatementAnalysisPipeline(opts)}
}

// Run analyzes one statement. Progress events go to onProgress, which may
// be nil. The returned state is complete only when err is nil.
func (r *Runner) Run(ctx context.Context, src Source, onProgress func(Progress)) (*PipelineState, error) {
	state := &PipelineState{
		RunID:      uuid.NewString(),
		Source:     src,
		OnProgress: onProgress,
	}

	log := logger.FromContext(ctx).With().Str("run_id", state.RunID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("filename", src.Filename).Str("gcs_uri", src.GCSURI).Msg("Statement analysis started")
	start := time.Now()

	if err := r.pipeline.Execute(ctx, state); err != nil {
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("Statement analysis failed")
		return state, err
	}

	log.Info().Int("transactions", len(state.Transactions)).Dur("took", time.Since(start)).Msg("Statement analysis finished")
	return state, nil
}
