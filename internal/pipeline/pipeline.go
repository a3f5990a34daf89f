package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/prodcheck/internal/model"
)

// Step is one stage of a validation run. Each step sees the run as left by
// the steps before it.
type Step interface {
	// Do performs the stage on run. Validation findings are recorded as
	// defects on the run; an error means the stage itself could not complete.
	Do(ctx context.Context, run *model.Run) error

	// Name identifies the step in logs and in Run.PerformedSteps.
	Name() string
}

// Pipeline runs its steps in order against a single run.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps later steps running after a failed one.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError lets the remaining steps run after a step fails.
// The failure is still logged and stored in Run.Error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New returns an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against run and sets run.Duration when done.
//
// ctx is checked between steps; a step in progress has to honor it itself.
// A cancelled ctx always stops the pipeline and its error is returned. A
// failed step stops the pipeline unless continue-on-error is set.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	defer func() {
		run.Duration = time.Since(run.StartedAt)
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled before step",
				"step", step.Name(),
				"run", run.ID,
				"reason", err,
			)
			run.Error = err.Error()
			return err
		}

		if err := p.runStep(ctx, step, run); err != nil && !p.continueOnError {
			return err
		}
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return nil
}

// runStep executes one step and records its failure on run.
func (p *Pipeline) runStep(ctx context.Context, step Step, run *model.Run) error {
	p.logger.Info("running step", "step", step.Name(), "run", run.ID, "source", run.Source)

	if err := step.Do(ctx, run); err != nil {
		p.logger.Error("step failed", "step", step.Name(), "run", run.ID, "error", err)
		run.Error = err.Error()
		return err
	}

	p.logger.Debug("step done", "step", step.Name(), "run", run.ID)
	return nil
}

// Run executes the pipeline on a new run of kind. The run is returned even
// when execution fails, so partial results can still be reported.
func (p *Pipeline) Run(ctx context.Context, kind model.RunKind, source string) (*model.Run, error) {
	run := model.NewRun(kind, source)
	err := p.Execute(ctx, run)
	return run, err
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
