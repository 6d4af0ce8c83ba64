package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/gravescan/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the run filled
// in by previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It lets a step declare that it must run even after cancellation
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the run to modify.
	// Returns an error if the step fails; the error is recorded on the run.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// FinalStep is a Step that still runs when the context has been cancelled,
// e.g. writing out the records collected before an interrupt.
// Such steps receive a context that is detached from the cancellation.
type FinalStep interface {
	Step

	// Final reports whether the step runs after cancellation.
	Final() bool
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, a default logger is created.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the run, but subsequent steps still execute.
//
// Design decision: A run whose search failed still has to write its (empty)
// export file and be stored in the history, so the CLI enables this. The
// default is to stop on error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Once ctx is cancelled, only steps implementing FinalStep still run, with
// a context that is no longer cancelled. Execute then returns ctx.Err().
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in the run).
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	var cancelled error

	for _, step := range p.steps {
		stepCtx := ctx
		if err := ctx.Err(); err != nil {
			if !isFinal(step) {
				p.logger.Warn("step skipped after cancellation",
					"step", step.Name(),
					"reason", err,
				)
				cancelled = err
				continue
			}
			stepCtx = context.WithoutCancel(ctx)
			cancelled = err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"surname", run.Query.Surname,
		)

		if err := step.Do(stepCtx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"surname", run.Query.Surname,
				"error", err,
			)

			run.SetError(err)

			if !p.continueOnError && ctx.Err() == nil {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"surname", run.Query.Surname,
			)
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	if cancelled == nil {
		cancelled = ctx.Err()
	}
	return cancelled
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

func isFinal(step Step) bool {
	f, ok := step.(FinalStep)
	return ok && f.Final()
}
