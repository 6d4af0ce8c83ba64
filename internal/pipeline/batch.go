package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/gravescan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Factory builds the pipeline for one run. Returning an error marks the run
// as failed without executing anything.
type Factory func(run *model.Run) (*Pipeline, error)

// BatchProcessor handles processing of several surnames.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on a single surname
// 2. A live browser session is driven one surname at a time (concurrency 1)
// 3. Replays read independent snapshot files and can run in parallel
type BatchProcessor struct {
	// factory creates a new pipeline for each run.
	// We use a factory so every run gets its own driver and step state.
	factory Factory

	// concurrency is the maximum number of runs processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores processed runs in input order.
	// Access is synchronized via mutex.
	results []*model.Run
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Default is 1 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: 1,
		results:     make([]*model.Run, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch executes a pipeline for every run.
// It respects the configured concurrency limit and context cancellation.
//
// A failing run does not stop the others; its error is recorded on the run.
// Runs that were never started because ctx was cancelled are not included.
// The returned error is ctx.Err() when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, runs []*model.Run) ([]*model.Run, error) {
	bp.logger.Info("starting batch processing",
		"total_surnames", len(runs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.Run, len(runs))

	err := bp.process(ctx, runs, func(run *model.Run, index int) {
		bp.mu.Lock()
		results[index] = run
		bp.mu.Unlock()
	})

	bp.mu.Lock()
	bp.results = make([]*model.Run, 0, len(runs))
	for _, run := range results {
		if run != nil {
			bp.results = append(bp.results, run)
		}
	}
	out := bp.results
	bp.mu.Unlock()

	bp.logger.Info("batch processing complete",
		"total_surnames", len(runs),
		"processed", len(out),
		"elapsed", time.Since(startTime),
	)

	return out, err
}

// ProcessBatchWithCallback executes a pipeline for every run and calls
// callback as soon as a run completes. The callback is called from the
// goroutine that processed the run, so it must be safe for concurrent use
// when the concurrency is greater than one.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	runs []*model.Run,
	callback func(run *model.Run, index int),
) error {
	return bp.process(ctx, runs, callback)
}

func (bp *BatchProcessor) process(ctx context.Context, runs []*model.Run, done func(run *model.Run, index int)) error {
	// Runs never return errors to the group. Only the caller cancels.
	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, run := range runs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			bp.logger.Info("processing surname",
				"surname", run.Query.Surname,
				"index", i+1,
				"total", len(runs),
			)

			p, err := bp.factory(run)
			if err != nil {
				run.SetError(err)
				bp.logger.Warn("pipeline setup failed",
					"surname", run.Query.Surname,
					"error", err,
				)
				done(run, i)
				return nil
			}

			if err := p.Execute(ctx, run); err != nil {
				bp.logger.Warn("surname processing failed",
					"surname", run.Query.Surname,
					"error", err,
				)
			}
			done(run, i)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors
	return ctx.Err()
}
