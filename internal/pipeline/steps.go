package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/gravescan/internal/crawler"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/nao1215/gravescan/internal/report"
)

// CollectStep runs the collection loop for the run's query and copies the
// accumulator into the run.
//
// Design decision: The step builds a fresh Spider per run from the run's own
// limits, so one driver can serve several surnames one after another.
type CollectStep struct {
	// driver is the browser collaborator (live session or replay).
	driver crawler.Driver

	// delay between pages.
	delay time.Duration

	// spiderOpts are passed through to the Spider.
	spiderOpts []crawler.SpiderOption

	// logger for structured logging.
	logger *slog.Logger
}

// CollectStepOption configures a CollectStep.
type CollectStepOption func(*CollectStep)

// WithCollectDelay sets the pause between two pages.
func WithCollectDelay(d time.Duration) CollectStepOption {
	return func(s *CollectStep) {
		s.delay = d
	}
}

// WithSpiderOptions adds options (progress, confirmation, page hooks) to the
// Spider built for every run.
func WithSpiderOptions(opts ...crawler.SpiderOption) CollectStepOption {
	return func(s *CollectStep) {
		s.spiderOpts = append(s.spiderOpts, opts...)
	}
}

// WithCollectLogger sets a custom logger for the collect step.
func WithCollectLogger(logger *slog.Logger) CollectStepOption {
	return func(s *CollectStep) {
		s.logger = logger
	}
}

// NewCollectStep creates a new collect step on top of driver.
func NewCollectStep(driver crawler.Driver, opts ...CollectStepOption) *CollectStep {
	s := &CollectStep{
		driver: driver,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CollectStep) Name() string {
	return "collect"
}

// Do executes the collection loop. The run receives whatever was collected,
// also when the loop ends with an error.
func (s *CollectStep) Do(ctx context.Context, run *model.Run) error {
	opts := make([]crawler.SpiderOption, 0, len(s.spiderOpts)+4)
	opts = append(opts,
		crawler.WithMaxPages(run.MaxPages),
		crawler.WithMinBirthYear(run.MinBirthYear),
		crawler.WithDelay(s.delay),
		crawler.WithLogger(s.logger),
	)
	opts = append(opts, s.spiderOpts...)

	run.State = model.StateSearching
	res, err := crawler.NewSpider(s.driver, opts...).Collect(ctx, run.Query)

	run.State = res.State
	run.PagesVisited = res.PagesVisited
	run.Pages = res.Pages
	run.Records = res.Records
	run.FinishedAt = time.Now()

	if err != nil {
		if errors.Is(err, crawler.ErrSearchSubmission) {
			s.logger.Warn("search failed, nothing collected", "surname", run.Query.Surname, "error", err)
		}
		return err
	}

	s.logger.Info("collection completed",
		"surname", run.Query.Surname,
		"pages_visited", run.PagesVisited,
		"records", len(run.Records),
	)
	return nil
}

// ExportStep writes the run's records to CSV (and optionally XLSX) files.
// It runs after cancellation so partial results reach the disk.
type ExportStep struct {
	opts   report.ExportOptions
	logger *slog.Logger
}

// NewExportStep creates a new export step.
func NewExportStep(opts report.ExportOptions, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{opts: opts, logger: logger}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Final reports that the export runs after cancellation.
func (s *ExportStep) Final() bool {
	return true
}

// Do writes the export files and records their paths on the run.
func (s *ExportStep) Do(_ context.Context, run *model.Run) error {
	paths, err := report.Export(run, s.opts)
	run.OutputFiles = append(run.OutputFiles, paths...)
	if err != nil {
		return err
	}
	for _, path := range paths {
		s.logger.Info("records exported", "surname", run.Query.Surname, "path", path)
	}
	return nil
}

// RunStore persists finished runs. It is satisfied by *database.HistoryDB.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run) error
}

// PersistStep stores the run in the history database.
// It runs after cancellation so interrupted runs are recorded too.
type PersistStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewPersistStep creates a new persist step.
func NewPersistStep(store RunStore, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Final reports that persisting runs after cancellation.
func (s *PersistStep) Final() bool {
	return true
}

// Do saves the run.
func (s *PersistStep) Do(ctx context.Context, run *model.Run) error {
	if err := s.store.SaveRun(ctx, run); err != nil {
		return err
	}
	s.logger.Debug("run stored", "surname", run.Query.Surname, "run_id", run.ID)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// PageDelay is the pause between two result pages.
	PageDelay time.Duration

	// Export controls the export files. An empty Dir disables the export.
	Export report.ExportOptions

	// Store receives finished runs. Nil disables persistence.
	Store RunStore

	// SpiderOptions are passed to every Spider.
	SpiderOptions []crawler.SpiderOption
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelinePageDelay sets the pause between result pages.
func WithPipelinePageDelay(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.PageDelay = d
	}
}

// WithPipelineExport enables the export step.
func WithPipelineExport(opts report.ExportOptions) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Export = opts
	}
}

// WithPipelineStore enables the persist step.
func WithPipelineStore(store RunStore) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Store = store
	}
}

// WithPipelineSpiderOptions adds Spider options.
func WithPipelineSpiderOptions(opts ...crawler.SpiderOption) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SpiderOptions = append(c.SpiderOptions, opts...)
	}
}

// DefaultPipeline creates the collect, export and persist pipeline.
//
// Design decision: The pipeline always continues on error. A failed search
// still produces an export file and a history entry, which is how the user
// learns that a surname was attempted.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineExport, etc).
func DefaultPipeline(driver crawler.Driver, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(append([]Option{WithContinueOnError(true)}, pipelineOpts...)...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewCollectStep(driver,
		WithCollectDelay(cfg.PageDelay),
		WithSpiderOptions(cfg.SpiderOptions...),
		WithCollectLogger(p.logger),
	))
	if cfg.Export.Dir != "" {
		p.AddStep(NewExportStep(cfg.Export, p.logger))
	}
	if cfg.Store != nil {
		p.AddStep(NewPersistStep(cfg.Store, p.logger))
	}

	return p
}
