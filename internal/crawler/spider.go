package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/gravescan/internal/model"
)

// Defaults used when the caller does not override them.
const (
	// DefaultMaxPages is the page limit of one run.
	DefaultMaxPages = 100

	// DefaultMinBirthYear is the birth year threshold of the filter.
	DefaultMinBirthYear = 1980
)

// Driver is the browser collaborator of the collection loop.
//
// Design decision: The loop only talks to this interface, so the same state
// machine runs against a live browser, against saved HTML snapshots and
// against test fakes.
type Driver interface {
	// Search fills in and submits the search form, then waits for results.
	Search(ctx context.Context, query model.Query) error

	// PageHTML returns the HTML of the current results page.
	PageHTML(ctx context.Context) (string, error)

	// HasNextPage reports whether an enabled, visible "Next" control exists.
	HasNextPage(ctx context.Context) (bool, error)

	// Advance activates the "Next" control. It returns true when the click
	// happened, even if the results did not reappear within the timeout.
	Advance(ctx context.Context) (bool, error)
}

// Progress is reported after each parsed page.
type Progress struct {
	// Page is the 1-based page number.
	Page int

	// Groups is the number of record groups found on the page.
	Groups int

	// Matched is the number of records the page contributed.
	Matched int

	// Total is the cumulative number of records.
	Total int

	// Summary is the site's results summary text, if any.
	Summary string
}

// ProgressFunc receives per-page progress.
type ProgressFunc func(Progress)

// ConfirmFunc is asked before the search is submitted.
// Returning false aborts the run.
type ConfirmFunc func(query model.Query) bool

// PageFunc receives the raw HTML of every counted page.
type PageFunc func(page int, content string)

// Result is the accumulator of one collection.
type Result struct {
	// State is the terminal state of the loop.
	State model.RunState

	// PagesVisited is the number of pages counted.
	PagesVisited int

	// Pages holds per-page statistics.
	Pages []model.PageStat

	// Records holds the qualifying records in insertion order.
	Records []model.PersonRecord
}

// Spider runs the search, paginate, parse and filter loop for one query.
type Spider struct {
	driver   Driver
	parser   *Parser
	filter   Filter
	maxPages int
	delay    time.Duration
	confirm  ConfirmFunc
	progress ProgressFunc
	onPage   PageFunc
	logger   *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the page limit. Values below 1 are ignored.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithMinBirthYear sets the filter threshold.
func WithMinBirthYear(year int) SpiderOption {
	return func(s *Spider) {
		s.filter.MinBirthYear = year
	}
}

// WithDelay sets the pause between two pages.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithConfirm sets the callback asked before submitting the search.
func WithConfirm(fn ConfirmFunc) SpiderOption {
	return func(s *Spider) {
		s.confirm = fn
	}
}

// WithProgress sets the per-page progress callback.
func WithProgress(fn ProgressFunc) SpiderOption {
	return func(s *Spider) {
		s.progress = fn
	}
}

// WithPageHook sets a callback receiving the HTML of every counted page.
func WithPageHook(fn PageFunc) SpiderOption {
	return func(s *Spider) {
		s.onPage = fn
	}
}

// WithParser replaces the default page parser.
func WithParser(p *Parser) SpiderOption {
	return func(s *Spider) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider driving the given Driver.
func NewSpider(driver Driver, opts ...SpiderOption) *Spider {
	s := &Spider{
		driver:   driver,
		parser:   NewParser(),
		filter:   Filter{MinBirthYear: DefaultMinBirthYear},
		maxPages: DefaultMaxPages,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collect runs the state machine SEARCHING -> PAGING -> DONE | ABORTED | INTERRUPTED.
//
// The returned Result is never nil and holds every record collected so far,
// also when an error is returned. A failed or declined search ends in
// ABORTED with an error wrapping ErrSearchSubmission. Parse and pagination
// problems are logged and end the page or the loop without an error.
// Cancelling ctx stops the loop between pages, ends in INTERRUPTED and
// returns ctx.Err().
func (s *Spider) Collect(ctx context.Context, query model.Query) (*Result, error) {
	res := &Result{
		State:   model.StateSearching,
		Pages:   make([]model.PageStat, 0),
		Records: make([]model.PersonRecord, 0),
	}
	log := s.logger.With("surname", query.Surname)

	if s.confirm != nil && !s.confirm(query) {
		res.State = model.StateAborted
		return res, fmt.Errorf("%w: search for %q declined", ErrSearchSubmission, query.Surname)
	}
	if err := ctx.Err(); err != nil {
		res.State = model.StateAborted
		return res, err
	}

	log.Debug("submitting search", "match_mode", query.MatchMode)
	if err := s.driver.Search(ctx, query); err != nil {
		res.State = model.StateAborted
		return res, fmt.Errorf("%w: %w", ErrSearchSubmission, err)
	}
	res.State = model.StatePaging

	prevHash := ""
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			res.State = model.StateInterrupted
			return res, err
		}

		stat, parsed, content := s.readPage(ctx, log, page)
		if stat.Hash != "" && stat.Hash == prevHash {
			log.Info("page did not change after advancing, stopping", "page", page)
			break
		}
		prevHash = stat.Hash

		records := s.filter.Apply(parsed.Groups)
		stat.Matched = len(records)
		res.Records = append(res.Records, records...)
		res.Pages = append(res.Pages, stat)
		res.PagesVisited++

		if s.onPage != nil && content != "" {
			s.onPage(page, content)
		}
		if s.progress != nil {
			s.progress(Progress{
				Page:    page,
				Groups:  stat.Groups,
				Matched: stat.Matched,
				Total:   len(res.Records),
				Summary: parsed.Summary,
			})
		}

		if page >= s.maxPages {
			log.Debug("page limit reached", "max_pages", s.maxPages)
			break
		}

		hasNext, err := s.driver.HasNextPage(ctx)
		if err != nil {
			log.Warn("next page detection failed", "page", page, "error", err)
			hasNext = false
		}
		if !hasNext {
			log.Debug("no next page", "page", page)
			break
		}

		if err := s.wait(ctx); err != nil {
			res.State = model.StateInterrupted
			return res, err
		}

		advanced, err := s.driver.Advance(ctx)
		if err != nil {
			log.Warn("advancing to next page failed", "page", page, "error", err)
			break
		}
		if !advanced {
			break
		}
	}

	res.State = model.StateDone
	return res, nil
}

// readPage fetches and parses the current page.
// Failures are logged and produce an empty page.
func (s *Spider) readPage(ctx context.Context, log *slog.Logger, page int) (model.PageStat, *model.ResultsPage, string) {
	stat := model.PageStat{Number: page}
	empty := &model.ResultsPage{Number: page}

	content, err := s.driver.PageHTML(ctx)
	if err != nil {
		stat.ParseError = fmt.Errorf("%w: %w", ErrPageParse, err).Error()
		log.Warn("could not read page", "page", page, "error", err)
		return stat, empty, ""
	}

	parsed, err := s.parser.ParseString(content)
	if err != nil {
		stat.ParseError = err.Error()
		log.Warn("could not parse page", "page", page, "error", err)
		return stat, empty, content
	}

	parsed.Number = page
	stat.Groups = len(parsed.Groups)
	stat.Hash = parsed.Hash
	if parsed.Summary != "" {
		log.Info("results summary", "page", page, "summary", parsed.Summary)
	}
	return stat, parsed, content
}

// wait sleeps for the politeness delay unless ctx is cancelled first.
func (s *Spider) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
