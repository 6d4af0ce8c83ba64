package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/gravescan/internal/browser"
	"github.com/nao1215/gravescan/internal/config"
	"github.com/nao1215/gravescan/internal/crawler"
	"github.com/nao1215/gravescan/internal/database"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/nao1215/gravescan/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [surname...]",
		Short: "Search the locator and export records by surname",
		Long: `Scrape opens the Nationwide Gravesite Locator in a browser, searches for
last names beginning with each surname and pages through the results.

Records whose date of birth falls in or after the threshold year are written
to <output-dir>/<SURNAME>_veterans.csv. An interrupted run (Ctrl+C) still
writes the records collected so far.

Examples:
  # Search one surname with the defaults (100 pages, born 1980 or later)
  gravescan scrape MICHAEL

  # Several surnames, a lower threshold and a spreadsheet copy
  gravescan scrape --min-birth-year 1970 --xlsx SMITH GARCIA

  # Watch the browser and confirm each search
  gravescan scrape --headless=false --confirm MICHAEL

  # Keep the HTML of every page for later 'gravescan replay'
  gravescan scrape --dump-html snapshots MICHAEL

  # Write a Markdown summary
  gravescan scrape -m -o reports/michael.md MICHAEL`,
		Args: cobra.ArbitraryArgs,
		RunE: runScrapeCmd,
	}

	addRunFlags(cmd)

	// Site and browser flags
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Locator search page")
	cmd.Flags().DurationP("page-wait-timeout", "t", config.DefaultPageWaitTimeout,
		"Maximum wait for the form or the result table")
	cmd.Flags().Duration("page-load-delay", config.DefaultPageLoadDelay,
		"Pause after submitting the search and after each page change")
	cmd.Flags().Bool("headless", true,
		"Run the browser without a window")
	cmd.Flags().String("browser-bin", "",
		"Browser executable (default: detect or download Chromium)")
	cmd.Flags().String("user-agent", "",
		"Override the browser User-Agent")
	cmd.Flags().Bool("skip-check", false,
		"Skip the reachability check before launching the browser")

	// Interaction flags
	cmd.Flags().Bool("confirm", false,
		"Ask for confirmation before each search")
	cmd.Flags().String("dump-html", "",
		"Save the HTML of every visited page into this directory")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	// SIGINT/SIGTERM cancel collection; export and history still run.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cmd, cfg, logger)
}

// runScrape collects every surname with one browser session.
func runScrape(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	runs, perSurname, err := newRuns(cmd, cfg)
	if err != nil {
		return err
	}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	runs, err = skipRecent(ctx, out, db, runs, cfg.SkipRecent)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "Nothing to do: every surname has a recent run.")
		return nil
	}

	if !cfg.SkipCheck {
		if err := preflight(ctx, out, cfg); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "Launching browser...")
	session, err := browser.Launch(ctx, browser.Options{
		BaseURL:      cfg.BaseURL,
		Bin:          cfg.BrowserBin,
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		PageTimeout:  cfg.PageWaitTimeout,
		SettleDelay:  cfg.PageLoadDelay,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	confirm := newConfirmPrompt(cmd.InOrStdin(), out)

	// One browser tab serves every surname, so runs are strictly sequential.
	bp := pipeline.NewBatchProcessor(
		func(run *model.Run) (*pipeline.Pipeline, error) {
			sc := perSurname[run.Query.Surname]
			session.SetTiming(sc.PageWaitTimeout, sc.PageLoadDelay)
			fmt.Fprintf(out, "\nSearching %s (born %d or later, up to %d pages)...\n",
				run.Query.Surname, run.MinBirthYear, run.MaxPages)

			var spiderOpts []crawler.SpiderOption
			if sc.Confirm {
				spiderOpts = append(spiderOpts, crawler.WithConfirm(confirm))
			}
			return newRunPipeline(session, db, sc, logger, out, spiderOpts...), nil
		},
		pipeline.WithConcurrency(1),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	processed, batchErr := bp.ProcessBatch(ctx, runs)
	fmt.Fprintf(out, "\nFinished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeSummary(cmd, cfg, processed); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if batchErr != nil {
		return fmt.Errorf("scrape interrupted, partial results were saved: %w", batchErr)
	}
	return nil
}

// newRunPipeline assembles collect, export and persist for one surname.
// driver is a live browser session or a replay.
func newRunPipeline(
	driver crawler.Driver,
	db *database.HistoryDB,
	sc *config.Config,
	logger *slog.Logger,
	progressOut io.Writer,
	extra ...crawler.SpiderOption,
) *pipeline.Pipeline {
	spiderOpts := []crawler.SpiderOption{
		crawler.WithProgress(func(p crawler.Progress) {
			fmt.Fprintf(progressOut, "Page %d: %d matching record(s), total %d\n", p.Page, p.Matched, p.Total)
		}),
	}
	if sc.DumpHTMLDir != "" {
		dir := sc.DumpHTMLDir
		surname := sc.Surnames[0]
		spiderOpts = append(spiderOpts, crawler.WithPageHook(func(page int, content string) {
			path, err := browser.SaveSnapshot(dir, surname, page, content)
			if err != nil {
				logger.Warn("could not save page snapshot", "page", page, "error", err)
				return
			}
			logger.Debug("page snapshot saved", "path", path)
		}))
	}
	spiderOpts = append(spiderOpts, extra...)

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineExport(exportOptions(sc)),
		pipeline.WithPipelineSpiderOptions(spiderOpts...),
	}
	if db != nil && sc.SaveToDB {
		configOpts = append(configOpts, pipeline.WithPipelineStore(db))
	}

	return pipeline.DefaultPipeline(driver, []pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)
}

// preflight checks that the locator answers before the browser is started.
func preflight(ctx context.Context, out io.Writer, cfg *config.Config) error {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	fmt.Fprintf(out, "Checking %s...\n", cfg.BaseURL)
	status := browser.CheckSite(ctx, cfg.BaseURL, cfg.PageWaitTimeout, userAgent)
	if err := status.Error(); err != nil {
		return fmt.Errorf("%w: %s (use --skip-check to launch the browser anyway)", err, cfg.BaseURL)
	}
	return nil
}

// openHistory opens the history database when the run needs it.
// It returns nil when history is disabled and no skip check is requested.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB && cfg.SkipRecent == 0 {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	logger.Debug("history database opened", "path", db.Path())
	return db, nil
}

// skipRecent drops runs whose surname has a finished run younger than d.
func skipRecent(ctx context.Context, out io.Writer, db *database.HistoryDB, runs []*model.Run, d time.Duration) ([]*model.Run, error) {
	if db == nil || d <= 0 {
		return runs, nil
	}
	kept := make([]*model.Run, 0, len(runs))
	for _, run := range runs {
		recent, err := db.HasRecentRun(ctx, run.Query.Surname, d)
		if err != nil {
			return nil, fmt.Errorf("failed to check history for %s: %w", run.Query.Surname, err)
		}
		if recent {
			fmt.Fprintf(out, "Skipping %s: finished run within the last %s\n", run.Query.Surname, d)
			continue
		}
		kept = append(kept, run)
	}
	return kept, nil
}

// newConfirmPrompt returns a confirmation callback reading answers from in.
// An empty answer or one starting with "y" confirms; end of input declines.
func newConfirmPrompt(in io.Reader, out io.Writer) crawler.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(query model.Query) bool {
		fmt.Fprintf(out, "Search for last names beginning with %q? [Y/n]: ", query.Surname)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "" || strings.HasPrefix(answer, "y")
	}
}
