package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/gravescan/internal/browser"
	"github.com/nao1215/gravescan/internal/config"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/nao1215/gravescan/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [surname...]",
		Short: "Run the collection over saved HTML pages",
		Long: `Replay runs the same paging, parsing and filtering as scrape, but reads
result pages saved by 'gravescan scrape --dump-html' instead of driving a
browser. Snapshots are named <SURNAME>_page_<NNN>.html.

Without surnames, every surname found in the snapshot directory is replayed.
Surnames are independent, so several can be replayed at once.

Examples:
  # Replay every surname in ./snapshots
  gravescan replay --dir snapshots

  # Replay one surname with a different threshold
  gravescan replay --dir snapshots --min-birth-year 1990 MICHAEL

  # Replay four surnames at a time without touching the history
  gravescan replay --dir snapshots --concurrency 4 --no-history`,
		Args: cobra.ArbitraryArgs,
		RunE: runReplayCmd,
	}

	addRunFlags(cmd)

	cmd.Flags().String("dir", "",
		"Directory holding the saved pages (required)")
	cmd.Flags().IntP("concurrency", "n", 1,
		"Number of surnames replayed at once")

	return cmd
}

// runReplayCmd executes the replay command.
func runReplayCmd(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dir == "" {
		return errors.New("snapshot directory is required (use --dir)")
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	if len(cfg.Surnames) == 0 {
		cfg.Surnames, err = browser.SnapshotSurnames(dir)
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		if len(cfg.Surnames) == 0 {
			return fmt.Errorf("%w in %s", browser.ErrNoSnapshots, dir)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runReplay(ctx, cmd, cfg, dir, logger)
}

// runReplay collects every surname from its snapshots.
func runReplay(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dir string, logger *slog.Logger) error {
	out := &lockedWriter{w: cmd.OutOrStdout()}

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

	// Every surname gets its own replay, so runs can proceed in parallel.
	bp := pipeline.NewBatchProcessor(
		func(run *model.Run) (*pipeline.Pipeline, error) {
			surname := run.Query.Surname
			replay, err := browser.OpenReplay(dir, browser.SnapshotPattern(surname), logger)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(out, "Replaying %s (%d saved page(s))...\n", surname, replay.Len())

			sc := *perSurname[surname]
			sc.DumpHTMLDir = ""
			return newRunPipeline(replay, db, &sc, logger, prefixed(out, surname)), nil
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	processed, batchErr := bp.ProcessBatch(ctx, runs)
	fmt.Fprintf(out, "\nFinished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := writeSummary(cmd, cfg, processed); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if batchErr != nil {
		return fmt.Errorf("replay interrupted, partial results were saved: %w", batchErr)
	}
	return nil
}

// lockedWriter serializes writes from concurrent runs.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// prefixWriter starts every write with a fixed prefix.
// Each progress line is a single write.
type prefixWriter struct {
	prefix string
	w      io.Writer
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	if _, err := p.w.Write(append([]byte(p.prefix), b...)); err != nil {
		return 0, err
	}
	return len(b), nil
}

// prefixed tags progress lines with the surname.
func prefixed(w io.Writer, surname string) io.Writer {
	return &prefixWriter{prefix: "[" + surname + "] ", w: w}
}
