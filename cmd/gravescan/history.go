package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/gravescan/internal/database"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/nao1215/gravescan/internal/report"
	"github.com/spf13/cobra"
)

// historyTimeLayout is how run start times are printed.
const historyTimeLayout = "2006-01-02 15:04"

// NewHistoryCmd creates the history command and its subcommands.
// It reads the run history database written by scrape and replay.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and compare stored runs",
		Long: `History reads the runs stored by 'gravescan scrape' and 'gravescan replay'.

Examples:
  # List every surname with stored runs
  gravescan history surnames

  # List the runs of a surname, newest first
  gravescan history list MICHAEL

  # Show a run with all of its records
  gravescan history show 0b9e4c7e-5d43-4a8e-9f0e-2f6a3f1d8c11

  # Records added and removed since the previous run
  gravescan history diff MICHAEL

  # Compare two specific runs as JSON
  gravescan history diff --from <run-id> --to <run-id> --json`,
	}

	cmd.AddCommand(newHistorySurnamesCmd())
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDiffCmd())

	return cmd
}

func newHistorySurnamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surnames",
		Short: "List surnames with stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(cmd, func(ctx context.Context, db *database.HistoryDB) error {
				return listSurnames(ctx, cmd.OutOrStdout(), db)
			})
		},
	}
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [surname]",
		Short: "List stored runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			surname := ""
			if len(args) == 1 {
				surname = normalizeSurnames(args)[0]
			}
			return withHistory(cmd, func(ctx context.Context, db *database.HistoryDB) error {
				return listRuns(ctx, cmd.OutOrStdout(), db, surname)
			})
		},
	}
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			markdownOutput, err := cmd.Flags().GetBool("markdown")
			if err != nil {
				return err
			}
			if jsonOutput && markdownOutput {
				return errors.New("--json and --markdown cannot be used together")
			}

			return withHistory(cmd, func(ctx context.Context, db *database.HistoryDB) error {
				run, err := db.GetRun(ctx, args[0])
				if err != nil {
					return historyLookupError(err, args[0])
				}
				return showRun(cmd.OutOrStdout(), run, jsonOutput, markdownOutput)
			})
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output the run as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output the run as Markdown")

	return cmd
}

func newHistoryDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [surname]",
		Short: "Compare the two latest runs of a surname, or two given runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cmd.Flags().GetString("from")
			if err != nil {
				return err
			}
			to, err := cmd.Flags().GetString("to")
			if err != nil {
				return err
			}
			jsonOutput, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			explicit := from != "" || to != ""
			switch {
			case explicit && (from == "" || to == ""):
				return errors.New("--from and --to must be used together")
			case explicit && len(args) > 0:
				return errors.New("give either a surname or --from/--to, not both")
			case !explicit && len(args) == 0:
				return errors.New("surname is required (or use --from and --to)")
			}

			return withHistory(cmd, func(ctx context.Context, db *database.HistoryDB) error {
				var cmp *model.Comparison
				if explicit {
					cmp, err = db.Compare(ctx, from, to)
					if err != nil {
						return historyLookupError(err, from+" or "+to)
					}
				} else {
					surname := normalizeSurnames(args)[0]
					cmp, err = db.CompareLatest(ctx, surname)
					if errors.Is(err, database.ErrNotFound) {
						return fmt.Errorf("at least two stored runs are needed to compare %s (use 'gravescan history list %s')", surname, surname)
					}
					if err != nil {
						return err
					}
				}
				return showComparison(cmd.OutOrStdout(), cmp, jsonOutput)
			})
		},
	}

	cmd.Flags().String("from", "", "ID of the earlier run")
	cmd.Flags().String("to", "", "ID of the later run")
	cmd.Flags().BoolP("json", "j", false, "Output the comparison as JSON")

	return cmd
}

// withHistory opens the history database for the duration of fn.
func withHistory(cmd *cobra.Command, fn func(ctx context.Context, db *database.HistoryDB) error) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	return fn(cmd.Context(), db)
}

// historyLookupError turns ErrNotFound into a message naming the run.
func historyLookupError(err error, id string) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("run not found: %s (use 'gravescan history list' to see stored runs)", id)
	}
	return err
}

// listSurnames prints every surname with stored runs.
func listSurnames(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	surnames, err := db.ListSurnames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list surnames: %w", err)
	}

	if len(surnames) == 0 {
		fmt.Fprintln(out, "No stored runs found.")
		fmt.Fprintln(out, "\nUse 'gravescan scrape <surname>' to collect records.")
		return nil
	}

	fmt.Fprintf(out, "Surnames (%d):\n\n", len(surnames))
	for _, surname := range surnames {
		fmt.Fprintf(out, "  • %s\n", surname)
	}
	fmt.Fprintln(out, "\nUse 'gravescan history list <surname>' to see its runs.")
	return nil
}

// listRuns prints the stored runs of surname, or of every surname.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, surname string) error {
	runs, err := db.ListRuns(ctx, surname)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if surname == "" {
			fmt.Fprintln(out, "No stored runs found.")
		} else {
			fmt.Fprintf(out, "No stored runs found for %s.\n", surname)
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Surname", "Started", "State", "Pages", "Records", "Born >="})
	for _, meta := range runs {
		t.AppendRow(table.Row{
			meta.ID,
			meta.Surname,
			meta.StartedAt.Local().Format(historyTimeLayout),
			meta.State.String(),
			meta.PagesVisited,
			meta.RecordCount,
			meta.MinBirthYear,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.Render()
	return nil
}

// showRun prints a stored run with all of its records.
func showRun(out io.Writer, run *model.Run, jsonOutput, markdownOutput bool) error {
	switch {
	case jsonOutput:
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion())).Write(run)
		return err
	case markdownOutput:
		_, err := report.NewMarkdownWriter(out, report.WithAllRecords(true)).Write(run)
		return err
	}

	if _, err := report.NewSimpleWriter(out, report.WithShowEmpty(true)).Write(run); err != nil {
		return err
	}
	if len(run.Records) <= model.PreviewSize {
		return nil
	}

	fmt.Fprintln(out, "All records:")
	writeRecordTable(out, run.Records)
	return nil
}

// showComparison prints the records added and removed between two runs.
func showComparison(out io.Writer, cmp *model.Comparison, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}

	fmt.Fprintf(out, "Comparing runs of %s\n", cmp.Surname)
	fmt.Fprintf(out, "  previous: %s  %s  %d record(s)\n",
		cmp.Previous.ID, cmp.Previous.StartedAt.Local().Format(historyTimeLayout), cmp.Previous.RecordCount)
	fmt.Fprintf(out, "  current:  %s  %s  %d record(s)\n\n",
		cmp.Current.ID, cmp.Current.StartedAt.Local().Format(historyTimeLayout), cmp.Current.RecordCount)

	if cmp.Previous.MinBirthYear != cmp.Current.MinBirthYear {
		fmt.Fprintf(out, "Note: the runs used different birth year thresholds (%d and %d).\n\n",
			cmp.Previous.MinBirthYear, cmp.Current.MinBirthYear)
	}

	if !cmp.HasChanges() {
		fmt.Fprintf(out, "No changes: %d record(s) in both runs.\n", cmp.UnchangedCount)
		return nil
	}

	if len(cmp.Added) > 0 {
		fmt.Fprintf(out, "Added (%d):\n", len(cmp.Added))
		writeRecordTable(out, cmp.Added)
	}
	if len(cmp.Removed) > 0 {
		fmt.Fprintf(out, "Removed (%d):\n", len(cmp.Removed))
		writeRecordTable(out, cmp.Removed)
	}
	fmt.Fprintf(out, "Unchanged: %d record(s)\n", cmp.UnchangedCount)
	return nil
}

// writeRecordTable renders records as a terminal table.
func writeRecordTable(out io.Writer, records []model.PersonRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "Rank & Branch", "Date of Birth", "Year"})
	for i, rec := range records {
		t.AppendRow(table.Row{i + 1, rec.FullName, rec.RankBranch, rec.DateOfBirth, rec.BirthYear})
	}
	t.Render()
	fmt.Fprintln(out)
}
