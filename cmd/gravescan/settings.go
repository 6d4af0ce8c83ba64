package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/gravescan/internal/config"
	applog "github.com/nao1215/gravescan/internal/log"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/nao1215/gravescan/internal/report"
	"github.com/spf13/cobra"
)

// addRunFlags registers the flags shared by scrape and replay.
func addRunFlags(cmd *cobra.Command) {
	// Collection flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of result pages visited per surname")
	cmd.Flags().IntP("min-birth-year", "y", config.DefaultMinBirthYear,
		"Drop records with a birth year below this value")

	// Export flags
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory receiving <surname>_veterans.csv files")
	cmd.Flags().Bool("xlsx", false,
		"Also write <surname>_veterans.xlsx")
	cmd.Flags().Bool("empty-note", false,
		"Write a placeholder row into exports without records")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not store runs in the history database")
	cmd.Flags().Duration("skip-recent", 0,
		"Skip surnames with a finished run younger than this duration (e.g. 24h)")

	// Summary flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to the specified file path (creates directories if needed)")
}

// loadConfig builds the configuration for a run command.
// Values are layered: defaults, config file, GRAVESCAN_* environment, then
// the flags the user actually set. Positional arguments replace the surname
// list of the file and the environment. Per-surname profiles are resolved
// later by surnameConfig, below the environment and the flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently continue without a file.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Surnames = args
	}
	cfg.Surnames = normalizeSurnames(cfg.Surnames)

	return cfg, nil
}

// applyFlags copies every flag the user set into cfg.
// Flags that the command does not define are ignored.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	noHistory := false
	err := errors.Join(
		changedBool(cmd, "verbose", &cfg.Verbose),
		changedBool(cmd, "log-json", &cfg.LogJSON),
		changedString(cmd, "db-dir", &cfg.DBDir),
		changedInt(cmd, "max-pages", &cfg.MaxPages),
		changedInt(cmd, "min-birth-year", &cfg.MinBirthYear),
		changedDuration(cmd, "page-wait-timeout", &cfg.PageWaitTimeout),
		changedDuration(cmd, "page-load-delay", &cfg.PageLoadDelay),
		changedString(cmd, "base-url", &cfg.BaseURL),
		changedString(cmd, "output-dir", &cfg.OutputDir),
		changedBool(cmd, "xlsx", &cfg.XLSX),
		changedBool(cmd, "empty-note", &cfg.EmptyNote),
		changedBool(cmd, "confirm", &cfg.Confirm),
		changedBool(cmd, "headless", &cfg.Headless),
		changedString(cmd, "browser-bin", &cfg.BrowserBin),
		changedString(cmd, "user-agent", &cfg.UserAgent),
		changedBool(cmd, "skip-check", &cfg.SkipCheck),
		changedString(cmd, "dump-html", &cfg.DumpHTMLDir),
		changedBool(cmd, "no-history", &noHistory),
		changedDuration(cmd, "skip-recent", &cfg.SkipRecent),
		changedInt(cmd, "concurrency", &cfg.Concurrency),
		changedBool(cmd, "json", &cfg.JSONReport),
		changedBool(cmd, "markdown", &cfg.MarkdownReport),
		changedString(cmd, "output", &cfg.ReportFile),
	)
	if err != nil {
		return err
	}
	if noHistory {
		cfg.SaveToDB = false
	}
	return nil
}

func changedBool(cmd *cobra.Command, name string, dst *bool) error {
	if !flagChanged(cmd, name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func changedInt(cmd *cobra.Command, name string, dst *int) error {
	if !flagChanged(cmd, name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func changedString(cmd *cobra.Command, name string, dst *string) error {
	if !flagChanged(cmd, name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func changedDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !flagChanged(cmd, name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// flagChanged reports whether the flag exists on cmd and was set by the user.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// normalizeSurnames upper-cases surnames and drops duplicates, keeping the
// first occurrence. Blank entries are kept so Validate can reject them.
func normalizeSurnames(surnames []string) []string {
	seen := make(map[string]struct{}, len(surnames))
	out := make([]string, 0, len(surnames))
	for _, s := range surnames {
		n := config.NormalizeSurname(s)
		if n != "" {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
		}
		out = append(out, n)
	}
	return out
}

// newLogger creates the secure logger selected by cfg.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogJSON {
		return applog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return applog.NewSecureLogger(w, cfg.Verbose)
}

// newRuns creates one run per surname with the surname's effective limits.
func newRuns(cmd *cobra.Command, cfg *config.Config) ([]*model.Run, map[string]*config.Config, error) {
	runs := make([]*model.Run, 0, len(cfg.Surnames))
	perSurname := make(map[string]*config.Config, len(cfg.Surnames))
	for _, surname := range cfg.Surnames {
		sc, err := surnameConfig(cmd, cfg, surname)
		if err != nil {
			return nil, nil, err
		}
		if err := sc.Validate(); err != nil {
			return nil, nil, fmt.Errorf("configuration error for %s: %w", surname, err)
		}
		perSurname[surname] = sc
		runs = append(runs, model.NewRun(surname, sc.MinBirthYear, sc.MaxPages))
	}
	return runs, perSurname, nil
}

// surnameConfig returns the configuration of one surname. The surname's
// file profile is applied first, then the environment and the flags the user
// set, so explicit settings keep precedence over profiles.
func surnameConfig(cmd *cobra.Command, cfg *config.Config, surname string) (*config.Config, error) {
	sc, err := cfg.ForSurname(surname)
	if err != nil {
		return nil, fmt.Errorf("invalid profile for %s: %w", surname, err)
	}
	if err := config.ApplyEnv(sc); err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, sc); err != nil {
		return nil, err
	}
	sc.Surnames = []string{surname}
	return sc, nil
}

// exportOptions returns the export settings of a surname's configuration.
func exportOptions(cfg *config.Config) report.ExportOptions {
	return report.ExportOptions{
		Dir:       cfg.OutputDir,
		XLSX:      cfg.XLSX,
		EmptyNote: cfg.EmptyNote,
	}
}

// writeSummary outputs the summary of runs in the requested format.
func writeSummary(cmd *cobra.Command, cfg *config.Config, runs []*model.Run) (err error) {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// The summary lists names and dates of birth; keep it owner-readable.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err = w.WriteAll(runs)
	return err
}
