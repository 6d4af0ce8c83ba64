package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/gravescan/internal/config"
	"github.com/nao1215/gravescan/internal/model"
	"github.com/spf13/cobra"
)

// parseSubcommand returns the named subcommand of a fresh root command with
// args parsed, the way cobra does before calling RunE.
func parseSubcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()

	sub, _, err := NewRootCmd().Find([]string{name})
	if err != nil {
		t.Fatalf("subcommand %s not found: %v", name, err)
	}
	if err := sub.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return sub
}

const profileConfig = `
search:
  - jones
defaults:
  max_pages: 50
  page_load_delay: 1s
surnames:
  SMITH:
    min_birth_year: 1990
    xlsx: true
`

// TestLoadConfig tests how defaults, the config file and flags are layered.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults and positional surnames", func(t *testing.T) {
		t.Parallel()

		cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, "defaults: {}\n"), " michael ", "smith", "MICHAEL")
		cfg, err := loadConfig(cmd, cmd.Flags().Args())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"MICHAEL", "SMITH"}, cfg.Surnames); diff != "" {
			t.Errorf("surnames mismatch (-want +got):\n%s", diff)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("expected max pages %d, got %d", config.DefaultMaxPages, cfg.MaxPages)
		}
		if cfg.MinBirthYear != config.DefaultMinBirthYear {
			t.Errorf("expected min birth year %d, got %d", config.DefaultMinBirthYear, cfg.MinBirthYear)
		}
		if !cfg.SaveToDB {
			t.Error("expected history to be enabled by default")
		}
	})

	t.Run("file values apply and flags win", func(t *testing.T) {
		t.Parallel()

		cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, profileConfig),
			"--max-pages", "7", "--no-history", "--skip-recent", "12h")
		cfg, err := loadConfig(cmd, cmd.Flags().Args())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxPages != 7 {
			t.Errorf("expected flag to win with 7, got %d", cfg.MaxPages)
		}
		if cfg.PageLoadDelay != time.Second {
			t.Errorf("expected page load delay from file, got %s", cfg.PageLoadDelay)
		}
		if diff := cmp.Diff([]string{"JONES"}, cfg.Surnames); diff != "" {
			t.Errorf("expected surnames from the search list (-want +got):\n%s", diff)
		}
		if cfg.SaveToDB {
			t.Error("expected --no-history to disable the history")
		}
		if cfg.SkipRecent != 12*time.Hour {
			t.Errorf("expected skip recent 12h, got %s", cfg.SkipRecent)
		}
	})

	t.Run("unset flags keep file values", func(t *testing.T) {
		t.Parallel()

		cmd := parseSubcommand(t, "replay", "-c", writeConfig(t, profileConfig), "--dir", "x")
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPages != 50 {
			t.Errorf("expected max pages 50 from file, got %d", cfg.MaxPages)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "db")
		cmd := parseSubcommand(t, "replay", "-c", writeConfig(t, ""), "-v", "--log-json", "--db-dir", dbDir, "-n", "3")
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Verbose || !cfg.LogJSON {
			t.Error("expected verbose JSON logging")
		}
		if cfg.DBDir != dbDir {
			t.Errorf("expected db dir %q, got %q", dbDir, cfg.DBDir)
		}
		if cfg.Concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", cfg.Concurrency)
		}
	})

	t.Run("explicit missing config file", func(t *testing.T) {
		t.Parallel()

		cmd := parseSubcommand(t, "scrape", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := loadConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, "defaults: [oops"))
		if _, err := loadConfig(cmd, nil); err == nil {
			t.Error("expected an error for malformed YAML")
		}
	})
}

// TestLoadConfigEnvironment cannot run in parallel because it sets
// environment variables.
func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("GRAVESCAN_MAX_PAGES", "30")
	t.Setenv("GRAVESCAN_OUTPUT_DIR", "from-env")
	t.Setenv("GRAVESCAN_MIN_BIRTH_YEAR", "1975")

	cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, profileConfig), "--output-dir", "from-flag")
	cfg, err := loadConfig(cmd, []string{"michael"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxPages != 30 {
		t.Errorf("expected environment to override the file with 30, got %d", cfg.MaxPages)
	}
	if cfg.OutputDir != "from-flag" {
		t.Errorf("expected flag to override the environment, got %q", cfg.OutputDir)
	}

	cfg.Surnames = []string{"SMITH"}
	runs, perSurname, err := newRuns(cmd, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs[0].MinBirthYear != 1975 {
		t.Errorf("expected environment to override the SMITH profile with 1975, got %d", runs[0].MinBirthYear)
	}
	if perSurname["SMITH"].OutputDir != "from-flag" {
		t.Errorf("expected flag output dir for SMITH, got %q", perSurname["SMITH"].OutputDir)
	}
}

func TestNewRuns(t *testing.T) {
	t.Parallel()

	cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, profileConfig))
	cfg, err := loadConfig(cmd, []string{"michael", "smith"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, perSurname, err := newRuns(cmd, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	if runs[0].MinBirthYear != config.DefaultMinBirthYear || runs[0].MaxPages != 50 {
		t.Errorf("unexpected MICHAEL limits: %d, %d", runs[0].MinBirthYear, runs[0].MaxPages)
	}
	if runs[1].MinBirthYear != 1990 {
		t.Errorf("expected SMITH profile threshold 1990, got %d", runs[1].MinBirthYear)
	}
	if runs[1].Query.MatchMode != model.MatchBeginsWith {
		t.Errorf("unexpected match mode %q", runs[1].Query.MatchMode)
	}
	if !perSurname["SMITH"].XLSX || perSurname["MICHAEL"].XLSX {
		t.Error("expected xlsx only for SMITH")
	}
	if got := exportOptions(perSurname["SMITH"]); got.Dir != config.DefaultOutputDir || !got.XLSX {
		t.Errorf("unexpected export options: %+v", got)
	}
}

func TestNewRunsFlagsOverrideProfiles(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	cmd := parseSubcommand(t, "scrape", "-c", writeConfig(t, profileConfig),
		"--min-birth-year", "1970", "--max-pages", "4", "--output-dir", outDir)
	cfg, err := loadConfig(cmd, []string{"smith", "michael"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, perSurname, err := newRuns(cmd, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, run := range runs {
		if run.MinBirthYear != 1970 {
			t.Errorf("%s: expected flag threshold 1970, got %d", run.Query.Surname, run.MinBirthYear)
		}
		if run.MaxPages != 4 {
			t.Errorf("%s: expected flag page limit 4, got %d", run.Query.Surname, run.MaxPages)
		}
	}

	smith := perSurname["SMITH"]
	if smith.OutputDir != outDir {
		t.Errorf("expected flag output dir %q, got %q", outDir, smith.OutputDir)
	}
	// Profile settings without a flag still apply.
	if !smith.XLSX {
		t.Error("expected xlsx from the SMITH profile")
	}
	if diff := cmp.Diff([]string{"SMITH"}, smith.Surnames); diff != "" {
		t.Errorf("surnames mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSurnames(t *testing.T) {
	t.Parallel()

	got := normalizeSurnames([]string{"smith", " Smith ", "", "o'neil"})
	want := []string{"SMITH", "", "O'NEIL"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	cfg := config.NewConfig()
	cfg.LogJSON = true
	newLogger(cfg, &sb).Warn("page failed", "page", 3)

	if !strings.HasPrefix(strings.TrimSpace(sb.String()), "{") {
		t.Errorf("expected a JSON log line, got %q", sb.String())
	}
}
