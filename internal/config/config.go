package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/gravescan/internal/model"
)

// Default configuration values.
// Timing defaults mirror what the locator needs in practice: its result table
// is rendered by scripts after the form post, so waits are generous.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "gravescan"

	// DefaultBaseURL is the Nationwide Gravesite Locator search page.
	DefaultBaseURL = "https://gravelocator.cem.va.gov/ngl"

	// DefaultMaxPages bounds the number of result pages visited per surname.
	// Common surnames return thousands of records; 100 pages is enough for
	// most searches while preventing runaway runs.
	DefaultMaxPages = 100

	// DefaultMinBirthYear is the lowest birth year kept by the filter.
	DefaultMinBirthYear = 1980

	// DefaultPageWaitTimeout is the maximum time to wait for a form element
	// or the results table to appear.
	DefaultPageWaitTimeout = 15 * time.Second

	// DefaultPageLoadDelay is slept after submitting the search and after each
	// "Next" click. It doubles as the politeness delay between pages.
	DefaultPageLoadDelay = 3 * time.Second

	// DefaultOutputDir is where per-surname export files are written.
	DefaultOutputDir = "data"

	// DefaultUserAgent is sent by the reachability preflight. The browser keeps
	// its own User-Agent unless one is configured explicitly.
	DefaultUserAgent = "gravescan/1.0 (+https://github.com/nao1215/gravescan)"

	// DefaultWindowWidth and DefaultWindowHeight size the browser window.
	// The locator switches to a card layout on narrow viewports.
	DefaultWindowWidth  = 1366
	DefaultWindowHeight = 900
)

// Config holds all configuration options for gravescan.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
//
// Design decision: We keep a single flat struct like the rest of the CLI
// layer. Per-surname differences are expressed with ForSurname, which returns
// an adjusted copy rather than mutating shared state.
type Config struct {
	// Surnames are the last names to search for, processed in order.
	Surnames []string

	// MatchMode qualifies the surname match. Only model.MatchBeginsWith is
	// supported by the locator form automation.
	MatchMode string

	// MaxPages is the maximum number of result pages visited per surname.
	MaxPages int

	// MinBirthYear is the inclusive birth year threshold of the filter.
	MinBirthYear int

	// PageWaitTimeout bounds every wait for the site to render something.
	PageWaitTimeout time.Duration

	// PageLoadDelay is slept after each form submission and page change.
	PageLoadDelay time.Duration

	// BaseURL is the locator search page.
	BaseURL string

	// OutputDir is the directory receiving per-surname export files.
	OutputDir string

	// XLSX writes a spreadsheet copy next to each CSV file.
	XLSX bool

	// EmptyNote writes a placeholder row into exports without records.
	EmptyNote bool

	// Confirm asks for confirmation on the terminal before each search.
	Confirm bool

	// Headless runs the browser without a window.
	Headless bool

	// BrowserBin is the browser executable. Empty lets rod locate one.
	BrowserBin string

	// UserAgent overrides the browser User-Agent when not empty.
	UserAgent string

	// WindowWidth and WindowHeight size the browser window.
	WindowWidth  int
	WindowHeight int

	// SkipCheck disables the reachability preflight.
	SkipCheck bool

	// DumpHTMLDir, when set, receives the HTML of every visited page.
	DumpHTMLDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// JSONReport writes the run summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary.
	// When empty, the summary is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .gravescan is searched in the current and home directories.
	ConfigFilePath string

	// Profiles holds the per-surname profiles loaded from the config file.
	Profiles *File

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory (~/.local/share/gravescan on Linux).
	DBDir string

	// SaveToDB stores finished runs in the history database.
	SaveToDB bool

	// SkipRecent skips surnames with a finished run in the history younger
	// than this duration. Zero disables the check.
	SkipRecent time.Duration

	// Concurrency is the number of surnames replayed at once. Live scraping
	// always uses a single browser session and ignores it.
	Concurrency int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MatchMode:       model.MatchBeginsWith,
		MaxPages:        DefaultMaxPages,
		MinBirthYear:    DefaultMinBirthYear,
		PageWaitTimeout: DefaultPageWaitTimeout,
		PageLoadDelay:   DefaultPageLoadDelay,
		BaseURL:         DefaultBaseURL,
		OutputDir:       DefaultOutputDir,
		Headless:        true,
		WindowWidth:     DefaultWindowWidth,
		WindowHeight:    DefaultWindowHeight,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
		Concurrency:     1,
	}
}

// XDGDataDir returns the XDG data directory for gravescan.
// On Linux: ~/.local/share/gravescan
// On macOS: ~/Library/Application Support/gravescan
// On Windows: %LOCALAPPDATA%\gravescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// NormalizeSurname trims a surname and upper-cases it, which is how the
// locator prints names.
func NormalizeSurname(surname string) string {
	return strings.ToUpper(strings.TrimSpace(surname))
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Surnames) == 0 {
		return ErrNoSurname
	}
	for _, s := range c.Surnames {
		if NormalizeSurname(s) == "" {
			return ErrInvalidSurname
		}
	}

	if c.MatchMode != model.MatchBeginsWith {
		return ErrUnsupportedMatchMode
	}

	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}

	if c.MinBirthYear < 0 || c.MinBirthYear > 9999 {
		return ErrInvalidBirthYear
	}

	if c.PageWaitTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.PageLoadDelay < 0 {
		return ErrInvalidPageDelay
	}

	if c.SkipRecent < 0 {
		return ErrInvalidSkipRecent
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrNoOutputDir
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ForSurname returns a copy of c adjusted by the surname's profile from the
// config file. Without a matching profile the copy equals c.
func (c *Config) ForSurname(surname string) (*Config, error) {
	out := *c
	out.Surnames = []string{surname}
	if c.Profiles == nil {
		return &out, nil
	}

	specific, ok := c.Profiles.lookup(surname)
	if !ok {
		return &out, nil
	}

	merged, err := mergeProfiles(c.profile(), specific)
	if err != nil {
		return nil, err
	}
	out.applyProfile(merged)
	return &out, nil
}

// ApplyFile copies the settings of a loaded config file into c.
// Only values present in the file change c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.Profiles = f
	c.applyProfile(f.Defaults)

	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
	if len(f.Search) > 0 && len(c.Surnames) == 0 {
		c.Surnames = append([]string(nil), f.Search...)
	}

	b := f.Browser
	if b.Headless != nil {
		c.Headless = *b.Headless
	}
	if b.Bin != "" {
		c.BrowserBin = b.Bin
	}
	if b.UserAgent != "" {
		c.UserAgent = b.UserAgent
	}
	if b.WindowWidth > 0 {
		c.WindowWidth = b.WindowWidth
	}
	if b.WindowHeight > 0 {
		c.WindowHeight = b.WindowHeight
	}
}

// profile returns the profile-shaped view of c.
func (c *Config) profile() Profile {
	return Profile{
		MaxPages:        c.MaxPages,
		MinBirthYear:    c.MinBirthYear,
		PageWaitTimeout: c.PageWaitTimeout,
		PageLoadDelay:   c.PageLoadDelay,
		OutputDir:       c.OutputDir,
		XLSX:            c.XLSX,
		EmptyNote:       c.EmptyNote,
	}
}

// applyProfile copies the non-zero fields of p into c.
func (c *Config) applyProfile(p Profile) {
	if p.MaxPages != 0 {
		c.MaxPages = p.MaxPages
	}
	if p.MinBirthYear != 0 {
		c.MinBirthYear = p.MinBirthYear
	}
	if p.PageWaitTimeout != 0 {
		c.PageWaitTimeout = p.PageWaitTimeout
	}
	if p.PageLoadDelay != 0 {
		c.PageLoadDelay = p.PageLoadDelay
	}
	if p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if p.XLSX {
		c.XLSX = true
	}
	if p.EmptyNote {
		c.EmptyNote = true
	}
}
