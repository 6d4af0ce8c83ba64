package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// Profile holds run settings that can differ per surname.
// Zero values mean "not set" and leave the inherited value untouched.
type Profile struct {
	// MaxPages overrides the page limit.
	MaxPages int `yaml:"max_pages,omitempty"`

	// MinBirthYear overrides the birth year threshold.
	MinBirthYear int `yaml:"min_birth_year,omitempty"`

	// PageWaitTimeout overrides the wait for the results table (e.g. "20s").
	PageWaitTimeout time.Duration `yaml:"page_wait_timeout,omitempty"`

	// PageLoadDelay overrides the delay after each page change (e.g. "5s").
	PageLoadDelay time.Duration `yaml:"page_load_delay,omitempty"`

	// OutputDir overrides the export directory.
	OutputDir string `yaml:"output_dir,omitempty"`

	// XLSX enables the spreadsheet copy.
	XLSX bool `yaml:"xlsx,omitempty"`

	// EmptyNote enables the placeholder row in empty exports.
	EmptyNote bool `yaml:"empty_note,omitempty"`
}

// BrowserSettings configures the browser session.
type BrowserSettings struct {
	// Headless runs the browser without a window. Nil keeps the default.
	Headless *bool `yaml:"headless,omitempty"`

	// Bin is the browser executable path.
	Bin string `yaml:"bin,omitempty"`

	// UserAgent overrides the browser User-Agent.
	UserAgent string `yaml:"user_agent,omitempty"`

	// WindowWidth and WindowHeight size the browser window.
	WindowWidth  int `yaml:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty"`
}

// File represents the structure of the .gravescan configuration file.
type File struct {
	// Search lists surnames searched when none are given on the command line.
	Search []string `yaml:"search,omitempty"`

	// BaseURL overrides the locator URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// DBDir overrides the history database directory.
	DBDir string `yaml:"db_dir,omitempty"`

	// Browser configures the browser session.
	Browser BrowserSettings `yaml:"browser,omitempty"`

	// Defaults applies to every surname.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Surnames maps a surname to the settings that differ for it.
	// Keys are matched case-insensitively.
	Surnames map[string]Profile `yaml:"surnames,omitempty"`
}

// Profile returns the effective profile of a surname: the defaults with the
// surname's own settings merged over them.
func (cf *File) Profile(surname string) (Profile, error) {
	specific, ok := cf.lookup(surname)
	if !ok {
		return cf.Defaults, nil
	}
	return mergeProfiles(cf.Defaults, specific)
}

// lookup finds the profile of a surname regardless of key case.
func (cf *File) lookup(surname string) (Profile, bool) {
	want := NormalizeSurname(surname)
	for key, p := range cf.Surnames {
		if NormalizeSurname(key) == want {
			return p, true
		}
	}
	return Profile{}, false
}

// mergeProfiles returns base with every non-zero field of override applied.
func mergeProfiles(base, override Profile) (Profile, error) {
	if err := mergo.Merge(&base, override, mergo.WithOverride); err != nil {
		return Profile{}, fmt.Errorf("failed to merge profile: %w", err)
	}
	return base, nil
}
