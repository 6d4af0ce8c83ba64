package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv,
// e.g. GRAVESCAN_MAX_PAGES.
const EnvPrefix = "GRAVESCAN"

// envSettings lists the settings that can come from the environment.
// Variables that are not set leave the current value in place.
type envSettings struct {
	Surnames        []string      `envconfig:"SURNAMES"`
	MaxPages        int           `envconfig:"MAX_PAGES"`
	MinBirthYear    int           `envconfig:"MIN_BIRTH_YEAR"`
	PageWaitTimeout time.Duration `envconfig:"PAGE_WAIT_TIMEOUT"`
	PageLoadDelay   time.Duration `envconfig:"PAGE_LOAD_DELAY"`
	BaseURL         string        `envconfig:"BASE_URL"`
	OutputDir       string        `envconfig:"OUTPUT_DIR"`
	Headless        bool          `envconfig:"HEADLESS"`
	BrowserBin      string        `envconfig:"BROWSER_BIN"`
	UserAgent       string        `envconfig:"USER_AGENT"`
	DBDir           string        `envconfig:"DB_DIR"`
}

// ApplyEnv overrides c with GRAVESCAN_* environment variables.
// Surnames are comma separated (GRAVESCAN_SURNAMES=MICHAEL,SMITH) and
// durations use Go syntax (GRAVESCAN_PAGE_WAIT_TIMEOUT=20s).
func ApplyEnv(c *Config) error {
	env := envSettings{
		Surnames:        c.Surnames,
		MaxPages:        c.MaxPages,
		MinBirthYear:    c.MinBirthYear,
		PageWaitTimeout: c.PageWaitTimeout,
		PageLoadDelay:   c.PageLoadDelay,
		BaseURL:         c.BaseURL,
		OutputDir:       c.OutputDir,
		Headless:        c.Headless,
		BrowserBin:      c.BrowserBin,
		UserAgent:       c.UserAgent,
		DBDir:           c.DBDir,
	}

	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}

	c.Surnames = env.Surnames
	c.MaxPages = env.MaxPages
	c.MinBirthYear = env.MinBirthYear
	c.PageWaitTimeout = env.PageWaitTimeout
	c.PageLoadDelay = env.PageLoadDelay
	c.BaseURL = env.BaseURL
	c.OutputDir = env.OutputDir
	c.Headless = env.Headless
	c.BrowserBin = env.BrowserBin
	c.UserAgent = env.UserAgent
	c.DBDir = env.DBDir
	return nil
}
