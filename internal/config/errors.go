package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSurname is returned when no surname was given on the command line,
	// in the environment or in the config file.
	ErrNoSurname = errors.New("no surname specified: provide at least one surname")

	// ErrInvalidSurname is returned when a surname is empty after trimming.
	ErrInvalidSurname = errors.New("invalid surname: must not be blank")

	// ErrUnsupportedMatchMode is returned for any match mode other than begins_with.
	ErrUnsupportedMatchMode = errors.New("unsupported match mode: only begins_with is supported")

	// ErrInvalidMaxPages is returned when the page limit is below 1.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidBirthYear is returned when the birth year threshold is not a
	// year between 0 and 9999.
	ErrInvalidBirthYear = errors.New("invalid min birth year: must be between 0 and 9999")

	// ErrInvalidTimeout is returned when the page wait timeout is not positive.
	// A zero timeout would fail every wait for the results table.
	ErrInvalidTimeout = errors.New("invalid page wait timeout: must be positive")

	// ErrInvalidPageDelay is returned when the page load delay is negative.
	// Use 0 for no delay.
	ErrInvalidPageDelay = errors.New("invalid page load delay: must be non-negative")

	// ErrNoOutputDir is returned when the output directory is blank.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidSkipRecent is returned when --skip-recent is negative.
	ErrInvalidSkipRecent = errors.New("invalid skip-recent duration: must be non-negative")

	// ErrInvalidConcurrency is returned when --concurrency is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one summary format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
