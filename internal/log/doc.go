// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of credentials (cookies, tokens, secrets)
//   - Masking of personal data such as dates of birth
//   - Configurable log levels with verbose mode support
//   - Text or JSON output with the same sanitization rules
//
// Even in verbose mode, sensitive values are masked so logs can be shared
// without leaking the personal data contained in burial records.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("record kept",
//	    "name", "MICHAEL, BERNARD",
//	    "date_of_birth", "05/01/1985", // logged as ***REDACTED***
//	)
package log
