// Package config provides configuration structures and utilities for gravescan.
// It defines the search, browser, export and history settings, the .gravescan
// YAML file with per-surname profiles, and GRAVESCAN_* environment overrides.
package config
