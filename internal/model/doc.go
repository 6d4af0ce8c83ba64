// Package model defines the core data structures used throughout gravescan.
//
// This package contains the following main types:
//   - RawRow / RecordGroup: transient label/value data scraped from one results page
//   - ResultsPage: one parsed results page with its record groups
//   - PersonRecord: the canonical output unit written to CSV and the history database
//   - Run: one collection for one surname, including its accumulated records
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, report, pipeline and database packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for summary output and
// database storage.
package model
