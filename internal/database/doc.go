// Package database provides SQLite-based run history for gravescan.
//
// This package implements the HistoryDB, which stores:
//   - One row per collected surname (run) with its outcome
//   - The qualifying records of every run in collection order
//   - Per-page statistics of every run
//
// Stored runs make it possible to list what was collected before and to
// compare two runs of the same surname.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
package database
