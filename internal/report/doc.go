// Package report writes collected runs to files and to the terminal.
//
// Record exports:
//   - WriteCSV: the fixed export columns, UTF-8 with BOM
//   - WriteXLSX: the same columns as a spreadsheet
//   - Export: writes <surname>_veterans.csv (and .xlsx) into a directory
//
// Run summaries implement the Writer interface:
//   - SimpleWriter: human-readable text for terminal display
//   - MarkdownWriter: Markdown for sharing
//   - JSONWriter: structured JSON for tool integration
//
// Design decision: We separate output from the data structures (which are in
// the model package) so new formats can be added without touching the
// collection code.
package report
