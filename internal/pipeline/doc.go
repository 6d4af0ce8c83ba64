// Package pipeline runs the per-surname steps in sequence.
//
// A run flows through three steps: collect (search and page through the
// results), export (CSV and optional XLSX files) and persist (history
// database). Each step is a Step that receives the current model.Run and
// can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Export and persist are optional and are added only when configured
// 2. It provides consistent error handling and logging across steps
// 3. Steps marked final still run after an interrupt, so partial results
// are written out
//
// The BatchProcessor runs the pipeline for several surnames with a
// concurrency limit using errgroup.
package pipeline
