package report

import "errors"

// ErrExport is returned when an export file cannot be written.
// The records of the run stay in memory and can still be stored elsewhere.
var ErrExport = errors.New("export failed")
