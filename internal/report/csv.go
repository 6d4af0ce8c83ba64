package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nao1215/gravescan/internal/model"
)

// utf8BOM is written in front of CSV files so spreadsheet applications pick
// UTF-8 instead of the system code page.
const utf8BOM = "\xEF\xBB\xBF"

// EmptyNote returns the placeholder text written into an export without
// records.
func EmptyNote(minBirthYear int) string {
	return fmt.Sprintf("No records found with birth year >= %d", minBirthYear)
}

// WriteCSV writes the records of run as CSV with the fixed export columns.
// Without records only the header is written, followed by the EmptyNote row
// when withNote is true.
func WriteCSV(w io.Writer, run *model.Run, withNote bool) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("%w: write BOM: %w", ErrExport, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(model.ExportColumns); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrExport, err)
	}

	for _, rec := range run.Records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("%w: write record: %w", ErrExport, err)
		}
	}

	if len(run.Records) == 0 && withNote {
		if err := cw.Write([]string{EmptyNote(run.MinBirthYear)}); err != nil {
			return fmt.Errorf("%w: write note: %w", ErrExport, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrExport, err)
	}
	return nil
}
