package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/gravescan/internal/model"
)

// Export file extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// ExportOptions controls which files Export writes.
type ExportOptions struct {
	// Dir is the output directory. It is created when missing.
	Dir string

	// XLSX also writes a spreadsheet next to the CSV file.
	XLSX bool

	// EmptyNote writes the placeholder row into exports without records.
	EmptyNote bool
}

// FileName returns the export file name for a surname, e.g.
// "MICHAEL_veterans.csv". Path separators in the surname are replaced.
func FileName(surname, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(surname))
	return safe + "_veterans" + ext
}

// Export writes the records of run into opts.Dir and returns the written
// paths. The CSV file is always written, even without records. Errors wrap
// ErrExport; files written before the failure are still returned.
func Export(run *model.Run, opts ExportOptions) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrExport, opts.Dir, err)
	}

	var written []string

	csvPath := filepath.Join(opts.Dir, FileName(run.Query.Surname, ExtCSV))
	if err := writeFile(csvPath, func(w io.Writer) error {
		return WriteCSV(w, run, opts.EmptyNote)
	}); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	if opts.XLSX {
		xlsxPath := filepath.Join(opts.Dir, FileName(run.Query.Surname, ExtXLSX))
		if err := writeFile(xlsxPath, func(w io.Writer) error {
			return WriteXLSX(w, run, opts.EmptyNote)
		}); err != nil {
			return written, err
		}
		written = append(written, xlsxPath)
	}

	return written, nil
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExport, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: close %s: %w", ErrExport, path, cerr))
		}
	}()
	return write(f)
}
