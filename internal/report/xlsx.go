package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/gravescan/internal/model"
)

// SheetName is the name of the worksheet holding exported records.
const SheetName = "Veterans"

// WriteXLSX writes the records of run as a single sheet workbook with the
// same columns as WriteCSV. Birth years are stored as numbers.
func WriteXLSX(w io.Writer, run *model.Run, withNote bool) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close workbook: %w", ErrExport, cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%w: rename sheet: %w", ErrExport, err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &model.ExportColumns); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrExport, err)
	}
	if err := styleHeader(f); err != nil {
		return err
	}

	for i, rec := range run.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExport, err)
		}
		row := []any{
			rec.LastName,
			rec.FirstName,
			rec.FullName,
			rec.RankBranch,
			rec.DateOfBirth,
			rec.BirthYear,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("%w: write record: %w", ErrExport, err)
		}
	}

	if len(run.Records) == 0 && withNote {
		if err := f.SetCellValue(SheetName, "A2", EmptyNote(run.MinBirthYear)); err != nil {
			return fmt.Errorf("%w: write note: %w", ErrExport, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: write workbook: %w", ErrExport, err)
	}
	return nil
}

// styleHeader makes the header row bold and widens the name columns.
func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: header style: %w", ErrExport, err)
	}
	last, err := excelize.CoordinatesToCellName(len(model.ExportColumns), 1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("%w: header style: %w", ErrExport, err)
	}
	if err := f.SetColWidth(SheetName, "A", "D", 24); err != nil {
		return fmt.Errorf("%w: column width: %w", ErrExport, err)
	}
	return nil
}
