// Package export writes the fund table as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"SumReport/internal/domain/models"
	"SumReport/internal/service/format"

	"github.com/xuri/excelize/v2"
)

const (
	SheetFunds  = "Funds"
	SheetErrors = "Errors"

	numFmtPercent = 10 // built-in "0.00%"
)

// WriteXLSX writes t to w. Numeric cells keep raw values with a number format
// matching the dashboard columns.
func WriteXLSX(w io.Writer, t *models.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetFunds); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	cols := format.Columns()
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetFunds, cell, c.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(SheetFunds, "A1", last, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if t != nil {
		for r, row := range t.Rows {
			for i, c := range cols {
				cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
				if err := f.SetCellValue(SheetFunds, cell, c.Value(row)); err != nil {
					return fmt.Errorf("write %s: %w", cell, err)
				}
				if id, ok := styles.forKind(c.Kind); ok {
					if err := f.SetCellStyle(SheetFunds, cell, cell, id); err != nil {
						return fmt.Errorf("style %s: %w", cell, err)
					}
				}
			}
		}
		if len(t.Errors) > 0 {
			if err := writeErrors(f, t.Errors, styles.header); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styleSet struct {
	header  int
	percent int
	fixed   int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return s, fmt.Errorf("percent style: %w", err)
	}
	fixed := "0.0000"
	if s.fixed, err = f.NewStyle(&excelize.Style{CustomNumFmt: &fixed}); err != nil {
		return s, fmt.Errorf("fixed style: %w", err)
	}
	return s, nil
}

func (s styleSet) forKind(k format.Kind) (int, bool) {
	switch k {
	case format.KindPercent:
		return s.percent, true
	case format.KindFixed:
		return s.fixed, true
	}
	return 0, false
}

func writeErrors(f *excelize.File, errs []models.RowError, header int) error {
	if _, err := f.NewSheet(SheetErrors); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetErrors, "A1", &[]interface{}{"Source", "Fund", "Error"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetErrors, "A1", "C1", header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, e := range errs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetErrors, cell, &[]interface{}{e.Source, e.Fund, e.Message}); err != nil {
			return fmt.Errorf("write %s: %w", cell, err)
		}
	}
	return nil
}
