// Package export renders student totals as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/extrapoints/internal/calculator"
	"github.com/mmynk/extrapoints/internal/models"
)

// SheetName is the name of the totals sheet.
const SheetName = "Extra Points"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []any{"Student ID", "Student", "Total Extra Points"}

// WriteTotals writes one row per student followed by a grand total row.
func WriteTotals(w io.Writer, totals []models.StudentTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	values := make([]int64, 0, len(totals))
	for i, t := range totals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []any{t.StudentID, t.StudentName, t.Total}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write student %d: %w", t.StudentID, err)
		}
		values = append(values, t.Total)
	}

	last := len(totals) + 2
	footer := []any{nil, "Total", calculator.Sum(values)}
	if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", last), &footer); err != nil {
		return fmt.Errorf("failed to write grand total: %w", err)
	}

	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetRowStyle(SheetName, last, last, bold); err != nil {
		return fmt.Errorf("failed to style grand total: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
