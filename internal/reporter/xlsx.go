package reporter

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sid-reconciliation-service/internal/models"
)

// XLSXContentType is the MIME type of a written workbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet a section is written to, by section position
func SheetName(index int) string {
	return fmt.Sprintf("Sheet%d", index+1)
}

// BuildWorkbook writes every section of the report to its own worksheet.
// Headerless sections start at row 1 with their own rows; emphasised rows
// are set bold.
func BuildWorkbook(report *models.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create bold style: %w", err)
	}

	for i, section := range report.Sections {
		sheet := SheetName(i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}

		if err := writeSection(f, sheet, section, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write section %s: %w", section.Name, err)
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook of the report to w
func WriteXLSX(report *models.Report, w io.Writer) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSection(f *excelize.File, sheet string, section *models.ReportSection, bold int) error {
	next := 1
	if !section.Headerless {
		header := make([]interface{}, len(section.Columns))
		for i, c := range section.Columns {
			header[i] = c
		}
		if err := setRow(f, sheet, next, header); err != nil {
			return err
		}
		next++
	}

	for i, row := range section.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		if err := setRow(f, sheet, next, cells); err != nil {
			return err
		}

		if section.IsEmphasized(i) && len(row) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, next)
			last, _ := excelize.CoordinatesToCellName(len(row), next)
			if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
				return err
			}
		}
		next++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// cellValue keeps numbers numeric in the workbook
func cellValue(v interface{}) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
