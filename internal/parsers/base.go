// Package parsers turns raw SID and FIR sheets into typed reconciliation input.
//
// Sheets are positional grids with no header names: every column is addressed
// by index and a fixed number of leading metadata rows is skipped. The package
// has two halves:
//   - loaders that read a workbook (.xlsx/.xlsm, via excelize) or a CSV export
//     into a Grid
//   - the Extractor, which pulls case numbers, FIR numbers, submission dates
//     and IO names out of those grids according to a TableLayout
//
// Example usage:
//
//	loader := parsers.NewFileLoader(nil)
//	fir, err := loader.Load(ctx, "case.xlsx")
//	sid, err := loader.Load(ctx, "sid_1.xlsx")
//
//	extractor, err := parsers.NewExtractor(parsers.DefaultTableLayout())
//	input, err := extractor.Extract([]parsers.Grid{sid}, fir)
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// Grid is a positional table of cells. Rows may be ragged; a missing cell
// reads as empty.
type Grid [][]string

// Cell returns the value at (row, col) and whether that position exists in
// the row.
func (g Grid) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return "", false
	}
	return g[row][col], true
}

// Width is the length of the longest row
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// FileLoader loads grids from workbook and CSV files on disk or from uploads
type FileLoader struct {
	logger logger.Logger
	// Sheet selects a worksheet by name; empty means the first sheet
	Sheet string
}

// NewFileLoader creates a loader that reads the first worksheet of a workbook
func NewFileLoader(log logger.Logger) *FileLoader {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &FileLoader{logger: log.WithComponent("table_loader")}
}

// Load reads the file at path
func (l *FileLoader) Load(ctx context.Context, path string) (Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.WithField("file_path", path).Debug("Opening table")

	file, err := os.Open(path)
	if err != nil {
		l.logger.WithError(err).WithField("file_path", path).Error("Failed to open table")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	return l.LoadReader(ctx, path, file)
}

// LoadReader reads a table whose format is inferred from name
func (l *FileLoader) LoadReader(ctx context.Context, name string, r io.Reader) (Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		grid Grid
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		grid, err = l.readWorkbook(name, r)
	case ".csv":
		grid, err = l.readCSV(name, r)
	default:
		return nil, errors.FileError(errors.CodeUnsupportedFormat, name, nil)
	}
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logger.Fields{
		"file_path": name,
		"rows":      len(grid),
		"width":     grid.Width(),
	}).Debug("Loaded table")
	return grid, nil
}

// readWorkbook reads raw cell values so that numeric identifiers keep every
// digit and dates arrive as serial numbers instead of locale-formatted text.
func (l *FileLoader) readWorkbook(name string, r io.Reader) (Grid, error) {
	wb, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	defer wb.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.FileError(errors.CodeFileCorrupted, name, fmt.Errorf("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err).
			WithContext("sheet", sheet)
	}
	return Grid(rows), nil
}

func (l *FileLoader) readCSV(name string, r io.Reader) (Grid, error) {
	buffered := bufio.NewReader(r)
	// Excel writes a BOM in front of UTF-8 CSV exports
	if bom, err := buffered.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = buffered.Discard(3)
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid Grid
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			row := len(grid)
			if pe, ok := err.(*csv.ParseError); ok {
				row = pe.Line - 1
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, row, 0, "", err)
		}
		for i, field := range record {
			if !utf8.ValidString(field) {
				return nil, errors.ParseError(errors.CodeInvalidFormat, name, len(grid), i, "", fmt.Errorf("invalid UTF-8 encoding")).
					WithSuggestion("save the CSV export in UTF-8 encoding and try again")
			}
		}
		grid = append(grid, record)
	}
	return grid, nil
}
