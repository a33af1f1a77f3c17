package parsers

import (
	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

const (
	sidSource = "SID sheet"
	firSource = "FIR sheet"
)

// Extractor pulls typed columns out of positional SID and FIR grids
type Extractor struct {
	layout *TableLayout
	logger logger.Logger
}

// NewExtractor creates an extractor for the given layout
func NewExtractor(layout *TableLayout) (*Extractor, error) {
	if layout == nil {
		layout = DefaultTableLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "layout", layout, err)
	}
	return &Extractor{
		layout: layout,
		logger: logger.GetGlobalLogger().WithComponent("extractor"),
	}, nil
}

// Layout returns the layout the extractor was built with
func (e *Extractor) Layout() TableLayout {
	return *e.layout
}

// Extract joins the SID grids row-wise, in the order given, and reads case
// records from the joined grid. The SID metadata rows are dropped once, from
// the top of the joined grid, so metadata rows of later sources stay in as
// data rows. Any missing required column or row and any unparseable date
// fails the whole extraction.
func (e *Extractor) Extract(sidGrids []Grid, firGrid Grid) (*models.ExtractedInput, error) {
	input := &models.ExtractedInput{}

	if len(sidGrids) > 0 {
		records, err := e.extractSID(JoinGrids(sidGrids...))
		if err != nil {
			return nil, err
		}
		input.CaseRecords = records
	}

	if err := e.extractFIR(firGrid, input); err != nil {
		return nil, err
	}

	e.logger.WithFields(logger.Fields{
		"sid_sources":  len(sidGrids),
		"case_records": len(input.CaseRecords),
		"fir_records":  len(input.FirRecords),
		"date_range":   input.DateRange.String(),
	}).Debug("Extracted input")
	return input, nil
}

// JoinGrids concatenates grids row-wise
func JoinGrids(grids ...Grid) Grid {
	var n int
	for _, g := range grids {
		n += len(g)
	}
	joined := make(Grid, 0, n)
	for _, g := range grids {
		joined = append(joined, g...)
	}
	return joined
}

func (e *Extractor) extractSID(grid Grid) ([]models.CaseRecord, error) {
	layout := e.layout.SID
	if width := grid.Width(); width < layout.sidWidth() {
		return nil, errors.ParseError(errors.CodeMissingColumn, sidSource,
			layout.HeaderRows, layout.sidWidth()-1, "", nil).
			WithContext("width", width)
	}

	var records []models.CaseRecord
	for row := layout.HeaderRows; row < len(grid); row++ {
		c1, _ := grid.Cell(row, layout.CaseNumber1Col)
		c2, _ := grid.Cell(row, layout.CaseNumber2Col)
		records = append(records, models.CaseRecord{CaseNumber1: c1, CaseNumber2: c2})
	}
	return records, nil
}

func (e *Extractor) extractFIR(grid Grid, input *models.ExtractedInput) error {
	layout := e.layout.FIR
	if width := grid.Width(); width < layout.firWidth() {
		return errors.ParseError(errors.CodeMissingColumn, firSource,
			layout.HeaderRows, layout.firWidth()-1, "", nil).
			WithContext("width", width)
	}
	if len(grid) <= layout.StationLabelRow {
		return errors.ParseError(errors.CodeMissingRow, firSource,
			layout.StationLabelRow, layout.StationLabelCol, "", nil)
	}
	input.StationLabel, _ = grid.Cell(layout.StationLabelRow, layout.StationLabelCol)

	var dated int
	for row := layout.HeaderRows; row < len(grid); row++ {
		fir, _ := grid.Cell(row, layout.FirNumberCol)
		rawDate, _ := grid.Cell(row, layout.DateCol)
		ioName, _ := grid.Cell(row, layout.IONameCol)

		record := models.FirRecord{FirNumber: fir, IOName: ioName}
		if rawDate != "" {
			date, err := ParseSubmissionDate(rawDate)
			if err != nil {
				return errors.ParseError(errors.CodeInvalidDate, firSource, row, layout.DateCol, rawDate, err)
			}
			record.SubmissionDate = date
			if dated == 0 {
				input.DateRange.Start = date
			}
			input.DateRange.End = date
			dated++
		}
		input.FirRecords = append(input.FirRecords, record)
	}

	if dated == 0 {
		return errors.ParseError(errors.CodeMissingValue, firSource,
			layout.HeaderRows, layout.DateCol, "", nil)
	}
	return nil
}
