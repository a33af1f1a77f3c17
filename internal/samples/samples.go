// Package samples generates synthetic SID exports and FIR case registers in
// the positional layout the extractor reads, together with the counts a
// reconciliation of them must produce.
package samples

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"sid-reconciliation-service/internal/matcher"
	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/internal/parsers"
)

var ioNames = []string{"P.I. Patel", "P.S.I. Shah", "P.S.I. Desai", "A.S.I. Parmar", "P.I. Chauhan"}

// Generator builds one dataset per call. The same seed yields the same dataset.
type Generator struct {
	Seed int64
	// FIRRows is the number of FIR case rows
	FIRRows int
	// MatchRatio is the share of FIR numbers that also appear in a SID source
	MatchRatio float64
	// ExtraSID is the number of SID case numbers that have no FIR row
	ExtraSID int
	// SIDSources is the number of SID files the case numbers are spread over
	SIDSources int
	// Stations restricts the generated prefixes; empty means every known station
	Stations  []models.StationCode
	StartDate time.Time
	Layout    *parsers.TableLayout
}

// Expectation holds the totals a run over the dataset must report
type Expectation struct {
	FirRows     int
	FirMatched  int
	DistinctSID int
	SIDMatched  int
}

// Dataset is one generated set of sources
type Dataset struct {
	SID      []parsers.Grid
	FIR      parsers.Grid
	Expected Expectation
}

// DefaultGenerator returns a small, reproducible configuration
func DefaultGenerator() *Generator {
	return &Generator{
		Seed:       1,
		FIRRows:    40,
		MatchRatio: 0.7,
		ExtraSID:   5,
		SIDSources: 2,
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate builds the SID and FIR grids
func (g *Generator) Generate() (*Dataset, error) {
	layout := g.Layout
	if layout == nil {
		layout = parsers.DefaultTableLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if g.FIRRows <= 0 {
		return nil, fmt.Errorf("FIR row count must be positive, got %d", g.FIRRows)
	}
	if g.SIDSources <= 0 {
		return nil, fmt.Errorf("SID source count must be positive, got %d", g.SIDSources)
	}

	stations := g.Stations
	if len(stations) == 0 {
		for _, s := range matcher.KnownStations() {
			stations = append(stations, s.Code)
		}
	}

	rng := rand.New(rand.NewSource(g.Seed))
	sequence := make(map[models.StationCode]int, len(stations))
	next := func(code models.StationCode) string {
		sequence[code]++
		return fmt.Sprintf("%s%02d%04d", code, g.StartDate.Year()%100, sequence[code])
	}

	width := maxIndex(layout.FIR.FirNumberCol, layout.FIR.DateCol, layout.FIR.IONameCol, layout.FIR.StationLabelCol) + 1
	fir := metadataRows(layout.FIR.HeaderRows, width)

	var sidIDs []string
	expected := Expectation{FirRows: g.FIRRows}
	for i := 0; i < g.FIRRows; i++ {
		code := stations[rng.Intn(len(stations))]
		number := next(code)

		row := make([]string, width)
		row[0] = fmt.Sprint(i + 1)
		row[layout.FIR.FirNumberCol] = number
		row[layout.FIR.DateCol] = g.StartDate.AddDate(0, 0, i/3).Format(models.DateLayout)
		row[layout.FIR.IONameCol] = ioNames[rng.Intn(len(ioNames))]
		fir = append(fir, row)

		if rng.Float64() < g.MatchRatio {
			sidIDs = append(sidIDs, number)
			expected.FirMatched++
		}
	}
	expected.SIDMatched = expected.FirMatched

	for i := 0; i < g.ExtraSID; i++ {
		// numbers past the FIR sequences never collide with a FIR row
		code := stations[rng.Intn(len(stations))]
		sequence[code] += 1000
		sidIDs = append(sidIDs, next(code))
	}
	expected.DistinctSID = len(sidIDs)

	rng.Shuffle(len(sidIDs), func(i, j int) { sidIDs[i], sidIDs[j] = sidIDs[j], sidIDs[i] })

	return &Dataset{
		SID:      spread(sidIDs, g.SIDSources, layout.SID),
		FIR:      fir,
		Expected: expected,
	}, nil
}

// spread deals the case numbers over count sources, two per row
func spread(ids []string, count int, layout parsers.SIDLayout) []parsers.Grid {
	width := maxIndex(layout.CaseNumber1Col, layout.CaseNumber2Col) + 1
	sources := make([]parsers.Grid, count)
	for i := range sources {
		sources[i] = metadataRows(layout.HeaderRows, width)
	}

	for i := 0; i < len(ids); i += 2 {
		row := make([]string, width)
		row[layout.CaseNumber1Col] = ids[i]
		if i+1 < len(ids) {
			row[layout.CaseNumber2Col] = ids[i+1]
		}
		s := (i / 2) % count
		sources[s] = append(sources[s], row)
	}
	return sources
}

// metadataRows are full width so that a source without data rows still has
// every column.
func metadataRows(n, width int) parsers.Grid {
	rows := make(parsers.Grid, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, width)
		row[0] = fmt.Sprintf("metadata %d", i+1)
		rows = append(rows, row)
	}
	return rows
}

func maxIndex(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// WriteWorkbook writes grid to the first sheet of a new .xlsx file
func WriteWorkbook(path string, grid parsers.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f.SaveAs(path)
}

// WriteCSV writes grid as a CSV file. An empty row is written as two empty
// fields since CSV readers skip blank lines.
func WriteCSV(path string, grid parsers.Grid) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, row := range grid {
		record := row
		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			record = []string{"", ""}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
