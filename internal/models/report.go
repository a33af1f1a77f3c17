package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Section names of an assembled report, in write order
const (
	SectionDetail    = "Detail"
	SectionGrouped   = "Station Listing"
	SectionDashboard = "Dashboard"
	SectionSummary   = "Summary"
)

// Row is one report row. Cells are string, int, decimal.Decimal or nil.
type Row []interface{}

// ReportSection is an ordered block of rows with a fixed column schema.
//
// Headerless sections carry their own title/header rows inside Rows and must
// be written without the Columns line. EmphasisRows lists zero-based indexes
// into Rows that a writer should render bold.
type ReportSection struct {
	Name         string   `json:"name"`
	Columns      []string `json:"columns"`
	Rows         []Row    `json:"rows"`
	Headerless   bool     `json:"headerless,omitempty"`
	EmphasisRows []int    `json:"emphasis_rows,omitempty"`
}

// IsEmphasized reports whether row i should be rendered bold
func (s *ReportSection) IsEmphasized(i int) bool {
	for _, r := range s.EmphasisRows {
		if r == i {
			return true
		}
	}
	return false
}

// Report is the full multi-section output of one run
type Report struct {
	RunID        string           `json:"run_id"`
	Mode         MatchMode        `json:"mode"`
	StationLabel string           `json:"station_label"`
	DateRange    DateRange        `json:"date_range"`
	Sections     []*ReportSection `json:"sections"`
}

// Section returns the named section or nil
func (r *Report) Section(name string) *ReportSection {
	for _, s := range r.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FormatCell renders a cell value as text, as a CSV or console writer shows it
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
