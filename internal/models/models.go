package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchMode selects which collection is classified against which reference set
type MatchMode string

const (
	// ModeFirLinksSID classifies every FIR number against the combined SID case numbers
	ModeFirLinksSID MatchMode = "fir-links-sid"
	// ModeSIDUsedInFIR classifies every distinct SID case number against the FIR numbers
	ModeSIDUsedInFIR MatchMode = "sid-used-in-fir"
)

// String returns the string representation of MatchMode
func (m MatchMode) String() string {
	return string(m)
}

// IsValid checks if the match mode is one of the two known modes
func (m MatchMode) IsValid() bool {
	return m == ModeFirLinksSID || m == ModeSIDUsedInFIR
}

// Label returns the operator-facing name used in the run summary
func (m MatchMode) Label() string {
	switch m {
	case ModeFirLinksSID:
		return "Fir Link SID"
	case ModeSIDUsedInFIR:
		return "Fir ma use karel SID"
	default:
		return string(m)
	}
}

// ParseMatchMode accepts the canonical value, the enum-style name or the
// operator label of a mode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fir-links-sid", "fir_links_sid", "fir link sid":
		return ModeFirLinksSID, nil
	case "sid-used-in-fir", "sid_used_in_fir", "fir ma use karel sid":
		return ModeSIDUsedInFIR, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (use %s or %s)", s, ModeFirLinksSID, ModeSIDUsedInFIR)
	}
}

// StationCodeLength is the number of leading identifier characters naming a station
const StationCodeLength = 8

// StationCode is the fixed-length prefix of a case identifier
type StationCode string

// StationCodeOf derives the station code of an identifier. Identifiers shorter
// than StationCodeLength are their own code.
func StationCodeOf(identifier string) StationCode {
	runes := []rune(identifier)
	if len(runes) <= StationCodeLength {
		return StationCode(identifier)
	}
	return StationCode(runes[:StationCodeLength])
}

// CaseRecord is one SID source row: two independent case-number slots
type CaseRecord struct {
	CaseNumber1 string `json:"case_number_1"`
	CaseNumber2 string `json:"case_number_2"`
}

// FirRecord is one FIR source row
type FirRecord struct {
	FirNumber      string    `json:"fir_number"`
	SubmissionDate time.Time `json:"submission_date"`
	IOName         string    `json:"io_name,omitempty"`
}

// HasDate reports whether the row carried a submission date
func (f FirRecord) HasDate() bool {
	return !f.SubmissionDate.IsZero()
}

// DateLayout is the day-first layout used whenever a date is rendered
const DateLayout = "02/01/2006"

// DateRange spans the first and last submission date of a FIR source, in row order
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// String renders the range the way report titles show it
func (d DateRange) String() string {
	return fmt.Sprintf("Dt.%s To Dt.%s", d.Start.Format(DateLayout), d.End.Format(DateLayout))
}

// MarshalJSON renders both ends day-first
func (d DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{
		Start: d.Start.Format(DateLayout),
		End:   d.End.Format(DateLayout),
	})
}

// ExtractedInput holds the typed columns pulled out of the raw SID and FIR tables
type ExtractedInput struct {
	CaseRecords  []CaseRecord `json:"case_records"`
	FirRecords   []FirRecord  `json:"fir_records"`
	StationLabel string       `json:"station_label"`
	DateRange    DateRange    `json:"date_range"`
}

// CaseNumbers returns the combined SID identifiers: every first slot in row
// order followed by every second slot in row order. Empty slots are kept.
func (in *ExtractedInput) CaseNumbers() []string {
	out := make([]string, 0, 2*len(in.CaseRecords))
	for _, rec := range in.CaseRecords {
		out = append(out, rec.CaseNumber1)
	}
	for _, rec := range in.CaseRecords {
		out = append(out, rec.CaseNumber2)
	}
	return out
}

// FirNumbers returns the FIR numbers in row order. Empty cells are kept.
func (in *ExtractedInput) FirNumbers() []string {
	out := make([]string, len(in.FirRecords))
	for i, rec := range in.FirRecords {
		out[i] = rec.FirNumber
	}
	return out
}

// IONames indexes IO names by FIR number. A later row wins over an earlier one.
func (in *ExtractedInput) IONames() map[string]string {
	out := make(map[string]string, len(in.FirRecords))
	for _, rec := range in.FirRecords {
		if rec.FirNumber == "" {
			continue
		}
		out[rec.FirNumber] = rec.IOName
	}
	return out
}

// ReconciliationRow is one row of the detail table
type ReconciliationRow struct {
	CaseNumber1 string      `json:"case_number_1"`
	CaseNumber2 string      `json:"case_number_2"`
	FirNumber   string      `json:"fir_number"`
	FinalOutput string      `json:"final_output"`
	PendingSID  string      `json:"pending_sid"`
	StationCode StationCode `json:"station_code"`
	StationName string      `json:"station_name"`
}

// IsMatched reports whether the FIR number was found in the reference set
func (r ReconciliationRow) IsMatched() bool {
	return r.FinalOutput != ""
}

// GroupedRow is one row of the station-grouped listing. StationCode and
// StationName always hold the real values; ShowLabel tells whether this row
// opens its station block and therefore renders them.
type GroupedRow struct {
	StationCode    StationCode `json:"-"`
	StationName    string      `json:"-"`
	ShowLabel      bool        `json:"-"`
	FirNumber      string      `json:"fir_number"`
	FinalOutput    string      `json:"final_output"`
	PendingSID     string      `json:"pending_sid"`
	PendingFirLink string      `json:"pending_fir_link"`
	IOName         string      `json:"io_name"`
}

// LabelCode is the station code as rendered on this row
func (g GroupedRow) LabelCode() string {
	if !g.ShowLabel {
		return ""
	}
	return string(g.StationCode)
}

// LabelName is the station name as rendered on this row
func (g GroupedRow) LabelName() string {
	if !g.ShowLabel {
		return ""
	}
	return g.StationName
}

// MarshalJSON renders the suppressed labels
func (g GroupedRow) MarshalJSON() ([]byte, error) {
	type Alias GroupedRow
	return json.Marshal(&struct {
		StationCode string `json:"station_code"`
		StationName string `json:"station_name"`
		Alias
	}{
		StationCode: g.LabelCode(),
		StationName: g.LabelName(),
		Alias:       Alias(g),
	})
}

// Classification is one identifier of the aggregated universe together with
// its match outcome and resolved station.
type Classification struct {
	Identifier  string      `json:"identifier"`
	Matched     bool        `json:"matched"`
	StationCode StationCode `json:"station_code"`
	StationName string      `json:"station_name"`
}

// StationStat is the per-station rollup of a classification universe
type StationStat struct {
	Rank            int             `json:"rank"`
	StationName     string          `json:"station_name"`
	FirCount        int             `json:"fir_count"`
	MatchedCount    int             `json:"matched_count"`
	PendingCount    int             `json:"pending_count"`
	MatchPercentage decimal.Decimal `json:"match_percentage"`
}

// StationTotals sums every station group
type StationTotals struct {
	FirCount        int             `json:"fir_count"`
	MatchedCount    int             `json:"matched_count"`
	PendingCount    int             `json:"pending_count"`
	MatchPercentage decimal.Decimal `json:"match_percentage"`
}

// Percentage returns part/total*100 rounded to two places, or zero when total
// is zero. The ratio is a float64 and the rounding works on its exact binary
// value with ties to even, so 1/32 gives 3.12 and 1/160 gives 0.62.
func Percentage(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	ratio := float64(part) / float64(total) * 100
	return decimal.RequireFromString(strconv.FormatFloat(ratio, 'f', 2, 64))
}
