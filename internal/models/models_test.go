package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		input       string
		want        MatchMode
		expectError bool
	}{
		{input: "fir-links-sid", want: ModeFirLinksSID},
		{input: "FIR_LINKS_SID", want: ModeFirLinksSID},
		{input: "Fir Link SID", want: ModeFirLinksSID},
		{input: "sid-used-in-fir", want: ModeSIDUsedInFIR},
		{input: " SID_USED_IN_FIR ", want: ModeSIDUsedInFIR},
		{input: "Fir ma use karel SID", want: ModeSIDUsedInFIR},
		{input: "both", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMatchMode(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if !got.IsValid() {
				t.Errorf("parsed mode should be valid")
			}
		})
	}
}

func TestMatchModeLabel(t *testing.T) {
	if ModeFirLinksSID.Label() != "Fir Link SID" {
		t.Errorf("unexpected label %q", ModeFirLinksSID.Label())
	}
	if ModeSIDUsedInFIR.Label() != "Fir ma use karel SID" {
		t.Errorf("unexpected label %q", ModeSIDUsedInFIR.Label())
	}
}

func TestStationCodeOf(t *testing.T) {
	tests := []struct {
		identifier string
		want       StationCode
	}{
		{"11188003250001", "11188003"},
		{"11188003", "11188003"},
		{"1118", "1118"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			if got := StationCodeOf(tt.identifier); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		part, total int
		want        string
	}{
		{name: "zero total", part: 0, total: 0, want: "0"},
		{name: "half", part: 1, total: 2, want: "50"},
		{name: "two thirds", part: 2, total: 3, want: "66.67"},
		{name: "one third", part: 1, total: 3, want: "33.33"},
		{name: "all", part: 7, total: 7, want: "100"},
		{name: "exact half rounds to even", part: 1, total: 32, want: "3.12"},
		{name: "half after float product rounds to even", part: 1, total: 160, want: "0.62"},
		{name: "odd half rounds up to even", part: 3, total: 32, want: "9.38"},
		{name: "float below half rounds down", part: 107, total: 4000, want: "2.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(tt.part, tt.total)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExtractedInputColumns(t *testing.T) {
	in := &ExtractedInput{
		CaseRecords: []CaseRecord{
			{CaseNumber1: "A1", CaseNumber2: "B1"},
			{CaseNumber1: "A2", CaseNumber2: ""},
		},
		FirRecords: []FirRecord{
			{FirNumber: "F1", IOName: "Patel"},
			{FirNumber: "", IOName: "nobody"},
			{FirNumber: "F1", IOName: "Shah"},
		},
	}

	cases := in.CaseNumbers()
	want := []string{"A1", "A2", "B1", ""}
	if len(cases) != len(want) {
		t.Fatalf("expected %d case numbers, got %d", len(want), len(cases))
	}
	for i := range want {
		if cases[i] != want[i] {
			t.Errorf("case number %d: expected %q, got %q", i, want[i], cases[i])
		}
	}

	if got := in.FirNumbers(); len(got) != 3 || got[1] != "" {
		t.Errorf("FIR numbers should keep empty cells in place: %v", got)
	}

	names := in.IONames()
	if names["F1"] != "Shah" {
		t.Errorf("later row should win, got %q", names["F1"])
	}
	if _, ok := names[""]; ok {
		t.Errorf("empty FIR number must not be indexed")
	}
}

func TestGroupedRowLabels(t *testing.T) {
	first := GroupedRow{StationCode: "11188003", StationName: "ભીલોડા", ShowLabel: true, FirNumber: "11188003250001"}
	second := GroupedRow{StationCode: "11188003", StationName: "ભીલોડા", FirNumber: "11188003250002"}

	if first.LabelCode() != "11188003" || first.LabelName() != "ભીલોડા" {
		t.Errorf("first row should render its labels")
	}
	if second.LabelCode() != "" || second.LabelName() != "" {
		t.Errorf("continuation row should render empty labels")
	}
	if second.StationCode != "11188003" {
		t.Errorf("continuation row must keep the underlying code")
	}

	data, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["station_code"] != "" || decoded["fir_number"] != "11188003250002" {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestDateRangeString(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	if got := r.String(); got != "Dt.01/01/2024 To Dt.31/03/2024" {
		t.Errorf("unexpected range text %q", got)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, ""},
		{"x", "x"},
		{12, "12"},
		{decimal.RequireFromString("66.67"), "66.67"},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.value); got != tt.want {
			t.Errorf("FormatCell(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestReportSection(t *testing.T) {
	report := &Report{Sections: []*ReportSection{
		{Name: SectionDashboard, EmphasisRows: []int{1, 4}},
	}}

	section := report.Section(SectionDashboard)
	if section == nil {
		t.Fatalf("expected dashboard section")
	}
	if !section.IsEmphasized(1) || !section.IsEmphasized(4) || section.IsEmphasized(2) {
		t.Errorf("unexpected emphasis evaluation")
	}
	if report.Section("missing") != nil {
		t.Errorf("unknown section should be nil")
	}
}
