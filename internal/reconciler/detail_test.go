package reconciler

import (
	"testing"

	"sid-reconciliation-service/internal/models"
)

func TestBuildDetailTable(t *testing.T) {
	cases := []models.CaseRecord{
		{CaseNumber1: "11188003250001", CaseNumber2: ""},
	}
	firs := []models.FirRecord{
		{FirNumber: "11188003250001"},
		{FirNumber: ""},
		{FirNumber: "11188099250002"},
	}
	matched := map[string]bool{"11188003250001": true, "11188099250002": false}

	rows := BuildDetailTable(cases, firs, matched)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := []models.ReconciliationRow{
		{
			CaseNumber1: "11188003250001",
			FirNumber:   "11188003250001",
			FinalOutput: "11188003250001",
			StationCode: "11188003",
			StationName: "ભીલોડા",
		},
		{},
		{
			FirNumber:   "11188099250002",
			PendingSID:  "11188099250002",
			StationCode: "11188099",
		},
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestBuildDetailTableAlignment(t *testing.T) {
	tests := []struct {
		name  string
		cases int
		firs  int
		want  int
	}{
		{name: "more SID rows", cases: 5, firs: 2, want: 5},
		{name: "more FIR rows", cases: 1, firs: 4, want: 4},
		{name: "no SID rows", cases: 0, firs: 3, want: 3},
		{name: "empty", cases: 0, firs: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases := make([]models.CaseRecord, tt.cases)
			for i := range cases {
				cases[i].CaseNumber1 = "S"
			}
			firs := make([]models.FirRecord, tt.firs)
			for i := range firs {
				firs[i].FirNumber = "F"
			}

			rows := BuildDetailTable(cases, firs, nil)
			if len(rows) != tt.want {
				t.Fatalf("expected %d rows, got %d", tt.want, len(rows))
			}
			for i, row := range rows {
				if (i < tt.cases) != (row.CaseNumber1 == "S") {
					t.Errorf("row %d: SID side misaligned", i)
				}
				if (i < tt.firs) != (row.FirNumber == "F") {
					t.Errorf("row %d: FIR side misaligned", i)
				}
			}
		})
	}
}

func TestBuildDetailTableExactlyOneOutput(t *testing.T) {
	firs := []models.FirRecord{{FirNumber: "A"}, {FirNumber: "B"}, {FirNumber: "A"}}
	rows := BuildDetailTable(nil, firs, map[string]bool{"A": true})

	for i, row := range rows {
		if row.FirNumber == "" {
			continue
		}
		if (row.FinalOutput == "") == (row.PendingSID == "") {
			t.Errorf("row %d: exactly one of final output and pending SID must be set: %+v", i, row)
		}
	}
	if !rows[0].IsMatched() || rows[1].IsMatched() || !rows[2].IsMatched() {
		t.Errorf("unexpected match flags %+v", rows)
	}
}
