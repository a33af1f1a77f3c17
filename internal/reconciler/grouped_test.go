package reconciler

import (
	"testing"

	"sid-reconciliation-service/internal/models"
)

func TestBuildGroupedListing(t *testing.T) {
	detail := BuildDetailTable(nil, []models.FirRecord{
		{FirNumber: "11188010250001"},
		{FirNumber: "11188003250002"},
		{FirNumber: ""},
		{FirNumber: "11188003250001"},
	}, map[string]bool{"11188003250001": true})

	ioNames := map[string]string{
		"11188003250002": "PSI Shah",
		"11188003250001": "P.I. Patel",
	}

	got := BuildGroupedListing(detail, ioNames)
	if len(got) != len(detail) {
		t.Fatalf("grouped listing must keep every row: expected %d, got %d", len(detail), len(got))
	}

	want := []struct {
		labelCode string
		labelName string
		fir       string
		link      string
		io        string
	}{
		{"11188003", "ભીલોડા", "11188003250001", "", ""},
		{"", "", "11188003250002", "11188003250002", "PSI Shah"},
		{"11188010", "શામળાજી", "11188010250001", "11188010250001", ""},
		{"", "", "", "", ""},
	}
	for i, w := range want {
		row := got[i]
		if row.LabelCode() != w.labelCode || row.LabelName() != w.labelName {
			t.Errorf("row %d: expected labels %q/%q, got %q/%q", i, w.labelCode, w.labelName, row.LabelCode(), row.LabelName())
		}
		if row.FirNumber != w.fir || row.PendingFirLink != w.link || row.IOName != w.io {
			t.Errorf("row %d: unexpected row %+v", i, row)
		}
	}

	if got[1].StationCode != "11188003" || got[1].StationName != "ભીલોડા" {
		t.Errorf("suppressed row must keep its underlying station, got %+v", got[1])
	}
}

func TestBuildGroupedListingBlankFirBlock(t *testing.T) {
	detail := BuildDetailTable([]models.CaseRecord{
		{CaseNumber1: "11188003250001"},
		{CaseNumber1: "11188003250009"},
		{CaseNumber1: "11188010250009"},
	}, []models.FirRecord{
		{FirNumber: ""},
		{FirNumber: "11188003250001"},
	}, map[string]bool{"11188003250001": true})

	got := BuildGroupedListing(detail, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	if got[0].FirNumber != "11188003250001" || got[0].LabelCode() != "11188003" {
		t.Errorf("station rows must come first, got %+v", got[0])
	}
	// rows without a FIR number form one trailing block with empty labels
	if !got[1].ShowLabel || got[2].ShowLabel {
		t.Errorf("blank block should open once: %+v %+v", got[1], got[2])
	}
	for _, row := range got[1:] {
		if row.FirNumber != "" || row.LabelCode() != "" || row.LabelName() != "" {
			t.Errorf("unexpected blank block row %+v", row)
		}
	}
}

func TestBuildGroupedListingDoesNotReorderInput(t *testing.T) {
	detail := BuildDetailTable(nil, []models.FirRecord{{FirNumber: "B"}, {FirNumber: "A"}}, nil)
	BuildGroupedListing(detail, nil)

	if detail[0].FirNumber != "B" {
		t.Errorf("detail table must stay in source order")
	}
}

func TestBuildGroupedListingDuplicates(t *testing.T) {
	detail := BuildDetailTable(nil, []models.FirRecord{
		{FirNumber: "11188003250001"},
		{FirNumber: "11188003250001"},
	}, nil)

	got := BuildGroupedListing(detail, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if !got[0].ShowLabel || got[1].ShowLabel {
		t.Errorf("only the first row of a block renders labels")
	}
}
