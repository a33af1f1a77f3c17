package reconciler

import (
	"sort"

	"sid-reconciliation-service/internal/models"
)

// BuildGroupedListing orders detail rows by station code then FIR number and
// marks the first row of every station block. Rows without a station code
// sort after all others. Every detail row appears exactly once.
//
// The pending FIR link of a row is its pending SID; the IO name is looked up
// by that link and stays empty for matched rows.
func BuildGroupedListing(detail []models.ReconciliationRow, ioNames map[string]string) []models.GroupedRow {
	sorted := make([]models.ReconciliationRow, len(detail))
	copy(sorted, detail)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.StationCode != b.StationCode {
			if a.StationCode == "" || b.StationCode == "" {
				return b.StationCode == ""
			}
			return a.StationCode < b.StationCode
		}
		return a.FirNumber < b.FirNumber
	})

	out := make([]models.GroupedRow, len(sorted))
	var previous models.StationCode
	for i, row := range sorted {
		out[i] = models.GroupedRow{
			StationCode:    row.StationCode,
			StationName:    row.StationName,
			ShowLabel:      i == 0 || row.StationCode != previous,
			FirNumber:      row.FirNumber,
			FinalOutput:    row.FinalOutput,
			PendingSID:     row.PendingSID,
			PendingFirLink: row.PendingSID,
		}
		if row.PendingSID != "" {
			out[i].IOName = ioNames[row.PendingSID]
		}
		previous = row.StationCode
	}
	return out
}
