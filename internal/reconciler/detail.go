package reconciler

import (
	"sid-reconciliation-service/internal/matcher"
	"sid-reconciliation-service/internal/models"
)

// BuildDetailTable lays the SID and FIR rows side by side. Row i carries the
// case numbers of SID row i and the FIR number of FIR row i, so the table has
// as many rows as the longer source. Each non-empty FIR number is placed in
// FinalOutput when matched holds it as true and in PendingSID otherwise.
// Rows with an empty FIR number are kept with empty outputs.
func BuildDetailTable(cases []models.CaseRecord, firs []models.FirRecord, matched map[string]bool) []models.ReconciliationRow {
	n := len(cases)
	if len(firs) > n {
		n = len(firs)
	}

	rows := make([]models.ReconciliationRow, n)
	for i := range rows {
		row := &rows[i]
		if i < len(cases) {
			row.CaseNumber1 = cases[i].CaseNumber1
			row.CaseNumber2 = cases[i].CaseNumber2
		}
		if i >= len(firs) || firs[i].FirNumber == "" {
			continue
		}

		row.FirNumber = firs[i].FirNumber
		if matched[row.FirNumber] {
			row.FinalOutput = row.FirNumber
		} else {
			row.PendingSID = row.FirNumber
		}
		row.StationCode, row.StationName = matcher.ResolveIdentifier(row.FirNumber)
	}
	return rows
}
