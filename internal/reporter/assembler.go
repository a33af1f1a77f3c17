package reporter

import (
	"fmt"

	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/internal/reconciler"
)

// Column schemas of the four report sections
var (
	DetailColumns = []string{
		"Case_Number_1", "Case Number 2", "FIR Number", "Final Output",
		"Pending SID", "FIR Prefix", "Mapped Police Station",
	}
	GroupedColumns = []string{
		"FIR Prefix", "Mapped Police Station", "FIR Number", "Final Output",
		"Pending SID", "Pending Fir Link", "IO Name",
	}
	DashboardColumns = []string{
		"ક્રમ સં.", "પો.સ્ટેનુ નામ", "એફ.આઇ.આર સંખ્યા", "SID સંખ્યા", "SID બાકી સંખ્યા", "ટકાવારી",
	}
	SummaryColumns = []string{
		"વિશ્લેષણ મોડ", "કુલ FIR", "કુલ SID", "બાકી SID", "ટકાવારી",
	}
)

// TotalLabel names the total row of the dashboard
const TotalLabel = "કુલ"

// DashboardTitle is the title row text of the dashboard for a run
func DashboardTitle(mode models.MatchMode, dates models.DateRange) string {
	if mode == models.ModeSIDUsedInFIR {
		return fmt.Sprintf("E-Sakshya SID (FIR used) %s", dates)
	}
	return fmt.Sprintf("E-Sakshya SID  %s", dates)
}

// AssembleReport arranges the tables of a run into the detail, grouped,
// dashboard and summary sections. No value is recomputed here.
func AssembleReport(result *reconciler.ReconciliationResult) *models.Report {
	return &models.Report{
		RunID:        result.RunID,
		Mode:         result.Mode,
		StationLabel: result.StationLabel,
		DateRange:    result.DateRange,
		Sections: []*models.ReportSection{
			detailSection(result.Detail),
			groupedSection(result.Grouped),
			dashboardSection(result),
			summarySection(result),
		},
	}
}

func detailSection(detail []models.ReconciliationRow) *models.ReportSection {
	rows := make([]models.Row, len(detail))
	for i, r := range detail {
		rows[i] = models.Row{
			r.CaseNumber1, r.CaseNumber2, r.FirNumber, r.FinalOutput,
			r.PendingSID, string(r.StationCode), r.StationName,
		}
	}
	return &models.ReportSection{Name: models.SectionDetail, Columns: DetailColumns, Rows: rows}
}

func groupedSection(grouped []models.GroupedRow) *models.ReportSection {
	rows := make([]models.Row, len(grouped))
	for i, g := range grouped {
		rows[i] = models.Row{
			g.LabelCode(), g.LabelName(), g.FirNumber, g.FinalOutput,
			g.PendingSID, g.PendingFirLink, g.IOName,
		}
	}
	return &models.ReportSection{Name: models.SectionGrouped, Columns: GroupedColumns, Rows: rows}
}

// dashboardSection carries its own title and header rows, so it is written
// headerless. The header row and the total row are emphasised.
func dashboardSection(result *reconciler.ReconciliationResult) *models.ReportSection {
	title := make(models.Row, len(DashboardColumns))
	title[0] = DashboardTitle(result.Mode, result.DateRange)

	header := make(models.Row, len(DashboardColumns))
	for i, c := range DashboardColumns {
		header[i] = c
	}

	rows := make([]models.Row, 0, len(result.Stations)+3)
	rows = append(rows, title, header)
	for _, s := range result.Stations {
		rows = append(rows, models.Row{
			s.Rank, s.StationName, s.FirCount, s.MatchedCount, s.PendingCount, s.MatchPercentage,
		})
	}

	t := result.Totals
	rows = append(rows, models.Row{
		"", TotalLabel, t.FirCount, t.MatchedCount, t.PendingCount, t.MatchPercentage,
	})

	return &models.ReportSection{
		Name:         models.SectionDashboard,
		Columns:      DashboardColumns,
		Rows:         rows,
		Headerless:   true,
		EmphasisRows: []int{1, len(rows) - 1},
	}
}

func summarySection(result *reconciler.ReconciliationResult) *models.ReportSection {
	t := result.Totals
	return &models.ReportSection{
		Name:    models.SectionSummary,
		Columns: SummaryColumns,
		Rows: []models.Row{
			{result.Mode.Label(), t.FirCount, t.MatchedCount, t.PendingCount, t.MatchPercentage},
		},
	}
}
