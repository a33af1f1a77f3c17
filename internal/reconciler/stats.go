package reconciler

import (
	"sort"

	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/pkg/errors"
)

// AggregateStations rolls classifications up per station name. Entries whose
// station is unknown are left out. Groups are ranked by match percentage,
// highest first; equal percentages keep first-appearance order.
func AggregateStations(classified []models.Classification) []models.StationStat {
	index := make(map[string]int)
	var stats []models.StationStat

	for _, c := range classified {
		if c.StationName == "" || c.Identifier == "" {
			continue
		}
		i, ok := index[c.StationName]
		if !ok {
			i = len(stats)
			index[c.StationName] = i
			stats = append(stats, models.StationStat{StationName: c.StationName})
		}
		stats[i].FirCount++
		if c.Matched {
			stats[i].MatchedCount++
		} else {
			stats[i].PendingCount++
		}
	}

	for i := range stats {
		stats[i].MatchPercentage = models.Percentage(stats[i].MatchedCount, stats[i].FirCount)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].MatchPercentage.GreaterThan(stats[j].MatchPercentage)
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}

// ComputeTotals sums the station groups. An empty universe has no defined
// percentage and is reported as CodeNoData.
func ComputeTotals(stats []models.StationStat) (models.StationTotals, error) {
	var totals models.StationTotals
	for _, s := range stats {
		totals.FirCount += s.FirCount
		totals.MatchedCount += s.MatchedCount
		totals.PendingCount += s.PendingCount
	}
	if totals.FirCount == 0 {
		return models.StationTotals{}, errors.ReconciliationError(errors.CodeNoData, "station totals", nil)
	}
	totals.MatchPercentage = models.Percentage(totals.MatchedCount, totals.FirCount)
	return totals, nil
}
