package parsers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dayFirstLayouts are tried in order; the first that parses wins
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006",
	"2-1-2006",
	"02-01-2006 15:04:05",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-Jan-2006",
	"2 Jan 2006",
	"02/01/06",
}

// ParseSubmissionDate parses a date cell day-first. Raw workbook cells hold
// Excel serial numbers, which are converted directly.
func ParseSubmissionDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("date serial %q out of range", value)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateToDay(t), nil
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateToDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
