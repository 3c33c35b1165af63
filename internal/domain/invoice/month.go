package invoice

import (
	"sort"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
)

// MonthLayout is the YYYY-MM layout used by the month filter
const MonthLayout = "2006-01"

// MonthRange is a half-open [From, To) calendar month
type MonthRange struct {
	From time.Time
	To   time.Time
}

// ParseMonth parses a YYYY-MM string into its date range
func ParseMonth(s string) (MonthRange, error) {
	t, err := time.ParseInLocation(MonthLayout, s, time.UTC)
	if err != nil {
		return MonthRange{}, shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format")
	}
	return MonthRange{From: t, To: t.AddDate(0, 1, 0)}, nil
}

// Contains reports whether d falls inside the month
func (r MonthRange) Contains(d time.Time) bool {
	return !d.Before(r.From) && d.Before(r.To)
}

// DistinctMonths returns the YYYY-MM labels of dates, newest first
func DistinctMonths(dates []time.Time) []string {
	seen := make(map[string]struct{}, len(dates))
	months := make([]time.Time, 0)
	for _, d := range dates {
		m := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := m.Format(MonthLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].After(months[j]) })
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.Format(MonthLayout)
	}
	return out
}
