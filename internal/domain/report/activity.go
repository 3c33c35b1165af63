package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityType tells which kind of record an activity entry points to
type ActivityType string

const (
	ActivityClient  ActivityType = "client"
	ActivityInvoice ActivityType = "invoice"
)

// ActivityLimit is the size of the recent activity feed
const ActivityLimit = 10

// Activity is one entry of the recent activity feed
type Activity struct {
	Type     ActivityType
	ID       uuid.UUID
	Title    string
	Subtitle string
	Total    *decimal.Decimal
	Date     time.Time
}

// MergeActivity sorts entries newest first and keeps at most limit of them
func MergeActivity(limit int, groups ...[]Activity) []Activity {
	all := make([]Activity, 0)
	for _, g := range groups {
		all = append(all, g...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
