package query

import (
	"time"

	"github.com/welearn/scholarquery/internal/models"
)

// Batch imports often stamp every record with the same creation date, which
// renders on the dashboard as a single bar. When that happens the aggregator
// redistributes records across a trailing 30-day window so the trend chart
// stays informative. Display-time only: nothing is ever written back.
const spreadWindowDays = 30

// HasVariedDates reports whether any record's effective creation date falls
// on a different calendar day than the first record's.
func HasVariedDates(records []models.Scholarship) bool {
	if len(records) == 0 {
		return false
	}
	firstDay := effectiveDay(records[0])
	for _, rec := range records[1:] {
		if !effectiveDay(rec).Equal(firstDay) {
			return true
		}
	}
	return false
}

func effectiveDay(rec models.Scholarship) time.Time {
	t, ok := rec.EffectiveCreatedAt()
	if !ok {
		return time.Time{}
	}
	return TruncateToDay(t)
}

// SpreadOverTrailingWindow returns copies of records with synthetic creation
// dates: record i is stamped today minus (i mod 30) days, in input order.
// The input slice is never mutated.
func SpreadOverTrailingWindow(records []models.Scholarship, today time.Time) []models.Scholarship {
	today = TruncateToDay(today)
	out := make([]models.Scholarship, len(records))
	for i, rec := range records {
		adjusted := rec
		daysBack := i % spreadWindowDays
		// post_at has top priority among the creation aliases, so setting it
		// is enough to override whatever the record carried.
		adjusted.PostedAt = today.AddDate(0, 0, -daysBack).Format("2006-01-02")
		out[i] = adjusted
	}
	return out
}
