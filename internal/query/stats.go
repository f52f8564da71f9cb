package query

import (
	"math"
	"time"

	"github.com/welearn/scholarquery/internal/models"
)

// Summary holds the point-in-time counters shown on the admin dashboard.
// Active, expired and noDeadline partition the collection; urgent is an
// overlapping counter and always a subset of active.
type Summary struct {
	Total             int `json:"total"`
	Active            int `json:"active"`
	Expired           int `json:"expired"`
	Urgent            int `json:"urgent"`
	NoDeadline        int `json:"noDeadline"`
	UploadedToday     int `json:"uploadedToday"`
	UploadedYesterday int `json:"uploadedYesterday"`
	UploadedThisWeek  int `json:"uploadedThisWeek"`
	UploadedThisMonth int `json:"uploadedThisMonth"`
}

// urgentWindowDays is the deadline horizon that flags a record as urgent.
const urgentWindowDays = 7

// DaysUntil counts whole days from now until deadline, rounding up. A
// deadline later today returns 1; a passed deadline goes negative.
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// Summarize classifies every record against the reference instant.
// A record lands in exactly one of active/expired/noDeadline; a deadline
// that fails to parse counts as no deadline rather than as expired.
func Summarize(records []models.Scholarship, now time.Time) Summary {
	now = now.UTC()
	today := TruncateToDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekStart := today.AddDate(0, 0, -7)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	sum := Summary{Total: len(records)}

	for _, rec := range records {
		deadline, ok := rec.DeadlineTime()
		switch {
		case !ok:
			sum.NoDeadline++
		case deadline.After(now):
			sum.Active++
			if d := DaysUntil(deadline, now); d >= 0 && d <= urgentWindowDays {
				sum.Urgent++
			}
		default:
			sum.Expired++
		}

		created, ok := rec.EffectiveCreatedAt()
		if !ok {
			continue
		}
		day := TruncateToDay(created)
		if day.Equal(today) {
			sum.UploadedToday++
		}
		if day.Equal(yesterday) {
			sum.UploadedYesterday++
		}
		if !day.Before(weekStart) && day.Before(tomorrow) {
			sum.UploadedThisWeek++
		}
		if !day.Before(monthStart) && day.Before(tomorrow) {
			sum.UploadedThisMonth++
		}
	}

	return sum
}
