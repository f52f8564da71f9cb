package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe selects the bucket granularity for temporal aggregation.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

// ParseTimeframe maps a query-parameter value onto a Timeframe,
// defaulting to daily.
func ParseTimeframe(raw string) Timeframe {
	switch Timeframe(strings.ToLower(strings.TrimSpace(raw))) {
	case TimeframeWeekly:
		return TimeframeWeekly
	case TimeframeMonthly:
		return TimeframeMonthly
	case TimeframeYearly:
		return TimeframeYearly
	default:
		return TimeframeDaily
	}
}

// TruncateToDay zeroes the time-of-day in UTC.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps Go's Sunday=0 convention onto ISO's Monday=1..Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ISOWeekNumber computes the ISO-8601 week number (1..53): shift the date to
// the Thursday of its week, then count weeks from January 1st of the shifted
// year. Week 1 is the week containing the year's first Thursday.
func ISOWeekNumber(t time.Time) int {
	day := TruncateToDay(t)
	thursday := day.AddDate(0, 0, 4-isoWeekday(day))
	jan1 := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearDay := int(thursday.Sub(jan1).Hours()/24) + 1
	return (yearDay + 6) / 7
}

// isoWeekYear returns the year owning the ISO week of t, which is the
// calendar year of the Thursday of t's week.
func isoWeekYear(t time.Time) int {
	day := TruncateToDay(t)
	return day.AddDate(0, 0, 4-isoWeekday(day)).Year()
}

// BucketKey tags the bucket containing t for the given timeframe:
// YYYY-MM-DD (daily), YYYY-Www (weekly), YYYY-MM (monthly), YYYY (yearly).
func BucketKey(t time.Time, tf Timeframe) string {
	t = t.UTC()
	switch tf {
	case TimeframeWeekly:
		return fmt.Sprintf("%04d-W%02d", isoWeekYear(t), ISOWeekNumber(t))
	case TimeframeMonthly:
		return t.Format("2006-01")
	case TimeframeYearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// BucketStart converts a bucket key back into an instant usable for ordering.
// Weekly keys map to the Monday of the ISO week, monthly to the first of the
// month, yearly to January 1st. Not an exact inverse of BucketKey.
func BucketStart(key string, tf Timeframe) (time.Time, bool) {
	switch tf {
	case TimeframeWeekly:
		parts := strings.SplitN(key, "-W", 2)
		if len(parts) != 2 {
			return time.Time{}, false
		}
		year, err1 := strconv.Atoi(parts[0])
		week, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || week < 1 || week > 53 {
			return time.Time{}, false
		}
		// January 4th always falls in ISO week 1.
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		week1Monday := jan4.AddDate(0, 0, 1-isoWeekday(jan4))
		return week1Monday.AddDate(0, 0, (week-1)*7), true
	case TimeframeMonthly:
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case TimeframeYearly:
		t, err := time.Parse("2006", key)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		t, err := time.Parse("2006-01-02", key)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
}

// bucketLabel renders the human-facing label the chart shows for a key.
func bucketLabel(key string, tf Timeframe) string {
	start, ok := BucketStart(key, tf)
	if !ok {
		return key
	}
	switch tf {
	case TimeframeWeekly:
		return fmt.Sprintf("W%02d %d", ISOWeekNumber(start), isoWeekYear(start))
	case TimeframeMonthly:
		return start.Format("Jan 2006")
	case TimeframeYearly:
		return start.Format("2006")
	default:
		return start.Format("Jan 2")
	}
}
