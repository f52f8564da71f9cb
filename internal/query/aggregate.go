package query

import (
	"sort"
	"time"

	"github.com/welearn/scholarquery/internal/models"
)

// AggregatedPoint is one chart-ready bucket: a key, its display label and the
// number of records whose effective creation date falls inside it.
type AggregatedPoint struct {
	BucketKey string `json:"bucketKey"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
}

// gapFillFloorDays is how far back daily aggregation always extends, so a
// sparse dataset still produces a two-week x-axis instead of one lonely bar.
const gapFillFloorDays = 14

// Aggregate buckets records into an ordered time series.
//
// Records are filtered to the half-open range [start, end) on their effective
// creation date (nil bounds are unbounded; records without a parseable date
// are silently excluded). If the surviving records all share one calendar day,
// they are redistributed across a trailing window first. For the daily
// timeframe every missing day between min(earliest bucket, today-14d) and
// max(latest bucket, today) is filled with a zero-count point.
func Aggregate(records []models.Scholarship, tf Timeframe, start, end *time.Time, today time.Time) []AggregatedPoint {
	filtered := filterByCreatedRange(records, start, end)
	if len(filtered) == 0 {
		return []AggregatedPoint{}
	}

	if len(filtered) > 1 && !HasVariedDates(filtered) {
		filtered = SpreadOverTrailingWindow(filtered, today)
	}

	counts := make(map[string]int)
	for _, rec := range filtered {
		created, ok := rec.EffectiveCreatedAt()
		if !ok {
			continue
		}
		counts[BucketKey(created, tf)]++
	}
	if len(counts) == 0 {
		return []AggregatedPoint{}
	}

	if tf == TimeframeDaily {
		fillDailyGaps(counts, today)
	}

	points := make([]AggregatedPoint, 0, len(counts))
	for key, count := range counts {
		points = append(points, AggregatedPoint{
			BucketKey: key,
			Label:     bucketLabel(key, tf),
			Count:     count,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		si, _ := BucketStart(points[i].BucketKey, tf)
		sj, _ := BucketStart(points[j].BucketKey, tf)
		return si.Before(sj)
	})

	return points
}

func filterByCreatedRange(records []models.Scholarship, start, end *time.Time) []models.Scholarship {
	out := make([]models.Scholarship, 0, len(records))
	for _, rec := range records {
		created, ok := rec.EffectiveCreatedAt()
		if !ok {
			continue
		}
		if start != nil && created.Before(*start) {
			continue
		}
		if end != nil && !created.Before(*end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// fillDailyGaps inserts zero-count entries so consecutive days render as a
// contiguous axis. The window is anchored on today so recent quiet days show
// as zeros too.
func fillDailyGaps(counts map[string]int, today time.Time) {
	var earliest, latest time.Time
	for key := range counts {
		day, ok := BucketStart(key, TimeframeDaily)
		if !ok {
			continue
		}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
		if latest.IsZero() || day.After(latest) {
			latest = day
		}
	}
	if earliest.IsZero() {
		return
	}

	today = TruncateToDay(today)
	if floor := today.AddDate(0, 0, -gapFillFloorDays); floor.Before(earliest) {
		earliest = floor
	}
	if today.After(latest) {
		latest = today
	}

	for day := earliest; !day.After(latest); day = day.AddDate(0, 0, 1) {
		key := BucketKey(day, TimeframeDaily)
		if _, ok := counts[key]; !ok {
			counts[key] = 0
		}
	}
}
