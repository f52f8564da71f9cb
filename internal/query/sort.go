package query

import (
	"sort"
	"strings"
	"time"

	"github.com/welearn/scholarquery/internal/models"
)

// SortKey names the field a result set is ordered by.
type SortKey string

const (
	SortByDeadline  SortKey = "deadline"
	SortByTitle     SortKey = "title"
	SortByProvider  SortKey = "provider"
	SortByCreatedAt SortKey = "createdAt"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// epoch is what a missing chronological value sorts as, so undated records
// come first in ascending order.
var epoch = time.Unix(0, 0).UTC()

// Compare is a total preorder over two records for the given key and
// direction. Text keys compare case-insensitively with missing values as "";
// date keys compare chronologically with missing values as the epoch.
func Compare(a, b models.Scholarship, key SortKey, dir SortDirection) int {
	var cmp int
	switch key {
	case SortByTitle:
		cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByProvider:
		cmp = strings.Compare(strings.ToLower(a.HostUniversity), strings.ToLower(b.HostUniversity))
	case SortByCreatedAt:
		cmp = compareTimes(timeOrEpoch(a.EffectiveCreatedAt()), timeOrEpoch(b.EffectiveCreatedAt()))
	default: // deadline
		cmp = compareTimes(timeOrEpoch(a.DeadlineTime()), timeOrEpoch(b.DeadlineTime()))
	}

	if dir == SortDesc {
		return -cmp
	}
	return cmp
}

func timeOrEpoch(t time.Time, ok bool) time.Time {
	if !ok {
		return epoch
	}
	return t
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// SortRecords returns a stably sorted copy; the input slice is left alone so
// cached collections stay in fetch order.
func SortRecords(records []models.Scholarship, key SortKey, dir SortDirection) []models.Scholarship {
	out := make([]models.Scholarship, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i], out[j], key, dir) < 0
	})
	return out
}
