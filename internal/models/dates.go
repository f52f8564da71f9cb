package models

import (
	"regexp"
	"strings"
	"time"
)

// timeFormats covers the shapes the legacy backend has been observed to emit.
// ISO variants come first because they are unambiguous.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
}

var isoDatePattern = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)

// ParseFlexibleTime parses a timestamp string from the backend in any of the
// supported formats. All results are normalized to UTC. Returns false when
// nothing matches; callers treat such records as having no usable date.
func ParseFlexibleTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, format := range timeFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), true
		}
	}

	// Last resort: an ISO date embedded in surrounding text, e.g.
	// "Deadline: 2026-03-15 (23:59 CET)".
	if m := isoDatePattern.FindString(raw); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
