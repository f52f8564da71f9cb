package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scholarship is the unit of data served by the legacy scholarship backend.
// Date-bearing fields are kept as raw strings because the backend emits a mix
// of formats (and sometimes garbage); parsing happens in the accessors below.
type Scholarship struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	HostCountry     string    `json:"hostCountry"`
	Country         string    `json:"country"` // legacy alias for hostCountry
	DegreeOffered   string    `json:"degreeOffered"`
	HostUniversity  string    `json:"hostUniversity"`
	ProgramDuration string    `json:"programDuration"`
	Deadline        string    `json:"deadline"` // blank means "no deadline"
	PostedAt        string    `json:"post_at"`
	CreatedAt       string    `json:"created_at"`
	AddedDate       string    `json:"addedDate"`
	OfficialLink    string    `json:"officialLink"`
	Link            string    `json:"link"`
}

// EffectiveCreatedAt resolves the record's creation instant from its three
// legacy aliases, first non-empty wins: post_at, created_at, addedDate.
// Returns false when no alias parses to a usable instant.
func (s Scholarship) EffectiveCreatedAt() (time.Time, bool) {
	for _, raw := range []string{s.PostedAt, s.CreatedAt, s.AddedDate} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if t, ok := ParseFlexibleTime(raw); ok {
			return t, true
		}
		// First non-empty alias wins even when malformed; a later alias must
		// not shadow it with a different instant.
		return time.Time{}, false
	}
	return time.Time{}, false
}

// HasDeadline reports whether the record carries any deadline at all.
// Records without one form their own class: they are never expired or urgent.
func (s Scholarship) HasDeadline() bool {
	return strings.TrimSpace(s.Deadline) != ""
}

// DeadlineTime parses the deadline field. Returns false for blank or
// malformed values.
func (s Scholarship) DeadlineTime() (time.Time, bool) {
	if !s.HasDeadline() {
		return time.Time{}, false
	}
	return ParseFlexibleTime(s.Deadline)
}

// CountryName returns the host country, falling back to the legacy alias.
func (s Scholarship) CountryName() string {
	if strings.TrimSpace(s.HostCountry) != "" {
		return s.HostCountry
	}
	return s.Country
}

// LinkURL returns the outbound link, preferring the official one.
func (s Scholarship) LinkURL() string {
	if strings.TrimSpace(s.OfficialLink) != "" {
		return s.OfficialLink
	}
	return s.Link
}
