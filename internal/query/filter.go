package query

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/source"
)

// Facet names a filter dimension.
type Facet string

const (
	FacetUpcoming Facet = "upcoming"
	FacetTitle    Facet = "title"
	FacetCountry  Facet = "country"
	FacetDegree   Facet = "degree"
	FacetRegion   Facet = "region"
)

// FilterSpec is the complete description of one query: which facet to filter
// on, its value, and how to order the result. Passed by value; immutable
// within a single run.
type FilterSpec struct {
	Facet     Facet         `json:"facet"`
	Value     string        `json:"value"`
	SortKey   SortKey       `json:"sortKey"`
	Direction SortDirection `json:"sortDirection"`
}

// Pipeline resolves a FilterSpec against the backend's facet endpoints,
// degrading to local predicates over the cached full collection whenever a
// lookup fails. The core contract: a viable fallback path must produce the
// same logical result set a working remote call would.
type Pipeline struct {
	src     source.Source
	regions *RegionIndex
	now     func() time.Time
}

// NewPipeline wires a filter pipeline. regions may be nil to use the
// embedded table; now may be nil to use wall-clock time.
func NewPipeline(src source.Source, regions *RegionIndex, now func() time.Time) *Pipeline {
	if regions == nil {
		regions = DefaultRegionIndex()
	}
	if now == nil {
		now = time.Now
	}
	return &Pipeline{src: src, regions: regions, now: now}
}

// Filter produces the subset of the collection matching spec. all is the
// previously fetched full collection used by the fallback paths; it is read
// but never mutated. Filter never fails as long as a fallback is viable.
func (p *Pipeline) Filter(ctx context.Context, all []models.Scholarship, spec FilterSpec) []models.Scholarship {
	value := strings.TrimSpace(spec.Value)
	if spec.Facet == "" || (spec.Facet != FacetUpcoming && value == "") {
		return all
	}

	var remote []models.Scholarship
	var err error

	switch spec.Facet {
	case FacetUpcoming:
		remote, err = p.src.FetchUpcoming(ctx)
	case FacetTitle:
		remote, err = p.src.FetchByTitle(ctx, value)
	case FacetCountry:
		// The legacy country endpoint is exact-match and upper-cases its
		// argument server-side; mirror that before dispatch.
		remote, err = p.src.FetchByCountry(ctx, strings.ToUpper(value))
	case FacetDegree:
		remote, err = p.src.FetchByDegree(ctx, value)
	case FacetRegion:
		remote, err = p.src.FetchByRegion(ctx, value)
		// An empty region result means "unsupported"; treat like a failure.
		if err == nil && len(remote) == 0 {
			err = source.ErrUnavailable
		}
	default:
		return all
	}

	if err != nil {
		return p.applyLocal(all, spec)
	}
	return dedupeByID(remote)
}

// applyLocal evaluates the facet predicate over the cached collection. This
// is the fallback path and must mirror the remote predicates exactly.
func (p *Pipeline) applyLocal(all []models.Scholarship, spec FilterSpec) []models.Scholarship {
	value := strings.TrimSpace(spec.Value)
	now := p.now().UTC()

	matched := make([]models.Scholarship, 0, len(all))
	for _, rec := range all {
		if p.matches(rec, spec.Facet, value, now) {
			matched = append(matched, rec)
		}
	}
	return dedupeByID(matched)
}

func (p *Pipeline) matches(rec models.Scholarship, facet Facet, value string, now time.Time) bool {
	switch facet {
	case FacetUpcoming:
		deadline, ok := rec.DeadlineTime()
		return ok && deadline.After(now)
	case FacetTitle:
		return containsFold(rec.Title, value)
	case FacetCountry:
		// The local fallback stays a case-insensitive substring match over
		// both the current field and its legacy alias.
		return containsFold(rec.HostCountry, value) || containsFold(rec.Country, value)
	case FacetDegree:
		return containsFold(rec.DegreeOffered, value)
	case FacetRegion:
		return p.regions.Contains(value, rec.CountryName())
	default:
		return true
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// dedupeByID drops later duplicates; id equality is the sole identity key.
func dedupeByID(records []models.Scholarship) []models.Scholarship {
	seen := make(map[uuid.UUID]bool, len(records))
	out := records[:0:0]
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out
}
