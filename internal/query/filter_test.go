package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/source"
)

// stubSource is a test double for source.Source. Set only the fields a test
// needs; unset lookups report the source as unavailable.
type stubSource struct {
	fetchAll       func(ctx context.Context) ([]models.Scholarship, error)
	fetchUpcoming  func(ctx context.Context) ([]models.Scholarship, error)
	fetchByCountry func(ctx context.Context, country string) ([]models.Scholarship, error)
	fetchByDegree  func(ctx context.Context, degree string) ([]models.Scholarship, error)
	fetchByRegion  func(ctx context.Context, region string) ([]models.Scholarship, error)
	fetchByTitle   func(ctx context.Context, title string) ([]models.Scholarship, error)
}

func (s *stubSource) FetchAll(ctx context.Context) ([]models.Scholarship, error) {
	if s.fetchAll == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchAll(ctx)
}

func (s *stubSource) FetchUpcoming(ctx context.Context) ([]models.Scholarship, error) {
	if s.fetchUpcoming == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchUpcoming(ctx)
}

func (s *stubSource) FetchByCountry(ctx context.Context, country string) ([]models.Scholarship, error) {
	if s.fetchByCountry == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchByCountry(ctx, country)
}

func (s *stubSource) FetchByDegree(ctx context.Context, degree string) ([]models.Scholarship, error) {
	if s.fetchByDegree == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchByDegree(ctx, degree)
}

func (s *stubSource) FetchByRegion(ctx context.Context, region string) ([]models.Scholarship, error) {
	if s.fetchByRegion == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchByRegion(ctx, region)
}

func (s *stubSource) FetchByTitle(ctx context.Context, title string) ([]models.Scholarship, error) {
	if s.fetchByTitle == nil {
		return nil, source.ErrUnavailable
	}
	return s.fetchByTitle(ctx, title)
}

var _ source.Source = (*stubSource)(nil)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func testCollection() []models.Scholarship {
	return []models.Scholarship{
		{ID: uuid.New(), Title: "Engineering Excellence Award", HostCountry: "DE", DegreeOffered: "Master", Deadline: "2026-06-01"},
		{ID: uuid.New(), Title: "Global Health Fellowship", Country: "KE", DegreeOffered: "PhD", Deadline: "2020-01-01"},
		{ID: uuid.New(), Title: "Tokyo Tech Grant", HostCountry: "JP", DegreeOffered: "Bachelor", Deadline: ""},
		{ID: uuid.New(), Title: "Paris Arts Scholarship", HostCountry: "FR", DegreeOffered: "Master of Arts", Deadline: "2026-04-10"},
	}
}

func titlesOf(records []models.Scholarship) map[string]bool {
	out := make(map[string]bool, len(records))
	for _, rec := range records {
		out[rec.Title] = true
	}
	return out
}

func TestFilter_LocalPredicates(t *testing.T) {
	all := testCollection()
	p := NewPipeline(&stubSource{}, nil, fixedNow) // every remote lookup fails

	cases := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{"upcoming", FilterSpec{Facet: FacetUpcoming}, []string{"Engineering Excellence Award", "Paris Arts Scholarship"}},
		{"title substring", FilterSpec{Facet: FacetTitle, Value: "health"}, []string{"Global Health Fellowship"}},
		{"country legacy alias", FilterSpec{Facet: FacetCountry, Value: "ke"}, []string{"Global Health Fellowship"}},
		{"degree", FilterSpec{Facet: FacetDegree, Value: "master"}, []string{"Engineering Excellence Award", "Paris Arts Scholarship"}},
		{"region", FilterSpec{Facet: FacetRegion, Value: "Europe"}, []string{"Engineering Excellence Award", "Paris Arts Scholarship"}},
		{"no facet", FilterSpec{}, []string{"Engineering Excellence Award", "Global Health Fellowship", "Tokyo Tech Grant", "Paris Arts Scholarship"}},
	}

	for _, tc := range cases {
		got := p.Filter(context.Background(), all, tc.spec)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d records, want %d (%v)", tc.name, len(got), len(tc.want), titlesOf(got))
		}
		names := titlesOf(got)
		for _, title := range tc.want {
			if !names[title] {
				t.Fatalf("%s: missing %q in %v", tc.name, title, names)
			}
		}
	}
}

func TestFilter_RemoteResultPreferred(t *testing.T) {
	all := testCollection()
	remoteOnly := models.Scholarship{ID: uuid.New(), Title: "Remote Hit", HostCountry: "DE"}

	src := &stubSource{
		fetchByCountry: func(_ context.Context, country string) ([]models.Scholarship, error) {
			if country != "DE" {
				return nil, errors.New("unexpected dispatch value: " + country)
			}
			return []models.Scholarship{remoteOnly}, nil
		},
	}
	p := NewPipeline(src, nil, fixedNow)

	// The value is upper-cased before remote dispatch.
	got := p.Filter(context.Background(), all, FilterSpec{Facet: FacetCountry, Value: "de"})
	if len(got) != 1 || got[0].Title != "Remote Hit" {
		t.Fatalf("expected the remote result to win, got %v", titlesOf(got))
	}
}

func TestFilter_FallbackEquivalence(t *testing.T) {
	all := testCollection()
	regions := DefaultRegionIndex()

	// A correct remote region endpoint applies the same predicate.
	working := &stubSource{
		fetchByRegion: func(_ context.Context, region string) ([]models.Scholarship, error) {
			var out []models.Scholarship
			for _, rec := range all {
				if regions.Contains(region, rec.CountryName()) {
					out = append(out, rec)
				}
			}
			return out, nil
		},
	}
	broken := &stubSource{
		fetchByRegion: func(context.Context, string) ([]models.Scholarship, error) {
			return nil, source.ErrUnavailable
		},
	}

	spec := FilterSpec{Facet: FacetRegion, Value: "Europe"}
	fromRemote := NewPipeline(working, nil, fixedNow).Filter(context.Background(), all, spec)
	fromFallback := NewPipeline(broken, nil, fixedNow).Filter(context.Background(), all, spec)

	if len(fromRemote) != len(fromFallback) {
		t.Fatalf("fallback diverged: remote %d vs local %d", len(fromRemote), len(fromFallback))
	}
	remoteTitles := titlesOf(fromRemote)
	for title := range titlesOf(fromFallback) {
		if !remoteTitles[title] {
			t.Fatalf("fallback produced %q not present in remote result", title)
		}
	}
}

func TestFilter_EmptyRegionResultTriggersFallback(t *testing.T) {
	all := testCollection()
	src := &stubSource{
		fetchByRegion: func(context.Context, string) ([]models.Scholarship, error) {
			return []models.Scholarship{}, nil // endpoint exists but is unsupported
		},
	}
	p := NewPipeline(src, nil, fixedNow)

	got := p.Filter(context.Background(), all, FilterSpec{Facet: FacetRegion, Value: "Asia"})
	if len(got) != 1 || got[0].Title != "Tokyo Tech Grant" {
		t.Fatalf("expected local fallback for empty region result, got %v", titlesOf(got))
	}
}

func TestFilter_DeduplicatesById(t *testing.T) {
	dup := models.Scholarship{ID: uuid.New(), Title: "Twice"}
	src := &stubSource{
		fetchUpcoming: func(context.Context) ([]models.Scholarship, error) {
			return []models.Scholarship{dup, dup}, nil
		},
	}
	p := NewPipeline(src, nil, fixedNow)

	got := p.Filter(context.Background(), nil, FilterSpec{Facet: FacetUpcoming})
	if len(got) != 1 {
		t.Fatalf("expected duplicates collapsed by id, got %d", len(got))
	}
}
