package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welearn/scholarquery/internal/api"
	"github.com/welearn/scholarquery/internal/config"
	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/source"
)

// fakeSource serves a fixed collection and fails every facet endpoint, which
// exercises the local fallback path the browser-facing handlers rely on.
type fakeSource struct {
	records  []models.Scholarship
	allErr   error
	allCalls int
}

func (f *fakeSource) FetchAll(context.Context) ([]models.Scholarship, error) {
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.records, nil
}

func (f *fakeSource) FetchUpcoming(context.Context) ([]models.Scholarship, error) {
	return nil, source.ErrUnavailable
}

func (f *fakeSource) FetchByCountry(context.Context, string) ([]models.Scholarship, error) {
	return nil, source.ErrUnavailable
}

func (f *fakeSource) FetchByDegree(context.Context, string) ([]models.Scholarship, error) {
	return nil, source.ErrUnavailable
}

func (f *fakeSource) FetchByRegion(context.Context, string) ([]models.Scholarship, error) {
	return nil, source.ErrUnavailable
}

func (f *fakeSource) FetchByTitle(context.Context, string) ([]models.Scholarship, error) {
	return nil, source.ErrUnavailable
}

var _ source.Source = (*fakeSource)(nil)

func testConfig() config.Config {
	return config.Config{
		Port:        "8081",
		CORSOrigins: []string{"http://localhost:4200"},
		AdminSecret: "test-secret",
	}
}

func fixtureRecords() []models.Scholarship {
	return []models.Scholarship{
		{ID: uuid.New(), Title: "Engineering Excellence Award", HostCountry: "DE", DegreeOffered: "Master", Deadline: "2031-06-01", PostedAt: "2026-01-05"},
		{ID: uuid.New(), Title: "Global Health Fellowship", Country: "KE", DegreeOffered: "PhD", Deadline: "2020-01-01", PostedAt: "2026-01-20"},
		{ID: uuid.New(), Title: "Tokyo Tech Grant", HostCountry: "JP", DegreeOffered: "Bachelor", Deadline: "", PostedAt: "2026-02-10"},
	}
}

func doRequest(t *testing.T, srv *api.Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return rec, body
}

func TestHealth(t *testing.T) {
	srv := api.NewServer(&fakeSource{}, nil, testConfig())

	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListScholarships_FilterSortPaginate(t *testing.T) {
	src := &fakeSource{records: fixtureRecords()}
	srv := api.NewServer(src, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/scholarships?facet=degree&value=master&sort=title&direction=asc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["state"])
	assert.EqualValues(t, 1, body["total"])

	list, ok := body["scholarships"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, "Engineering Excellence Award", first["title"])
}

func TestListScholarships_PageSizeWindow(t *testing.T) {
	records := make([]models.Scholarship, 7)
	for i := range records {
		records[i] = models.Scholarship{ID: uuid.New(), Title: "Award", PostedAt: "2026-01-05"}
	}
	src := &fakeSource{records: records}
	srv := api.NewServer(src, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/scholarships?page_size=3&pages=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["total"])
	assert.EqualValues(t, 6, body["visibleCount"])
	assert.Equal(t, true, body["hasMore"])
	assert.Len(t, body["scholarships"].([]any), 6)
}

func TestListScholarships_SourceDownReportsFailure(t *testing.T) {
	src := &fakeSource{allErr: source.ErrUnavailable}
	srv := api.NewServer(src, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/scholarships", nil))

	// The page keeps rendering with whatever was known; the failure rides
	// along in the payload instead of a 5xx.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", body["state"])
	assert.Equal(t, "scholarship source unavailable", body["error"])
}

func TestGetScholarship_Storeless(t *testing.T) {
	srv := api.NewServer(&fakeSource{}, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/scholarships/"+uuid.NewString(), nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["error"], "database")
}

func TestGetStats(t *testing.T) {
	src := &fakeSource{records: fixtureRecords()}
	srv := api.NewServer(src, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 1, stats["active"])
	assert.EqualValues(t, 1, stats["expired"])
	assert.EqualValues(t, 1, stats["noDeadline"])
	assert.Equal(t, true, body["variedDates"])
}

func TestGetTimeline(t *testing.T) {
	src := &fakeSource{records: fixtureRecords()}
	srv := api.NewServer(src, nil, testConfig())

	rec, body := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/timeline?timeframe=monthly&start=2026-01-01&end=2026-03-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "monthly", body["timeframe"])

	series, ok := body["series"].([]any)
	require.True(t, ok)
	require.Len(t, series, 2)

	jan := series[0].(map[string]any)
	feb := series[1].(map[string]any)
	assert.Equal(t, "2026-01", jan["bucketKey"])
	assert.EqualValues(t, 2, jan["count"])
	assert.Equal(t, "2026-02", feb["bucketKey"])
	assert.EqualValues(t, 1, feb["count"])
}

func TestGetTimeline_RejectsBadDates(t *testing.T) {
	srv := api.NewServer(&fakeSource{records: fixtureRecords()}, nil, testConfig())

	rec, _ := doRequest(t, srv,
		httptest.NewRequest(http.MethodGet, "/api/v1/timeline?start=March+1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeed_RequiresAdminSecret(t *testing.T) {
	srv := api.NewServer(&fakeSource{}, nil, testConfig())

	rec, _ := doRequest(t, srv,
		httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	rec, _ = doRequest(t, srv, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSeed_StorelessWithSecret(t *testing.T) {
	srv := api.NewServer(&fakeSource{}, nil, testConfig())

	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("X-Admin-Secret", "test-secret") },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer test-secret") },
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/seed", nil)
		set(req)
		rec, body := doRequest(t, srv, req)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, body["error"], "database")
	}
}

func TestCollectionFetchedOncePerMount(t *testing.T) {
	src := &fakeSource{records: fixtureRecords()}
	srv := api.NewServer(src, nil, testConfig())

	for i := 0; i < 3; i++ {
		rec, _ := doRequest(t, srv,
			httptest.NewRequest(http.MethodGet, "/api/v1/scholarships", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, src.allCalls)
}
