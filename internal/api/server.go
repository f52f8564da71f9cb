package api

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/welearn/scholarquery/internal/config"
	"github.com/welearn/scholarquery/internal/db"
	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/query"
	"github.com/welearn/scholarquery/internal/source"
)

type Server struct {
	Store        *db.Store // nil when running storeless against the legacy backend
	Orchestrator *query.Orchestrator
	Echo         *echo.Echo

	adminSecret string
}

// NewServer wires the HTTP surface around a scholarship source. store may be
// nil; detail and seed endpoints then report the capability as missing.
func NewServer(src source.Source, store *db.Store, cfg config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	s := &Server{
		Store:        store,
		Orchestrator: query.NewOrchestrator(src),
		Echo:         e,
		adminSecret:  resolveAdminSecret(cfg.AdminSecret),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/scholarships", s.handleListScholarships)
	api.GET("/scholarships/:id", s.handleGetScholarship)
	api.GET("/stats", s.handleGetStats)
	api.GET("/timeline", s.handleGetTimeline)

	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/seed", s.handleSeed)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// handleListScholarships runs one query pipeline pass: facet filter (with
// fallback), sort, then reveal `pages` pages of `page_size` records.
func (s *Server) handleListScholarships(c echo.Context) error {
	spec := query.FilterSpec{
		Facet:     query.Facet(strings.TrimSpace(c.QueryParam("facet"))),
		Value:     c.QueryParam("value"),
		SortKey:   query.SortKey(c.QueryParam("sort")),
		Direction: query.SortDirection(c.QueryParam("direction")),
	}
	if spec.SortKey == "" {
		spec.SortKey = query.SortByDeadline
	}
	if spec.Direction != query.SortDesc {
		spec.Direction = query.SortAsc
	}

	pageSize := query.DefaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	pages := 1
	if v, err := strconv.Atoi(c.QueryParam("pages")); err == nil && v > 1 {
		pages = v
	}

	result, err := s.Orchestrator.RunQuery(c.Request().Context(), spec)
	if err != nil {
		// Unrecoverable fetch failure: surface the last known results
		// alongside the failure state instead of an empty page.
		return c.JSON(http.StatusOK, map[string]interface{}{
			"scholarships": result.Visible,
			"total":        len(result.All),
			"hasMore":      result.HasMore,
			"state":        s.Orchestrator.CurrentState(),
			"error":        "scholarship source unavailable",
		})
	}

	window := query.NewWindow(pageSize)
	window.SetRecords(result.All)
	for i := 1; i < pages; i++ {
		window.ShowMore()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scholarships": window.Visible(),
		"total":        len(result.All),
		"visibleCount": window.VisibleCount(),
		"hasMore":      window.HasMore(),
		"state":        s.Orchestrator.CurrentState(),
	})
}

func (s *Server) handleGetScholarship(c echo.Context) error {
	if s.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "detail lookups need a database"})
	}
	sch, err := s.Store.GetScholarship(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, sch)
}

func (s *Server) handleGetStats(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := s.Orchestrator.SummaryStats(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	varied, _ := s.Orchestrator.HasVariedCreationDates(ctx)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats":       stats,
		"variedDates": varied,
	})
}

func (s *Server) handleGetTimeline(c echo.Context) error {
	tf := query.ParseTimeframe(c.QueryParam("timeframe"))

	var start, end *time.Time
	if raw := c.QueryParam("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
		}
		start = &t
	}
	if raw := c.QueryParam("end"); raw != "" {
		// The range is half-open, so the end date itself is excluded.
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "end must be YYYY-MM-DD"})
		}
		end = &t
	}

	series, err := s.Orchestrator.AggregatedSeries(c.Request().Context(), tf, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"timeframe": tf,
		"series":    series,
	})
}

func (s *Server) handleSeed(c echo.Context) error {
	if s.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "seeding needs a database"})
	}
	ctx := c.Request().Context()

	count := 0
	for _, seed := range sampleScholarships() {
		if err := s.Store.Upsert(ctx, seed); err != nil {
			c.Logger().Errorf("Failed to seed: %v", err)
			continue
		}
		count++
	}

	s.Orchestrator.InvalidateCache()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Seed complete",
		"count":   count,
	})
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == s.adminSecret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == s.adminSecret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

// resolveAdminSecret prefers the configured secret and otherwise generates an
// ephemeral one, so unauthenticated access is never the default.
func resolveAdminSecret(configured string) string {
	if configured != "" {
		return configured
	}
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate ADMIN_SECRET fallback: %v", err)
	}
	log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	return base64.RawURLEncoding.EncodeToString(buf)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

// sampleScholarships is the seed set for local development.
func sampleScholarships() []models.Scholarship {
	return []models.Scholarship{
		{
			Title:           "DAAD EPOS Development-Related Postgraduate Courses",
			Description:     "<p>Fully funded master's and PhD scholarships at German universities for applicants from developing countries.</p>",
			HostCountry:     "DE",
			DegreeOffered:   "Master, PhD",
			HostUniversity:  "DAAD partner universities",
			ProgramDuration: "12-42 months",
			Deadline:        "2026-10-15",
			PostedAt:        "2026-08-01",
			OfficialLink:    "https://www.daad.de/en/study-and-research-in-germany/scholarships/epos/",
			Link:            "https://www.daad.de/en/study-and-research-in-germany/scholarships/epos/",
		},
		{
			Title:           "Chevening Scholarships",
			Description:     "<p>The UK government's global scholarship programme for one-year master's degrees.</p>",
			HostCountry:     "GB",
			DegreeOffered:   "Master",
			HostUniversity:  "Any UK university",
			ProgramDuration: "1 year",
			Deadline:        "2026-11-04",
			PostedAt:        "2026-08-05",
			OfficialLink:    "https://www.chevening.org/",
			Link:            "https://www.chevening.org/",
		},
		{
			Title:           "MEXT Japanese Government Scholarship",
			Description:     "<p>Japanese government scholarship covering tuition, flights and a monthly stipend for research students.</p>",
			HostCountry:     "JP",
			DegreeOffered:   "Master, PhD",
			HostUniversity:  "Japanese national universities",
			ProgramDuration: "2-5 years",
			Deadline:        "2026-06-20",
			PostedAt:        "2026-05-28",
			OfficialLink:    "https://www.studyinjapan.go.jp/en/planning/scholarship/",
			Link:            "https://www.studyinjapan.go.jp/en/planning/scholarship/",
		},
		{
			Title:           "Fulbright Foreign Student Program",
			Description:     "<p>Graduate study and research in the United States for students from over 160 countries.</p>",
			HostCountry:     "US",
			DegreeOffered:   "Master, PhD",
			HostUniversity:  "US host institutions",
			ProgramDuration: "1-2 years",
			Deadline:        "",
			PostedAt:        "2026-07-15",
			OfficialLink:    "https://foreign.fulbrightonline.org/",
			Link:            "https://foreign.fulbrightonline.org/",
		},
		{
			Title:           "Erasmus Mundus Joint Masters",
			Description:     "<p>Integrated study programmes delivered by consortia of European universities with EU-funded scholarships.</p>",
			HostCountry:     "FR",
			DegreeOffered:   "Master",
			HostUniversity:  "Erasmus Mundus consortia",
			ProgramDuration: "1-2 years",
			Deadline:        "2026-01-15",
			PostedAt:        "2025-11-02",
			OfficialLink:    "https://www.eacea.ec.europa.eu/scholarships/erasmus-mundus-catalogue_en",
			Link:            "https://www.eacea.ec.europa.eu/scholarships/erasmus-mundus-catalogue_en",
		},
		{
			Title:           "Australia Awards Scholarships",
			Description:     "<p>Long-term awards for study at Australian universities, funded by the Department of Foreign Affairs and Trade.</p>",
			HostCountry:     "AU",
			DegreeOffered:   "Bachelor, Master",
			HostUniversity:  "Australian universities",
			ProgramDuration: "Duration of the degree",
			Deadline:        "2026-04-30",
			PostedAt:        "2026-02-01",
			OfficialLink:    "https://www.dfat.gov.au/people-to-people/australia-awards/australia-awards-scholarships",
			Link:            "https://www.dfat.gov.au/people-to-people/australia-awards/australia-awards-scholarships",
		},
	}
}
