// querytab runs a scholarship query against the local database and prints
// the result window and dashboard counters as tables.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/welearn/scholarquery/internal/config"
	"github.com/welearn/scholarquery/internal/db"
	"github.com/welearn/scholarquery/internal/query"
)

func main() {
	facet := flag.String("facet", "", "filter facet: upcoming, title, country, degree, region")
	value := flag.String("value", "", "facet value")
	sortBy := flag.String("sort", "deadline", "sort key: deadline, title, provider, createdAt")
	direction := flag.String("direction", "asc", "sort direction: asc, desc")
	pages := flag.Int("pages", 1, "number of pages to reveal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("querytab needs DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	orch := query.NewOrchestrator(store)

	spec := query.FilterSpec{
		Facet:     query.Facet(*facet),
		Value:     *value,
		SortKey:   query.SortKey(*sortBy),
		Direction: query.SortDirection(*direction),
	}

	result, err := orch.RunQuery(ctx, spec)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	for i := 1; i < *pages; i++ {
		result = orch.ShowMore()
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "Country", "Degree", "Deadline", "Posted"})
	for _, rec := range result.Visible {
		posted := ""
		if created, ok := rec.EffectiveCreatedAt(); ok {
			posted = created.Format("2006-01-02")
		}
		t.AppendRow(table.Row{rec.Title, rec.CountryName(), rec.DegreeOffered, rec.Deadline, posted})
	}
	t.Render()

	log.Printf("showing %d of %d (hasMore=%v)", result.VisibleCount, len(result.All), result.HasMore)

	stats, err := orch.SummaryStats(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}

	st := table.NewWriter()
	st.SetOutputMirror(os.Stdout)
	st.AppendHeader(table.Row{"Total", "Active", "Expired", "Urgent", "No Deadline", "Today", "This Week", "This Month"})
	st.AppendRow(table.Row{
		stats.Total, stats.Active, stats.Expired, stats.Urgent, stats.NoDeadline,
		stats.UploadedToday, stats.UploadedThisWeek, stats.UploadedThisMonth,
	})
	st.Render()
}
