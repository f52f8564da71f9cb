package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/query"
	"github.com/welearn/scholarquery/internal/source"
)

// Store serves scholarships out of Postgres. It implements source.Source so
// the query orchestrator can run against a local snapshot of the collection
// instead of the legacy backend.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ source.Source = (*Store)(nil)

const selectCols = `id, title, description, host_country, legacy_country,
	degree_offered, host_university, program_duration, deadline,
	post_at, created_at, added_date, official_link, link`

func scanScholarship(scan func(dest ...interface{}) error) (models.Scholarship, error) {
	var s models.Scholarship
	var description, hostCountry, legacyCountry, degree, university *string
	var duration, deadline, postAt, createdAt, addedDate, officialLink, link *string

	err := scan(
		&s.ID, &s.Title, &description, &hostCountry, &legacyCountry,
		&degree, &university, &duration, &deadline,
		&postAt, &createdAt, &addedDate, &officialLink, &link,
	)
	if err != nil {
		return s, err
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&s.Description, description)
	assign(&s.HostCountry, hostCountry)
	assign(&s.Country, legacyCountry)
	assign(&s.DegreeOffered, degree)
	assign(&s.HostUniversity, university)
	assign(&s.ProgramDuration, duration)
	assign(&s.Deadline, deadline)
	assign(&s.PostedAt, postAt)
	assign(&s.CreatedAt, createdAt)
	assign(&s.AddedDate, addedDate)
	assign(&s.OfficialLink, officialLink)
	assign(&s.Link, link)

	return s, nil
}

func (st *Store) queryList(ctx context.Context, sql string, args ...interface{}) ([]models.Scholarship, error) {
	rows, err := st.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []models.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if out == nil {
		out = []models.Scholarship{}
	}
	return out, nil
}

func (st *Store) FetchAll(ctx context.Context) ([]models.Scholarship, error) {
	sql := fmt.Sprintf("SELECT %s FROM scholarships ORDER BY inserted_at DESC", selectCols)
	return st.queryList(ctx, sql)
}

// FetchUpcoming returns deadline-bearing records whose deadline is still in
// the future. Deadlines live in mixed-format TEXT, so the time comparison
// happens application-side.
func (st *Store) FetchUpcoming(ctx context.Context) ([]models.Scholarship, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM scholarships WHERE deadline IS NOT NULL AND TRIM(deadline) <> '' ORDER BY inserted_at DESC",
		selectCols,
	)
	withDeadline, err := st.queryList(ctx, sql)
	if err != nil {
		return nil, err
	}
	return filterUpcoming(withDeadline, time.Now().UTC()), nil
}

// filterUpcoming keeps records whose parsed deadline is after now.
func filterUpcoming(records []models.Scholarship, now time.Time) []models.Scholarship {
	out := make([]models.Scholarship, 0, len(records))
	for _, rec := range records {
		if deadline, ok := rec.DeadlineTime(); ok && deadline.After(now) {
			out = append(out, rec)
		}
	}
	return out
}

func (st *Store) FetchByCountry(ctx context.Context, country string) ([]models.Scholarship, error) {
	sql := fmt.Sprintf(`SELECT %s FROM scholarships
		WHERE UPPER(COALESCE(host_country, '')) LIKE '%%' || UPPER($1) || '%%'
		   OR UPPER(COALESCE(legacy_country, '')) LIKE '%%' || UPPER($1) || '%%'
		ORDER BY inserted_at DESC`, selectCols)
	return st.queryList(ctx, sql, country)
}

func (st *Store) FetchByDegree(ctx context.Context, degree string) ([]models.Scholarship, error) {
	sql := fmt.Sprintf(`SELECT %s FROM scholarships
		WHERE LOWER(COALESCE(degree_offered, '')) LIKE '%%' || LOWER($1) || '%%'
		ORDER BY inserted_at DESC`, selectCols)
	return st.queryList(ctx, sql, degree)
}

// FetchByRegion resolves the region to its country-code set and matches
// either country column. An unknown region yields an empty result, which the
// filter pipeline treats as "unsupported" and handles locally.
func (st *Store) FetchByRegion(ctx context.Context, region string) ([]models.Scholarship, error) {
	codes := query.DefaultRegionIndex().Countries(region)
	if len(codes) == 0 {
		return []models.Scholarship{}, nil
	}
	sql := fmt.Sprintf(`SELECT %s FROM scholarships
		WHERE UPPER(COALESCE(host_country, '')) = ANY($1)
		   OR UPPER(COALESCE(legacy_country, '')) = ANY($1)
		ORDER BY inserted_at DESC`, selectCols)
	return st.queryList(ctx, sql, codes)
}

func (st *Store) FetchByTitle(ctx context.Context, title string) ([]models.Scholarship, error) {
	sql := fmt.Sprintf(`SELECT %s FROM scholarships
		WHERE LOWER(title) LIKE '%%' || LOWER($1) || '%%'
		ORDER BY inserted_at DESC`, selectCols)
	return st.queryList(ctx, sql, title)
}

// GetScholarship loads one record by id.
func (st *Store) GetScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	sql := fmt.Sprintf("SELECT %s FROM scholarships WHERE id = $1", selectCols)
	row := st.pool.QueryRow(ctx, sql, id)
	s, err := scanScholarship(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("scholarship %s not found", id)
		}
		return nil, fmt.Errorf("get scholarship: %w", err)
	}
	return &s, nil
}

// Upsert writes a record keyed on its link, sanitizing text fields first.
func (st *Store) Upsert(ctx context.Context, s models.Scholarship) error {
	s = SanitizeScholarship(s)
	sql := `
		INSERT INTO scholarships (
			title, description, host_country, legacy_country, degree_offered,
			host_university, program_duration, deadline, post_at, created_at,
			added_date, official_link, link
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (link) DO UPDATE SET
			updated_at = NOW(),
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			host_country = EXCLUDED.host_country,
			degree_offered = EXCLUDED.degree_offered,
			deadline = EXCLUDED.deadline
	`
	_, err := st.pool.Exec(ctx, sql,
		s.Title, s.Description, s.HostCountry, s.Country, s.DegreeOffered,
		s.HostUniversity, s.ProgramDuration, s.Deadline, s.PostedAt, s.CreatedAt,
		s.AddedDate, s.OfficialLink, s.Link,
	)
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}
