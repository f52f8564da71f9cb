// Package source defines the remote collaborators the query engine consumes:
// the legacy scholarship backend's collection and facet-lookup endpoints.
package source

import (
	"context"
	"errors"

	"github.com/welearn/scholarquery/internal/models"
)

// ErrUnavailable marks a transport or server failure on a facet lookup.
// The filter pipeline recovers from it by filtering locally.
var ErrUnavailable = errors.New("source unavailable")

// Source is the fetch surface of the scholarship backend. Implementations
// must be safe for concurrent use; every call may suspend on the network.
type Source interface {
	FetchAll(ctx context.Context) ([]models.Scholarship, error)
	FetchUpcoming(ctx context.Context) ([]models.Scholarship, error)
	FetchByCountry(ctx context.Context, country string) ([]models.Scholarship, error)
	FetchByDegree(ctx context.Context, degree string) ([]models.Scholarship, error)
	// FetchByRegion may return an empty slice to mean "region unsupported";
	// callers treat that the same as a failure.
	FetchByRegion(ctx context.Context, region string) ([]models.Scholarship, error)
	FetchByTitle(ctx context.Context, title string) ([]models.Scholarship, error)
}
