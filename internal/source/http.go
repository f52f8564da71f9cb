package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/welearn/scholarquery/internal/models"
)

// Client talks to the legacy scholarship REST backend.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

// NewClient builds a client for the given backend base URL
// (e.g. "https://api.welearn.example/api").
func NewClient(baseURL string) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

var _ Source = (*Client)(nil)

func (c *Client) FetchAll(ctx context.Context) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships")
}

func (c *Client) FetchUpcoming(ctx context.Context) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships/upcoming")
}

func (c *Client) FetchByCountry(ctx context.Context, country string) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships/country/"+url.PathEscape(country))
}

func (c *Client) FetchByDegree(ctx context.Context, degree string) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships/degree/"+url.PathEscape(degree))
}

func (c *Client) FetchByRegion(ctx context.Context, region string) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships/region/"+url.PathEscape(region))
}

func (c *Client) FetchByTitle(ctx context.Context, title string) ([]models.Scholarship, error) {
	return c.getList(ctx, "/scholarships/search?title="+url.QueryEscape(title))
}

// getList performs a GET and decodes a scholarship array. The backend wraps
// some list responses in {"scholarships": [...]}; both shapes are accepted.
func (c *Client) getList(ctx context.Context, path string) ([]models.Scholarship, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}

	var list []models.Scholarship
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Scholarships []models.Scholarship `json:"scholarships"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return wrapped.Scholarships, nil
}
