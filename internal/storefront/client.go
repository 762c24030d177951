// Package storefront is the HTTP client for the upstream catalog
// search/lookup API. It is the only place upstream wire shapes are
// known; malformed entries are dropped here rather than propagated
// downstream.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonesrussell/storerank/internal/domain"
	"github.com/jonesrussell/storerank/internal/logger"
)

// ErrBadRequest marks a 4xx response from the provider: the query
// itself is malformed and retrying cannot help.
var ErrBadRequest = errors.New("storefront rejected request")

// Transport defaults for the provider HTTP client.
const (
	defaultTimeout             = 10 * time.Second
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Config configures the storefront client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the storefront catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a storefront client. The timeout applies per call
// and must stay below the caller-facing SLA.
func NewClient(cfg Config, log logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		logger: log,
	}
}

// searchResponse is the provider wire format.
type searchResponse struct {
	ResultCount int         `json:"resultCount"`
	Results     []wireEntry `json:"results"`
}

// wireEntry mirrors the provider's loosely-shaped result object.
type wireEntry struct {
	TrackID          int64   `json:"trackId"`
	TrackName        string  `json:"trackName"`
	TrackCensored    string  `json:"trackCensoredName"`
	Subtitle         string  `json:"subtitle"`
	Description      string  `json:"description"`
	PrimaryGenreName string  `json:"primaryGenreName"`
	ArtworkURL       string  `json:"artworkUrl100"`
	AverageRating    float64 `json:"averageUserRating"`
	RatingCount      int64   `json:"userRatingCount"`
	Price            float64 `json:"price"`
	TrackViewURL     string  `json:"trackViewUrl"`
}

// toEntry validates a wire entry and converts it into the domain
// snapshot. Entries without an id or name are rejected.
func (w wireEntry) toEntry() (domain.CatalogEntry, bool) {
	if w.TrackID == 0 || w.TrackName == "" {
		return domain.CatalogEntry{}, false
	}

	title := w.TrackCensored
	if title == "" {
		title = w.TrackName
	}

	return domain.CatalogEntry{
		ID:          strconv.FormatInt(w.TrackID, 10),
		Name:        w.TrackName,
		Title:       title,
		Subtitle:    w.Subtitle,
		Description: w.Description,
		Category:    w.PrimaryGenreName,
		IconURL:     w.ArtworkURL,
		Rating:      w.AverageRating,
		RatingCount: w.RatingCount,
		Price:       w.Price,
		URL:         w.TrackViewURL,
	}, true
}

// Search issues a free-text catalog search. An empty result list is a
// legitimate zero-match outcome, not an error.
func (c *Client) Search(ctx context.Context, term, country string, limit int) ([]domain.CatalogEntry, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("country", country)
	params.Set("entity", "software")
	params.Set("limit", strconv.Itoa(limit))

	return c.fetch(ctx, "/search", params)
}

// Lookup resolves a catalog entry by its id. Returns
// domain.ErrNotFound when the id does not exist.
func (c *Client) Lookup(ctx context.Context, id, country string) (*domain.CatalogEntry, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("country", country)

	entries, err := c.fetch(ctx, "/lookup", params)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("lookup id %s: %w", id, domain.ErrNotFound)
	}
	return &entries[0], nil
}

// fetch performs one provider call, mapping transport failures and
// non-2xx statuses onto the pipeline error taxonomy.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]domain.CatalogEntry, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("Storefront call completed",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d", ErrBadRequest, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrUpstreamUnavailable, err)
	}

	entries := make([]domain.CatalogEntry, 0, len(body.Results))
	dropped := 0
	for _, w := range body.Results {
		entry, ok := w.toEntry()
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}
	if dropped > 0 {
		c.logger.Warn("Dropped malformed storefront entries",
			logger.String("path", path),
			logger.Int("dropped", dropped),
		)
	}

	return entries, nil
}
