package ea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

// DefaultBaseURL is the root of the EA flood-monitoring API.
const DefaultBaseURL = "https://environment.data.gov.uk/flood-monitoring"

const source = "ea"

// Client queries the EA flood-monitoring API. Each call issues one GET.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an EA flood-monitoring client.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Stations lists monitoring stations matching q.
func (c *Client) Stations(ctx context.Context, q StationQuery) ([]domain.Station, error) {
	return getItems[domain.Station](ctx, c, c.baseURL+"/id/stations", q.Values())
}

// Measures lists measures matching q.
func (c *Client) Measures(ctx context.Context, q MeasureQuery) ([]domain.Measure, error) {
	return getItems[domain.Measure](ctx, c, c.baseURL+"/id/measures", q.Values())
}

// Readings lists readings for a measure. measureID is the measure's @id URI.
func (c *Client) Readings(ctx context.Context, measureID string, q ReadingQuery) ([]domain.Reading, error) {
	if measureID == "" {
		return nil, errors.New("readings: empty measure id")
	}
	return getItems[domain.Reading](ctx, c, strings.TrimSuffix(measureID, "/")+"/readings", q.Values())
}

// listResponse is the envelope of every EA list endpoint.
type listResponse[T any] struct {
	Items []T `json:"items"`
}

func getItems[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var resp listResponse[T]
	start := time.Now()
	err := c.doRequest(ctx, fullURL, &resp)
	c.metrics.ObserveUpstream(source, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	// A body without "items" is an empty result, not an error.
	if resp.Items == nil {
		resp.Items = []T{}
	}
	c.logger.Debug("ea request complete", "url", fullURL, "items", len(resp.Items))
	return resp.Items, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &domain.FetchError{Source: source, URL: fullURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{Source: source, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.FetchError{
			Source:     source,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("ea API error: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.FetchError{Source: source, URL: fullURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
