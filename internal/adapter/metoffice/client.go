// Package metoffice is a client for the Met Office DataHub site-specific
// forecast API.
package metoffice

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

// DefaultBaseURL is the root of the site-specific point forecast endpoints.
const DefaultBaseURL = "https://data.hub.api.metoffice.gov.uk/sitespecific/v0/point"

const source = "metoffice"

// Client fetches point forecasts. The API key travels in the apikey header.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClient creates a Met Office client. It fails with domain.ErrMissingAPIKey
// when apiKey is empty.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.ErrMissingAPIKey
	}
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("apikey", apiKey),
		baseURL: DefaultBaseURL,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// forecastResponse is the GeoJSON envelope; only the time series is kept.
type forecastResponse struct {
	Features []struct {
		Properties struct {
			TimeSeries []domain.ForecastStep `json:"timeSeries"`
		} `json:"properties"`
	} `json:"features"`
}

// Forecast returns the forecast time series nearest to lat/lon. A response
// without features yields an empty slice.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, timestep domain.Timestep) ([]domain.ForecastStep, error) {
	if timestep == "" {
		timestep = domain.TimestepHourly
	}
	endpoint := c.baseURL + "/" + string(timestep)

	start := time.Now()
	steps, err := c.fetch(ctx, endpoint, lat, lon)
	c.metrics.ObserveUpstream(source, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("forecast fetched", "timestep", timestep, "steps", len(steps))
	return steps, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, lat, lon float64) ([]domain.ForecastStep, error) {
	var body forecastResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":                 strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude":                strconv.FormatFloat(lon, 'f', -1, 64),
			"excludeParameterMetadata": "true",
		}).
		SetResult(&body).
		Get(endpoint)
	if err != nil {
		return nil, &domain.FetchError{Source: source, URL: endpoint, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &domain.FetchError{
			Source:     source,
			URL:        endpoint,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("metoffice API error: %s", strings.TrimSpace(truncate(resp.String(), 512))),
		}
	}

	if len(body.Features) == 0 || body.Features[0].Properties.TimeSeries == nil {
		return []domain.ForecastStep{}, nil
	}
	return body.Features[0].Properties.TimeSeries, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
