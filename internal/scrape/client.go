package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

const (
	ClosuresURL   = "https://www.gov.uk/guidance/river-thames-restrictions-and-closures"
	ConditionsURL = "https://www.gov.uk/guidance/river-thames-current-river-conditions"
)

const source = "govuk"

// Client fetches and reconciles the gov.uk river pages.
type Client struct {
	http          *resty.Client
	closuresURL   string
	conditionsURL string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClient creates a page client. Requests are not retried.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "text/html"),
		closuresURL:   ClosuresURL,
		conditionsURL: ConditionsURL,
		logger:        logger,
		metrics:       metrics,
	}
}

// WithURLs points the client at alternative page locations, such as mirrors
// or test servers.
func (c *Client) WithURLs(closuresURL, conditionsURL string) *Client {
	c.closuresURL = closuresURL
	c.conditionsURL = conditionsURL
	return c
}

// Closures returns the rows of the restrictions and closures page.
func (c *Client) Closures(ctx context.Context) ([]domain.Closure, error) {
	body, err := c.fetch(ctx, c.closuresURL)
	if err != nil {
		return nil, err
	}
	closures, err := ParseClosures(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FetchError{Source: source, URL: c.closuresURL, Err: err}
	}
	c.logger.Debug("page scraped", "url", c.closuresURL, "rows", len(closures))
	c.recordRows(domain.NoticeClosure, len(closures))
	return closures, nil
}

// Conditions returns the reaches of the current river conditions page.
func (c *Client) Conditions(ctx context.Context) ([]domain.Condition, error) {
	body, err := c.fetch(ctx, c.conditionsURL)
	if err != nil {
		return nil, err
	}
	conditions, err := ParseConditions(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FetchError{Source: source, URL: c.conditionsURL, Err: err}
	}
	c.logger.Debug("page scraped", "url", c.conditionsURL, "rows", len(conditions))
	c.recordRows(domain.NoticeCondition, len(conditions))
	return conditions, nil
}

// fetch GETs a page and returns its body. Transport failures and non-200
// responses are reported as *domain.FetchError.
func (c *Client) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	switch {
	case err != nil:
		err = &domain.FetchError{Source: source, URL: pageURL, Err: err}
	case resp.StatusCode() != http.StatusOK:
		err = &domain.FetchError{
			Source:     source,
			URL:        pageURL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}
	c.metrics.ObserveUpstream(source, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) recordRows(kind domain.NoticeKind, n int) {
	if c.metrics == nil {
		return
	}
	c.metrics.ScrapedRows.WithLabelValues(string(kind)).Add(float64(n))
}
