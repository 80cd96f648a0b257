package ea

import (
	"context"
	"slices"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/memo"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

// DefaultStatus is the station status used when none is given.
const DefaultStatus = "Active"

// StationsKey identifies a cached station list. Fields hold resolved values.
type StationsKey struct {
	River     string
	Parameter domain.Parameter
	Status    string
}

// MeasuresKey identifies a cached measure list.
type MeasuresKey struct {
	Station   string
	Parameter domain.Parameter
}

// CachedClient memoizes station and measure lookups per time bucket.
// Readings always go upstream. Returned slices are shared between callers
// and must not be modified.
type CachedClient struct {
	client   *Client
	stations *memo.Memoizer[StationsKey, []domain.Station]
	measures *memo.Memoizer[MeasuresKey, []domain.Measure]
}

// NewCachedClient wraps client with time-bucketed caches.
func NewCachedClient(client *Client, metrics *observability.Metrics, opts ...memo.Option) *CachedClient {
	c := &CachedClient{client: client}
	named := func(name string) []memo.Option {
		return append(slices.Clone(opts), memo.WithMetrics(metrics, name))
	}

	c.stations = memo.New(func(ctx context.Context, k StationsKey) ([]domain.Station, error) {
		return client.Stations(ctx, StationQuery{
			RiverName: k.River,
			Parameter: string(k.Parameter),
			Status:    k.Status,
		})
	}, named("stations")...)

	c.measures = memo.New(func(ctx context.Context, k MeasuresKey) ([]domain.Measure, error) {
		return client.Measures(ctx, MeasureQuery{
			Station:   k.Station,
			Parameter: string(k.Parameter),
		})
	}, named("measures")...)

	return c
}

// Stations returns the stations on a river measuring parameter. An empty
// status means DefaultStatus and shares its cache entry.
func (c *CachedClient) Stations(ctx context.Context, river string, parameter domain.Parameter, status string) ([]domain.Station, error) {
	if status == "" {
		status = DefaultStatus
	}
	return c.stations.Get(ctx, StationsKey{River: river, Parameter: parameter, Status: status})
}

// Measures returns a station's measures for parameter, level by default.
func (c *CachedClient) Measures(ctx context.Context, station string, parameter domain.Parameter) ([]domain.Measure, error) {
	if parameter == "" {
		parameter = domain.ParameterLevel
	}
	return c.measures.Get(ctx, MeasuresKey{Station: station, Parameter: parameter})
}

// Readings fetches readings for a measure without caching.
func (c *CachedClient) Readings(ctx context.Context, measureID string, q ReadingQuery) ([]domain.Reading, error) {
	return c.client.Readings(ctx, measureID, q)
}
