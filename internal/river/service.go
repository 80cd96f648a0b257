// Package river answers station, reading and chart queries for one river by
// composing cached EA lookups.
package river

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/thames-conditions-service/internal/adapter/ea"
	"github.com/couchcryptid/thames-conditions-service/internal/domain"
)

// DefaultRiver is used when a query names no river.
const DefaultRiver = "River Thames"

// Source is the subset of the EA client the service needs. Station and
// measure lookups are expected to be cached.
type Source interface {
	Stations(ctx context.Context, river string, parameter domain.Parameter, status string) ([]domain.Station, error)
	Measures(ctx context.Context, station string, parameter domain.Parameter) ([]domain.Measure, error)
	Readings(ctx context.Context, measureID string, q ea.ReadingQuery) ([]domain.Reading, error)
}

// Service resolves stations by name and fetches their readings.
type Service struct {
	source Source
	river  string
	logger *slog.Logger
}

// NewService creates a Service. An empty river means DefaultRiver.
func NewService(source Source, river string, logger *slog.Logger) *Service {
	if river == "" {
		river = DefaultRiver
	}
	return &Service{source: source, river: river, logger: logger}
}

// River returns the service's default river name.
func (s *Service) River() string { return s.river }

func (s *Service) riverOr(river string) string {
	if river == "" {
		return s.river
	}
	return river
}

// Levels returns the active level stations on river.
func (s *Service) Levels(ctx context.Context, river string) ([]domain.Station, error) {
	return s.source.Stations(ctx, s.riverOr(river), domain.ParameterLevel, ea.DefaultStatus)
}

// Flow returns the active flow stations on river.
func (s *Service) Flow(ctx context.Context, river string) ([]domain.Station, error) {
	return s.source.Stations(ctx, s.riverOr(river), domain.ParameterFlow, ea.DefaultStatus)
}

// LookupStationName returns the label of the first level station whose label
// contains search.
func (s *Service) LookupStationName(ctx context.Context, search, river string) (string, error) {
	st, err := s.lookup(ctx, search, river)
	if err != nil {
		return "", err
	}
	return st.Label.String(), nil
}

// LookupStationURL returns the @id of the first level station whose label
// contains name.
func (s *Service) LookupStationURL(ctx context.Context, name, river string) (string, error) {
	st, err := s.lookup(ctx, name, river)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

func (s *Service) lookup(ctx context.Context, search, river string) (domain.Station, error) {
	stations, err := s.Levels(ctx, river)
	if err != nil {
		return domain.Station{}, err
	}
	for _, st := range stations {
		if strings.Contains(st.Label.String(), search) {
			return st, nil
		}
	}
	return domain.Station{}, fmt.Errorf("%q on %s: %w", search, s.riverOr(river), domain.ErrStationNotFound)
}

// MetricQuery selects a station's readings.
type MetricQuery struct {
	Search    string
	River     string
	Position  domain.Position  // upstream by default
	Parameter domain.Parameter // level by default
	Since     time.Time
	Limit     int
}

func (q MetricQuery) withDefaults() MetricQuery {
	if q.Position == "" {
		q.Position = domain.PositionUpstream
	}
	if q.Parameter == "" {
		q.Parameter = domain.ParameterLevel
	}
	return q
}

// Series is a station's readings for one measure, oldest first.
type Series struct {
	Station   string           `json:"station"`
	Position  domain.Position  `json:"position"`
	Parameter domain.Parameter `json:"parameter"`
	Measure   string           `json:"measure"`
	Readings  []domain.Reading `json:"readings"`
}

// Metric resolves the station matching q.Search and returns the readings of
// its measure at q.Position. When the measure has no readings a placeholder
// week of empty values is returned so charts still have an axis.
func (s *Service) Metric(ctx context.Context, q MetricQuery) (Series, error) {
	q = q.withDefaults()

	st, err := s.lookup(ctx, q.Search, q.River)
	if err != nil {
		return Series{}, err
	}

	measures, err := s.source.Measures(ctx, st.ID, q.Parameter)
	if err != nil {
		return Series{}, err
	}
	idx := q.Position.MeasureIndex()
	if idx >= len(measures) {
		return Series{}, fmt.Errorf("%s %s %s: %w", st.Label, q.Position, q.Parameter, domain.ErrMeasureNotFound)
	}
	measure := measures[idx].ID

	readings, err := s.source.Readings(ctx, measure, ea.ReadingQuery{Limit: q.Limit, Since: q.Since, Sorted: true})
	if err != nil {
		return Series{}, err
	}
	if len(readings) == 0 {
		s.logger.Debug("no readings, using placeholder week", "station", st.Label.String(), "measure", measure)
		readings = domain.PlaceholderWeek()
	} else {
		readings = slices.Clone(readings)
		slices.SortStableFunc(readings, func(a, b domain.Reading) int {
			return cmp.Compare(a.DateTime.UnixNano(), b.DateTime.UnixNano())
		})
	}

	return Series{
		Station:   st.Label.String(),
		Position:  q.Position,
		Parameter: q.Parameter,
		Measure:   measure,
		Readings:  readings,
	}, nil
}
