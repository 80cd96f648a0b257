package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/river"
)

// noData is the result shown in place of a table when an upstream fetch fails.
const noData = "No data available"

// RiverService answers station and reading queries.
type RiverService interface {
	Levels(ctx context.Context, river string) ([]domain.Station, error)
	Flow(ctx context.Context, river string) ([]domain.Station, error)
	Metric(ctx context.Context, q river.MetricQuery) (river.Series, error)
	Chart(ctx context.Context, q river.MetricQuery, w io.Writer) error
}

// NoticeSource scrapes the gov.uk river pages.
type NoticeSource interface {
	Closures(ctx context.Context) ([]domain.Closure, error)
	Conditions(ctx context.Context) ([]domain.Condition, error)
}

// Forecaster fetches Met Office point forecasts.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, timestep domain.Timestep) ([]domain.ForecastStep, error)
}

// API groups the backends behind the /api/v1 routes. Weather is optional;
// when nil the weather route answers 503.
type API struct {
	River   RiverService
	Notices NoticeSource
	Weather Forecaster
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Items: items}
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	parameter, err := parseParameter(q.Get("parameter"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	fetch := s.api.River.Levels
	if parameter == domain.ParameterFlow {
		fetch = s.api.River.Flow
	}
	stations, err := fetch(r.Context(), q.Get("river"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(stations))
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	mq, err := parseMetricQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	series, err := s.api.River.Metric(r.Context(), mq)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	mq, err := parseMetricQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	// Render fully before writing so failures still get a JSON status.
	var buf bytes.Buffer
	if err := s.api.River.Chart(r.Context(), mq, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleClosures(w http.ResponseWriter, r *http.Request) {
	closures, err := s.api.Notices.Closures(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(closures))
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := s.api.Notices.Conditions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(conditions))
}

type forecastResponse struct {
	Timestep domain.Timestep      `json:"timestep"`
	Steps    []forecastStepOutput `json:"steps"`
}

type forecastStepOutput struct {
	Time    time.Time          `json:"time"`
	Weather domain.WeatherType `json:"weather"`
	Values  map[string]float64 `json:"values"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.api.Weather == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "met office forecasts are disabled"})
		return
	}

	q := r.URL.Query()
	obs, err := parseObserver(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	timestep, err := domain.ParseTimestep(q.Get("timestep"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	steps, err := s.api.Weather.Forecast(r.Context(), obs.Lat, obs.Lon, timestep)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := forecastResponse{Timestep: timestep, Steps: make([]forecastStepOutput, 0, len(steps))}
	for _, st := range steps {
		wt, _ := domain.LookupWeatherCode(st.WeatherCode())
		out.Steps = append(out.Steps, forecastStepOutput{Time: st.Time, Weather: wt, Values: st.Values})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeatherCode(w http.ResponseWriter, r *http.Request) {
	wt, ok := domain.LookupWeatherCode(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, wt)
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

func (s *Server) handleSun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	obs, err := parseObserver(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	events, err := domain.SunTimes(obs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(events))
}

// writeError maps service errors to status codes. Upstream fetch failures
// become 502 with the no-data result.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrFetchFailed):
		s.logger.Warn("upstream fetch failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "result": noData})
	case errors.Is(err, domain.ErrStationNotFound), errors.Is(err, domain.ErrMeasureNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing to write.
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func parseMetricQuery(r *http.Request) (river.MetricQuery, error) {
	q := r.URL.Query()
	mq := river.MetricQuery{
		Search: r.PathValue("search"),
		River:  q.Get("river"),
	}

	var err error
	if mq.Parameter, err = parseParameter(q.Get("parameter")); err != nil {
		return mq, err
	}
	switch p := domain.Position(q.Get("position")); p {
	case "", domain.PositionUpstream, domain.PositionDownstream:
		mq.Position = p
	default:
		return mq, fmt.Errorf("position must be upstream or downstream, got %q", p)
	}
	if v := q.Get("since"); v != "" {
		if mq.Since, err = time.Parse(time.RFC3339, v); err != nil {
			return mq, fmt.Errorf("since must be RFC 3339: %w", err)
		}
	}
	if v := q.Get("limit"); v != "" {
		if mq.Limit, err = strconv.Atoi(v); err != nil || mq.Limit < 1 {
			return mq, fmt.Errorf("limit must be a positive integer, got %q", v)
		}
	}
	return mq, nil
}

func parseParameter(s string) (domain.Parameter, error) {
	switch p := domain.Parameter(s); p {
	case "":
		return domain.ParameterLevel, nil
	case domain.ParameterLevel, domain.ParameterFlow:
		return p, nil
	default:
		return "", fmt.Errorf("parameter must be level or flow, got %q", s)
	}
}

// parseObserver reads a coordinate pair. Both empty means Greenwich.
func parseObserver(lat, lon string) (domain.Observer, error) {
	if lat == "" && lon == "" {
		return domain.Greenwich, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || la < -90 || la > 90 {
		return domain.Observer{}, fmt.Errorf("lat must be a number between -90 and 90, got %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil || lo < -180 || lo > 180 {
		return domain.Observer{}, fmt.Errorf("lon must be a number between -180 and 180, got %q", lon)
	}
	return domain.Observer{Lat: la, Lon: lo}, nil
}
