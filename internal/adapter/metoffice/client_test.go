package metoffice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

const hourlyBody = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "Point", "coordinates": [-0.35, 51.42, 12.0]},
    "properties": {
      "location": {"name": "Hampton"},
      "requestPointDistance": 400.1,
      "modelRunDate": "2024-05-01T12:00Z",
      "timeSeries": [
        {"time": "2024-05-01T13:00Z", "screenTemperature": 15.2, "significantWeatherCode": 1, "probOfPrecipitation": 4},
        {"time": "2024-05-01T14:00Z", "screenTemperature": 15.9, "significantWeatherCode": 3, "probOfPrecipitation": 8}
      ]
    }
  }]
}`

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("test-key", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	require.NoError(t, err)
	c.baseURL = baseURL
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		c, err := NewClient(key, time.Second, slog.Default(), nil)
		require.ErrorIs(t, err, domain.ErrMissingAPIKey)
		assert.Nil(t, c)
	}
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hourly", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		q := r.URL.Query()
		assert.Equal(t, "51.42", q.Get("latitude"))
		assert.Equal(t, "-0.35", q.Get("longitude"))
		assert.Equal(t, "true", q.Get("excludeParameterMetadata"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	steps, err := c.Forecast(context.Background(), 51.42, -0.35, domain.TimestepHourly)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), steps[0].Time.UTC())
	assert.InDelta(t, 15.2, steps[0].Values["screenTemperature"], 1e-9)
	assert.Equal(t, "1", steps[0].WeatherCode())
	assert.Equal(t, "3", steps[1].WeatherCode())
}

func TestClient_Forecast_DefaultsToHourly(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	steps, err := c.Forecast(context.Background(), 51.4, -0.3, "")
	require.NoError(t, err)
	assert.Equal(t, "/hourly", path)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestClient_Forecast_DailyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/daily", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"properties":{"timeSeries":[{"time":"2024-05-01T00:00Z","daySignificantWeatherCode":12,"dayMaxScreenTemperature":17.1}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	steps, err := c.Forecast(context.Background(), 51.4, -0.3, domain.TimestepDaily)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "12", steps[0].WeatherCode())
}

func TestClient_Forecast_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"httpCode":"401","httpMessage":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Forecast(context.Background(), 51.4, -0.3, domain.TimestepHourly)
	require.ErrorIs(t, err, domain.ErrFetchFailed)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Contains(t, err.Error(), "Unauthorized")
}
