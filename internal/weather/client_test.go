package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amuresan/transalpina-live/pkg/logger"
)

func testConfig(baseURL string) Config {
	return Config{
		RefreshIntervalMinutes: 10,
		APIBaseURL:             baseURL,
		RequestTimeoutSeconds:  5,
		MaxRetries:             0,
		Latitude:               45.3414,
		Longitude:              23.6319,
	}
}

func TestClientRequestURL(t *testing.T) {
	client := NewClient(testConfig("https://api.open-meteo.com/v1/forecast"), clockwork.NewRealClock(), logger.NewNop())

	reqURL, err := client.requestURL()
	require.NoError(t, err)

	assert.Contains(t, reqURL, "latitude=45.3414")
	assert.Contains(t, reqURL, "longitude=23.6319")
	assert.Contains(t, reqURL, "current_weather=true")
	assert.Contains(t, reqURL, "timezone=auto")
	// Comma-separated, URL-encoded daily aggregate list.
	assert.Contains(t, reqURL, "daily=temperature_2m_max%2Ctemperature_2m_min%2Csnowfall_sum")
}

func TestClientFetchCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "45.3414", q.Get("latitude"))
		assert.Equal(t, "23.6319", q.Get("longitude"))
		assert.Equal(t, "true", q.Get("current_weather"))
		assert.Equal(t, "temperature_2m_max,temperature_2m_min,snowfall_sum", q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current_weather": {"temperature": -5, "windspeed": 12, "weathercode": 71},
			"daily": {
				"temperature_2m_max": [-2.1],
				"temperature_2m_min": [-9.4],
				"snowfall_sum": [3]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	require.NotNil(t, snapshot.Temperature)
	assert.Equal(t, -5.0, *snapshot.Temperature)
	require.NotNil(t, snapshot.WindSpeed)
	assert.Equal(t, 12.0, *snapshot.WindSpeed)
	require.NotNil(t, snapshot.WeatherCode)
	assert.Equal(t, 71, *snapshot.WeatherCode)
	assert.Equal(t, "Snow fall: Slight", snapshot.Description)
	require.NotNil(t, snapshot.SnowfallDaily)
	assert.Equal(t, 3.0, *snapshot.SnowfallDaily)
	require.NotNil(t, snapshot.TempMin)
	assert.Equal(t, -9.4, *snapshot.TempMin)
	require.NotNil(t, snapshot.TempMax)
	assert.Equal(t, -2.1, *snapshot.TempMax)
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestClientFetchCurrentMissingCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily": {"snowfall_sum": [1.5]}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "current_weather")
}

func TestClientFetchCurrentEmptyDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather": {"temperature": 8.2, "windspeed": 4, "weathercode": 1}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snapshot.SnowfallDaily)
	assert.Nil(t, snapshot.TempMin)
	assert.Nil(t, snapshot.TempMax)
	assert.Equal(t, "Mainly clear", snapshot.Description)
}

func TestClientFetchCurrentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestClientFetchCurrentMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather": `))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snapshot)
}

func TestClientRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"current_weather": {"temperature": 1, "windspeed": 2, "weathercode": 0}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 3
	client := NewClient(cfg, clockwork.NewRealClock(), logger.NewNop())

	snapshot, err := client.FetchCurrent(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 3, attempts)
}

func TestClientRetryRespectsContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 5
	client := NewClient(cfg, clockwork.NewRealClock(), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchCurrent(ctx)
	assert.Error(t, err)
}
