package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Client fetches current conditions and daily snowfall from the forecast API
// for a fixed coordinate pair.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
	logger     *logger.Logger
}

// NewClient creates a new forecast API client.
func NewClient(config Config, clock clockwork.Clock, logger *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast-api",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		breaker: breaker,
		clock:   clock,
		logger:  logger.Named("weather-client"),
	}
}

// requestURL builds the forecast request for the configured coordinates:
// current conditions plus daily temperature and snowfall aggregates, with an
// automatically resolved timezone.
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.config.APIBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast base URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(c.config.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(c.config.Longitude, 'f', 4, 64))
	q.Set("current_weather", "true")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,snowfall_sum")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// FetchCurrent performs one forecast request and returns a fresh snapshot.
// Any network, HTTP, or parse failure returns an error and no snapshot; the
// caller keeps whatever it already had.
func (c *Client) FetchCurrent(ctx context.Context) (*Snapshot, error) {
	reqURL, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	var body forecastResponse
	if err := c.fetchWithRetry(ctx, reqURL, &body); err != nil {
		return nil, err
	}

	if body.CurrentWeather == nil {
		return nil, fmt.Errorf("forecast response missing current_weather block")
	}

	snapshot := &Snapshot{
		Temperature: &body.CurrentWeather.Temperature,
		WindSpeed:   &body.CurrentWeather.WindSpeed,
		WeatherCode: &body.CurrentWeather.WeatherCode,
		Description: DescribeCode(body.CurrentWeather.WeatherCode),
		FetchedAt:   c.clock.Now().UTC(),
	}
	if len(body.Daily.SnowfallSum) > 0 {
		snapshot.SnowfallDaily = &body.Daily.SnowfallSum[0]
	}
	if len(body.Daily.TemperatureMin) > 0 {
		snapshot.TempMin = &body.Daily.TemperatureMin[0]
	}
	if len(body.Daily.TemperatureMax) > 0 {
		snapshot.TempMax = &body.Daily.TemperatureMax[0]
	}

	return snapshot, nil
}

// fetchWithRetry performs the HTTP request with bounded retries, exponential
// backoff, and the circuit breaker. The breaker trips after repeated upstream
// failures so a dead API is not hammered every interval.
func (c *Client) fetchWithRetry(ctx context.Context, reqURL string, target any) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying weather fetch",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.clock.After(backoff):
			}
		}

		err := c.doRequest(ctx, reqURL, target)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Weather fetch succeeded after retries",
					logger.Int("attempts_needed", attempt+1))
			}
			return nil
		}

		// An open breaker will not recover within this retry loop.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("Weather circuit breaker open, skipping retries")
			return err
		}

		lastErr = err
		c.logger.Warn("Weather fetch failed, may retry",
			logger.Error(err),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.config.MaxRetries+1))
	}

	c.logger.Error("All attempts to fetch weather data failed",
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL string, target any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error making request to weather API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return nil, fmt.Errorf("error decoding weather data: %w", err)
		}
		return nil, nil
	})
	return err
}
