package weather

import "time"

// Snapshot is one normalized reading of current conditions plus the daily
// snowfall aggregate. A snapshot is immutable once produced; refreshes
// replace it wholesale, never merge into it.
type Snapshot struct {
	Temperature   *float64  `json:"temperature"`    // Degrees Celsius
	WindSpeed     *float64  `json:"wind_speed"`     // km/h
	WeatherCode   *int      `json:"weather_code"`   // WMO weather interpretation code
	Description   string    `json:"description"`    // Human-readable form of WeatherCode
	SnowfallDaily *float64  `json:"snowfall_daily"` // Today's snowfall sum, cm
	TempMin       *float64  `json:"temp_min"`       // Today's minimum, degrees Celsius
	TempMax       *float64  `json:"temp_max"`       // Today's maximum, degrees Celsius
	FetchedAt     time.Time `json:"fetched_at"`
}

// Config represents the weather client and service configuration.
type Config struct {
	RefreshIntervalMinutes int
	APIBaseURL             string
	RequestTimeoutSeconds  int
	MaxRetries             int
	Latitude               float64
	Longitude              float64
}

// forecastResponse mirrors the subset of the forecast API body we consume.
type forecastResponse struct {
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		SnowfallSum    []float64 `json:"snowfall_sum"`
	} `json:"daily"`
}
