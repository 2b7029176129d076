package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections.
type Config struct {
	Server  ServerConfig  `toml:"server"`  // HTTP server settings
	Station StationConfig `toml:"station"` // Physical location of the monitored road region
	Weather WeatherConfig `toml:"wx"`      // Weather data fetching settings
	Map     MapConfig     `toml:"map"`     // Map view defaults
	Logging LoggingConfig `toml:"logging"` // Application logging settings
}

// ServerConfig contains HTTP server configuration settings.
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // Origins allowed for CORS requests (["*"] for all)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve the dashboard UI from
}

// StationConfig describes the fixed coordinate the dashboard is centered on.
type StationConfig struct {
	Name        string  `toml:"name"`         // Human-readable name shown in the UI
	Latitude    float64 `toml:"latitude"`     // Latitude in decimal degrees
	Longitude   float64 `toml:"longitude"`    // Longitude in decimal degrees
	MarkerLabel string  `toml:"marker_label"` // Label for the fixed map marker
}

// WeatherConfig contains weather data fetching configuration.
type WeatherConfig struct {
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"` // Weather refresh interval in minutes
	APIBaseURL             string `toml:"api_base_url"`             // Base URL for the forecast API
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`  // HTTP request timeout in seconds
	MaxRetries             int    `toml:"max_retries"`              // Retry attempts for failed requests
}

// MapConfig contains map view defaults: initial zoom and the fixed
// bounding box used by the fit-to-bounds operation.
type MapConfig struct {
	DefaultZoom int     `toml:"default_zoom"` // Initial zoom level
	BoundsSouth float64 `toml:"bounds_south"` // Fit-bounds box, southern edge
	BoundsWest  float64 `toml:"bounds_west"`  // Fit-bounds box, western edge
	BoundsNorth float64 `toml:"bounds_north"` // Fit-bounds box, northern edge
	BoundsEast  float64 `toml:"bounds_east"`  // Fit-bounds box, eastern edge
}

// LoggingConfig contains application logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", or "error"
	Format string `toml:"format"` // "json" or "console"
}

// Default returns the built-in configuration: the Urdele Pass section of the
// Transalpina (DN67C). Used verbatim when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			Host:               "0.0.0.0",
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSecs:    15,
			WriteTimeoutSecs:   15,
			IdleTimeoutSecs:    60,
			StaticFilesDir:     "www",
		},
		Station: StationConfig{
			Name:        "Transalpina / Pasul Urdele",
			Latitude:    45.3414,
			Longitude:   23.6319,
			MarkerLabel: "Pasul Urdele (2145 m)",
		},
		Weather: WeatherConfig{
			RefreshIntervalMinutes: 10,
			APIBaseURL:             "https://api.open-meteo.com/v1/forecast",
			RequestTimeoutSeconds:  10,
			MaxRetries:             2,
		},
		Map: MapConfig{
			DefaultZoom: 12,
			BoundsSouth: 45.26,
			BoundsWest:  23.52,
			BoundsNorth: 45.46,
			BoundsEast:  23.76,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads the configuration from the specified file path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference. When no config file exists anywhere, the built-in
// defaults are used.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	return Default(), nil
}

// Validate validates the configuration, filling defaults for omitted values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	if c.Station.Latitude < -90 || c.Station.Latitude > 90 {
		return fmt.Errorf("invalid station latitude: %f", c.Station.Latitude)
	}
	if c.Station.Longitude < -180 || c.Station.Longitude > 180 {
		return fmt.Errorf("invalid station longitude: %f", c.Station.Longitude)
	}

	if c.Weather.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("wx refresh_interval_minutes must be greater than 0: %d", c.Weather.RefreshIntervalMinutes)
	}
	if c.Weather.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("wx request_timeout_seconds must be greater than 0: %d", c.Weather.RequestTimeoutSeconds)
	}
	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("wx max_retries must be 0 or greater: %d", c.Weather.MaxRetries)
	}
	if c.Weather.APIBaseURL == "" {
		return fmt.Errorf("wx api_base_url cannot be empty")
	}

	if c.Map.DefaultZoom <= 0 {
		c.Map.DefaultZoom = 12
	}
	if c.Map.BoundsNorth <= c.Map.BoundsSouth {
		return fmt.Errorf("map bounds_north (%f) must be greater than bounds_south (%f)", c.Map.BoundsNorth, c.Map.BoundsSouth)
	}
	if c.Map.BoundsEast <= c.Map.BoundsWest {
		return fmt.Errorf("map bounds_east (%f) must be greater than bounds_west (%f)", c.Map.BoundsEast, c.Map.BoundsWest)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	return nil
}
