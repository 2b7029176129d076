package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/amuresan/transalpina-live/internal/api"
	"github.com/amuresan/transalpina-live/internal/config"
	"github.com/amuresan/transalpina-live/internal/mapview"
	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/weather"
	"github.com/amuresan/transalpina-live/internal/websocket"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Transalpina dashboard server",
		logger.String("version", Version),
		logger.String("station", cfg.Station.Name))

	metrics := observability.NewMetrics()

	// View state store: the single owner of panel, layer, basemap, and
	// weather state. Everything else observes it.
	store := viewstate.New(log)

	// WebSocket hub pushing state and map commands to connected dashboards.
	hub := websocket.NewServer(metrics, log)
	go hub.Run()

	// Map adapter: the injectable handle for all map commands. Layer and
	// basemap mutations reach it through store observation.
	adapter := mapview.NewAdapter(
		mapview.NewHubBackend(hub, metrics),
		mapview.Config{
			Bounds: mapview.Bounds{
				South: cfg.Map.BoundsSouth,
				West:  cfg.Map.BoundsWest,
				North: cfg.Map.BoundsNorth,
				East:  cfg.Map.BoundsEast,
			},
			Marker:      mapview.LatLng{Lat: cfg.Station.Latitude, Lon: cfg.Station.Longitude},
			MarkerLabel: cfg.Station.MarkerLabel,
		},
		log,
	)
	mapview.Bind(store, adapter)
	api.WireStateBroadcast(store, hub, adapter, log)
	adapter.Init(store.State())

	weatherConfig := weather.Config{
		RefreshIntervalMinutes: cfg.Weather.RefreshIntervalMinutes,
		APIBaseURL:             cfg.Weather.APIBaseURL,
		RequestTimeoutSeconds:  cfg.Weather.RequestTimeoutSeconds,
		MaxRetries:             cfg.Weather.MaxRetries,
		Latitude:               cfg.Station.Latitude,
		Longitude:              cfg.Station.Longitude,
	}
	weatherService := weather.NewService(weatherConfig, store, clockwork.NewRealClock(), metrics, log)
	if err := weatherService.Start(); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	router := api.NewRouter(weatherService, store, adapter, hub, cfg, metrics, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	log.Info("Stopping weather service...")
	weatherService.Stop()
	log.Info("Weather service stopped.")

	adapter.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
