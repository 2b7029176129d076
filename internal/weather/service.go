package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// SnapshotSink receives each successful snapshot. The view-state store
// implements this; the service stays decoupled from it.
type SnapshotSink interface {
	SetWeather(*Snapshot)
}

// Service manages periodic weather fetching. One refresh goroutine exists, so
// requests never overlap and last-write-wins ordering is trivial.
type Service struct {
	config  Config
	client  *Client
	cache   *Cache
	sink    SnapshotSink
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *logger.Logger

	// Service lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	// Initial data readiness
	initialFetchDone chan struct{}
	initialFetchOnce sync.Once
}

// NewService creates a new weather service.
func NewService(config Config, sink SnapshotSink, clock clockwork.Clock, metrics *observability.Metrics, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		config:           config,
		client:           NewClient(config, clock, log),
		cache:            NewCache(log),
		sink:             sink,
		clock:            clock,
		metrics:          metrics,
		logger:           log.Named("weather-service"),
		ctx:              ctx,
		cancel:           cancel,
		initialFetchDone: make(chan struct{}),
	}
}

// Start begins the weather service background operations: an immediate
// initial fetch and the fixed-interval refresh loop.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil // Already started
	}

	s.logger.Info("Starting weather service",
		logger.Float64("lat", s.config.Latitude),
		logger.Float64("lon", s.config.Longitude),
		logger.Int("refresh_interval_minutes", s.config.RefreshIntervalMinutes))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fetchAndUpdate()
		s.initialFetchOnce.Do(func() {
			close(s.initialFetchDone)
			s.logger.Info("Initial weather fetch completed")
		})
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.backgroundRefresh()
	}()

	s.started = true
	return nil
}

// Stop gracefully shuts down the weather service. An in-flight request is
// cancelled through the service context; its result is discarded.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping weather service")
	s.cancel()
	s.wg.Wait()
	s.started = false
	s.logger.Info("Weather service stopped")
	return nil
}

// Current returns the most recent snapshot, nil before the first success.
func (s *Service) Current() *Snapshot {
	return s.cache.Get()
}

// LastError returns the error string of the most recent failed fetch.
func (s *Service) LastError() string {
	return s.cache.LastError()
}

// WaitReady blocks until the initial fetch attempt has finished (successfully
// or not), or the context expires.
func (s *Service) WaitReady(ctx context.Context) error {
	select {
	case <-s.initialFetchDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshNow triggers an immediate refresh outside the fixed interval.
func (s *Service) RefreshNow() {
	s.logger.Info("Manual weather refresh triggered")
	go s.fetchAndUpdate()
}

// CacheStats returns cache statistics for the health endpoint.
func (s *Service) CacheStats() map[string]any {
	return s.cache.Stats()
}

// IsStarted returns whether the service is currently running.
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// backgroundRefresh runs the periodic weather refresh.
func (s *Service) backgroundRefresh() {
	refreshInterval := time.Duration(s.config.RefreshIntervalMinutes) * time.Minute
	ticker := s.clock.NewTicker(refreshInterval)
	defer ticker.Stop()

	s.logger.Info("Background weather refresh started",
		logger.Duration("interval", refreshInterval))

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Background weather refresh stopped")
			return
		case <-ticker.Chan():
			s.logger.Debug("Periodic weather refresh triggered")
			s.fetchAndUpdate()
		}
	}
}

// fetchAndUpdate fetches one snapshot and updates the cache and sink. On
// failure the cache keeps the previous snapshot and the sink is not called.
func (s *Service) fetchAndUpdate() {
	start := time.Now()

	snapshot, err := s.client.FetchCurrent(s.ctx)
	s.cache.Update(snapshot, err)

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.WeatherDuration.Observe(duration.Seconds())
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.WeatherFetches.WithLabelValues("error").Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.WeatherFetches.WithLabelValues("success").Inc()
	}
	if s.sink != nil {
		s.sink.SetWeather(snapshot)
	}

	s.logger.Info("Weather snapshot updated",
		logger.Duration("duration", duration),
		logger.Time("fetched_at", snapshot.FetchedAt))
}

// ValidateConfig validates the weather service configuration.
func ValidateConfig(config Config) error {
	if config.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("refresh_interval_minutes must be greater than 0")
	}
	if config.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be greater than 0")
	}
	if config.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be 0 or greater")
	}
	if config.APIBaseURL == "" {
		return fmt.Errorf("api_base_url cannot be empty")
	}
	return nil
}
