package weather

import (
	"sync"
	"time"

	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Cache holds the most recent successful snapshot with thread-safe access.
// A failed refresh never touches the stored snapshot; it only records the
// error so the API can report degraded freshness.
type Cache struct {
	mu          sync.RWMutex
	snapshot    *Snapshot
	lastError   string
	lastAttempt time.Time
	logger      *logger.Logger
}

// NewCache creates an empty snapshot cache.
func NewCache(logger *logger.Logger) *Cache {
	return &Cache{logger: logger.Named("weather-cache")}
}

// Get returns the current snapshot, or nil before the first successful fetch.
func (c *Cache) Get() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Update records the outcome of one fetch. On success the snapshot is
// replaced wholesale; on failure the previous snapshot is retained unchanged.
func (c *Cache) Update(snapshot *Snapshot, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastError = err.Error()
		c.lastAttempt = time.Now().UTC()
		c.logger.Warn("Weather fetch failed, keeping previous snapshot",
			logger.Error(err),
			logger.Bool("have_snapshot", c.snapshot != nil))
		return
	}

	c.snapshot = snapshot
	c.lastError = ""
	c.lastAttempt = snapshot.FetchedAt
	c.logger.Debug("Weather snapshot replaced",
		logger.Time("fetched_at", snapshot.FetchedAt))
}

// LastError returns the error string from the most recent fetch, empty when
// the last fetch succeeded.
func (c *Cache) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// Stats returns cache statistics for the health endpoint.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := map[string]any{
		"has_data":     c.snapshot != nil,
		"last_error":   c.lastError,
		"last_attempt": c.lastAttempt,
	}
	if c.snapshot != nil {
		stats["fetched_at"] = c.snapshot.FetchedAt
	}
	return stats
}
