package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amuresan/transalpina-live/internal/config"
	"github.com/amuresan/transalpina-live/internal/mapview"
	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/websocket"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Router assembles the HTTP surface: JSON API, WebSocket endpoint, metrics,
// and the static dashboard UI.
type Router struct {
	handler *Handler
	hub     *websocket.Server
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates the API router.
func NewRouter(weather WeatherSource, store *viewstate.Store, adapter *mapview.Adapter, hub *websocket.Server, cfg *config.Config, metrics *observability.Metrics, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(weather, store, adapter, cfg, metrics, log),
		hub:     hub,
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes returns the assembled handler tree.
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", rt.handler.Health)

		r.Get("/weather", rt.handler.GetWeather)
		r.Post("/weather/refresh", rt.handler.RefreshWeather)

		r.Get("/roads", rt.handler.GetRoads)

		r.Get("/map/config", rt.handler.GetMapConfig)
		r.Post("/map/zoom-in", rt.handler.ZoomIn)
		r.Post("/map/zoom-out", rt.handler.ZoomOut)
		r.Post("/map/fit", rt.handler.FitBounds)

		r.Get("/view", rt.handler.GetViewState)
		r.Put("/view/active", rt.handler.SetActiveView)
		r.Put("/view/basemap", rt.handler.SetBasemap)
		r.Put("/view/layers/{layer}", rt.handler.SetLayerVisible)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/ws", rt.hub.HandleConnection)

	r.Handle("/*", NewStaticFileHandler(rt.config.Server.StaticFilesDir, rt.logger))

	return r
}

// requestLogger logs each request at debug level with method, path, and
// duration.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	scoped := log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			scoped.Debug("Request handled",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Duration("duration", time.Since(start)))
		})
	}
}

// corsMiddleware applies the configured allowed origins. An empty list
// disables CORS headers entirely.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(origin)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[strings.ToLower(origin)]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
