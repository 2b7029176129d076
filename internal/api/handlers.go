package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amuresan/transalpina-live/internal/config"
	"github.com/amuresan/transalpina-live/internal/mapview"
	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/internal/roads"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/weather"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// WeatherSource is the weather service surface the handlers need.
type WeatherSource interface {
	Current() *weather.Snapshot
	LastError() string
	RefreshNow()
	CacheStats() map[string]any
}

// Handler contains the API handlers.
type Handler struct {
	weather WeatherSource
	store   *viewstate.Store
	adapter *mapview.Adapter
	config  *config.Config
	metrics *observability.Metrics
	logger  *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(weather WeatherSource, store *viewstate.Store, adapter *mapview.Adapter, cfg *config.Config, metrics *observability.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		weather: weather,
		store:   store,
		adapter: adapter,
		config:  cfg,
		metrics: metrics,
		logger:  log.Named("api-handler"),
	}
}

type weatherResponse struct {
	Snapshot  *weather.Snapshot `json:"snapshot"`
	LastError string            `json:"last_error,omitempty"`
}

// GetWeather returns the most recent weather snapshot. Before the first
// successful fetch the snapshot is null and clients render dashes.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, weatherResponse{
		Snapshot:  h.weather.Current(),
		LastError: h.weather.LastError(),
	})
}

// RefreshWeather triggers an immediate weather refresh.
func (h *Handler) RefreshWeather(w http.ResponseWriter, r *http.Request) {
	h.weather.RefreshNow()
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

// GetRoads serves the embedded road overlay verbatim.
func (h *Handler) GetRoads(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(roads.Raw())
}

type mapConfigResponse struct {
	Center      mapview.LatLng       `json:"center"`
	DefaultZoom int                  `json:"default_zoom"`
	Bounds      mapview.Bounds       `json:"bounds"`
	Marker      mapview.LatLng       `json:"marker"`
	MarkerLabel string               `json:"marker_label"`
	Basemaps    []mapview.TileSource `json:"basemaps"`
	Hillshade   mapview.TileSource   `json:"hillshade"`
	RoadsURL    string               `json:"roads_url"`
	StationName string               `json:"station_name"`
}

// GetMapConfig returns the tile sources, geography, and defaults the map
// widget needs to build itself.
func (h *Handler) GetMapConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, mapConfigResponse{
		Center:      mapview.LatLng{Lat: h.config.Station.Latitude, Lon: h.config.Station.Longitude},
		DefaultZoom: h.config.Map.DefaultZoom,
		Bounds: mapview.Bounds{
			South: h.config.Map.BoundsSouth,
			West:  h.config.Map.BoundsWest,
			North: h.config.Map.BoundsNorth,
			East:  h.config.Map.BoundsEast,
		},
		Marker:      mapview.LatLng{Lat: h.config.Station.Latitude, Lon: h.config.Station.Longitude},
		MarkerLabel: h.config.Station.MarkerLabel,
		Basemaps:    mapview.BasemapSources(),
		Hillshade:   mapview.HillshadeSource(),
		RoadsURL:    "/api/v1/roads",
		StationName: h.config.Station.Name,
	})
}

// GetViewState returns the current view state.
func (h *Handler) GetViewState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.store.State())
}

// SetActiveView switches the active side panel.
func (h *Handler) SetActiveView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.store.SetActiveView(viewstate.View(body.View)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.metrics.ViewMutations.WithLabelValues(string(viewstate.SliceActiveView)).Inc()
	WriteJSON(w, http.StatusOK, h.store.State())
}

// SetLayerVisible toggles one overlay's visibility.
func (h *Handler) SetLayerVisible(w http.ResponseWriter, r *http.Request) {
	layer := viewstate.Layer(chi.URLParam(r, "layer"))
	if !layer.Valid() {
		writeError(w, http.StatusNotFound, "unknown layer: "+string(layer))
		return
	}

	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Visible == nil {
		writeError(w, http.StatusBadRequest, "body must contain a boolean \"visible\" field")
		return
	}

	if err := h.store.SetLayerVisible(layer, *body.Visible); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.metrics.ViewMutations.WithLabelValues(string(viewstate.SliceLayers)).Inc()
	WriteJSON(w, http.StatusOK, h.store.State())
}

// SetBasemap switches the base tile layer.
func (h *Handler) SetBasemap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Basemap string `json:"basemap"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.store.SetBasemap(viewstate.Basemap(body.Basemap)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.metrics.ViewMutations.WithLabelValues(string(viewstate.SliceBasemap)).Inc()
	WriteJSON(w, http.StatusOK, h.store.State())
}

// ZoomIn delegates to the map adapter.
func (h *Handler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	h.adapter.ZoomIn()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ZoomOut delegates to the map adapter.
func (h *Handler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	h.adapter.ZoomOut()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FitBounds recenters the map on the configured bounding box.
func (h *Handler) FitBounds(w http.ResponseWriter, r *http.Request) {
	h.adapter.FitBounds()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health reports service liveness and data freshness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"map_live":  h.adapter.Live(),
		"weather":   h.weather.CacheStats(),
	})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
