package mapview

import (
	"sync"

	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Config holds the fixed geography of the dashboard map: the marker
// coordinate and the fit-to-bounds box. The initial viewport is the
// widget's concern, served through the map config endpoint.
type Config struct {
	Bounds      Bounds
	Marker      LatLng
	MarkerLabel string
}

// Adapter bridges the declarative view state and the imperative map backend.
// It is the single owned handle for issuing map commands; nothing else talks
// to the backend. Commands arriving before Init are dropped, which is the
// ordering guarantee for side effects against an uninitialized map.
type Adapter struct {
	mu      sync.Mutex
	backend Backend
	config  Config
	logger  *logger.Logger

	live     bool
	basemap  viewstate.Basemap
	overlays map[viewstate.Layer]bool
}

// NewAdapter creates an adapter over the given backend.
func NewAdapter(backend Backend, config Config, log *logger.Logger) *Adapter {
	return &Adapter{
		backend: backend,
		config:  config,
		logger:  log.Named("map-adapter"),
	}
}

// Init issues the initial command sequence: base layer, enabled overlays, the
// fixed marker, and fit-to-bounds. Idempotent: if the adapter is already
// live, Init is a no-op.
func (a *Adapter) Init(state viewstate.State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live {
		return
	}

	source, ok := BasemapSource(state.Basemap)
	if !ok {
		source, _ = BasemapSource(viewstate.BasemapSatellite)
	}
	a.backend.SetBaseLayer(source)
	a.basemap = state.Basemap

	a.overlays = make(map[viewstate.Layer]bool)
	for _, layer := range []viewstate.Layer{viewstate.LayerHillshade, viewstate.LayerRoads} {
		if state.Layers.Visible(layer) {
			a.backend.SetOverlayVisible(layer, true)
			a.overlays[layer] = true
		}
	}

	// The marker is added exactly once per map lifetime and never removed.
	a.backend.AddMarker(a.config.Marker, a.config.MarkerLabel)
	a.backend.FitBounds(a.config.Bounds)

	a.live = true
	a.logger.Info("Map initialized",
		logger.String("basemap", string(a.basemap)),
		logger.Int("overlays", len(a.overlays)))
}

// Live reports whether Init has completed.
func (a *Adapter) Live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// SetBasemap swaps the base tile layer. The backend contract is
// replace-never-stack, so each change is a single command and no observation
// point sees zero or two base layers.
func (a *Adapter) SetBasemap(b viewstate.Basemap) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.live {
		a.logger.Debug("Dropping basemap change before init")
		return
	}
	if a.basemap == b {
		return
	}
	source, ok := BasemapSource(b)
	if !ok {
		a.logger.Warn("Ignoring unknown basemap", logger.String("basemap", string(b)))
		return
	}

	a.backend.SetBaseLayer(source)
	a.basemap = b
}

// SetOverlayVisible adds or removes one overlay from the live map. The layer
// instance itself is owned by the backend and survives toggles.
func (a *Adapter) SetOverlayVisible(layer viewstate.Layer, visible bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.live {
		a.logger.Debug("Dropping overlay change before init",
			logger.String("layer", string(layer)))
		return
	}
	if a.overlays[layer] == visible {
		return
	}

	a.backend.SetOverlayVisible(layer, visible)
	a.overlays[layer] = visible
}

// ZoomIn delegates to the backend's zoom primitive.
func (a *Adapter) ZoomIn() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.live {
		return
	}
	a.backend.ZoomIn()
}

// ZoomOut delegates to the backend's zoom primitive.
func (a *Adapter) ZoomOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.live {
		return
	}
	a.backend.ZoomOut()
}

// FitBounds recenters the map on the fixed bounding box.
func (a *Adapter) FitBounds() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.live {
		return
	}
	a.backend.FitBounds(a.config.Bounds)
}

// ReplayTo reissues the current map command sequence against another
// backend. This is how a dashboard connecting after Init converges with the
// live map: base layer, visible overlays, marker, fit bounds, in the same
// order Init uses. A no-op before Init.
func (a *Adapter) ReplayTo(b Backend) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.live {
		return
	}

	source, ok := BasemapSource(a.basemap)
	if !ok {
		source, _ = BasemapSource(viewstate.BasemapSatellite)
	}
	b.SetBaseLayer(source)

	for _, layer := range []viewstate.Layer{viewstate.LayerHillshade, viewstate.LayerRoads} {
		if a.overlays[layer] {
			b.SetOverlayVisible(layer, true)
		}
	}

	b.AddMarker(a.config.Marker, a.config.MarkerLabel)
	b.FitBounds(a.config.Bounds)
}

// Close releases the adapter's map state so a subsequent Init reinitializes
// cleanly.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live = false
	a.basemap = ""
	a.overlays = nil
	a.logger.Info("Map adapter closed")
}

// Bind subscribes the adapter to the store so layer and basemap mutations
// side-effect into map commands through observation, not direct coupling.
func Bind(store *viewstate.Store, adapter *Adapter) {
	store.Subscribe(func(change viewstate.Change) {
		switch change.Slice {
		case viewstate.SliceBasemap:
			adapter.SetBasemap(change.State.Basemap)
		case viewstate.SliceLayers:
			adapter.SetOverlayVisible(change.Layer, change.State.Layers.Visible(change.Layer))
		}
	})
}
