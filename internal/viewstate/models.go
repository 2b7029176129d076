package viewstate

import (
	"fmt"

	"github.com/amuresan/transalpina-live/internal/weather"
)

// View selects which side panel is shown. Exactly one is active at a time.
type View string

const (
	ViewMap     View = "map"
	ViewWeather View = "weather"
	ViewInfo    View = "info"
)

// Valid reports whether v is a known view selector.
func (v View) Valid() bool {
	switch v {
	case ViewMap, ViewWeather, ViewInfo:
		return true
	}
	return false
}

// Basemap selects the base tile layer.
type Basemap string

const (
	BasemapSatellite     Basemap = "satellite"
	BasemapOpenStreetMap Basemap = "openstreetmap"
)

// Valid reports whether b is a known basemap selector.
func (b Basemap) Valid() bool {
	return b == BasemapSatellite || b == BasemapOpenStreetMap
}

// Layer identifies a toggleable map overlay.
type Layer string

const (
	LayerHillshade Layer = "hillshade"
	LayerRoads     Layer = "roads"
)

// Valid reports whether l is a known overlay.
func (l Layer) Valid() bool {
	return l == LayerHillshade || l == LayerRoads
}

// LayerVisibility holds the per-overlay visibility flags.
type LayerVisibility struct {
	Hillshade bool `json:"hillshade"`
	Roads     bool `json:"roads"`
}

// Visible returns the flag for the given overlay.
func (lv LayerVisibility) Visible(l Layer) bool {
	switch l {
	case LayerHillshade:
		return lv.Hillshade
	case LayerRoads:
		return lv.Roads
	}
	return false
}

// State is the full view state: four independent slices.
type State struct {
	ActiveView View              `json:"active_view"`
	Layers     LayerVisibility   `json:"layers"`
	Basemap    Basemap           `json:"basemap"`
	Weather    *weather.Snapshot `json:"weather"`
}

// Slice names the state slice a Change touched.
type Slice string

const (
	SliceActiveView Slice = "active_view"
	SliceLayers     Slice = "layers"
	SliceBasemap    Slice = "basemap"
	SliceWeather    Slice = "weather"
)

// Change describes one committed mutation: which slice changed, the overlay
// involved for layer changes, and a copy of the full state afterwards.
type Change struct {
	Slice Slice
	Layer Layer // set for SliceLayers changes only
	State State
}

func (c Change) String() string {
	return fmt.Sprintf("change(%s)", c.Slice)
}
