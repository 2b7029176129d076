package mapview

import (
	"github.com/amuresan/transalpina-live/internal/viewstate"
)

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a geographic bounding box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// TileSource describes one templated tile layer: URL pattern parameterized by
// zoom/x/y (and subdomain where the provider rotates hosts).
type TileSource struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	MaxZoom     int    `json:"max_zoom"`
	Subdomains  string `json:"subdomains,omitempty"`
	Attribution string `json:"attribution"`
}

var (
	satelliteSource = TileSource{
		ID:          "satellite",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		MaxZoom:     17,
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, Maxar, Earthstar Geographics",
	}

	openStreetMapSource = TileSource{
		ID:          "openstreetmap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		MaxZoom:     19,
		Subdomains:  "abc",
		Attribution: "&copy; OpenStreetMap contributors",
	}

	hillshadeSource = TileSource{
		ID:          "hillshade",
		URL:         "https://tiles.wmflabs.org/hillshading/{z}/{x}/{y}.png",
		MaxZoom:     15,
		Attribution: "Hillshading: SRTM3 v2 (NASA)",
	}
)

// BasemapSource returns the tile source for a basemap selector.
func BasemapSource(b viewstate.Basemap) (TileSource, bool) {
	switch b {
	case viewstate.BasemapSatellite:
		return satelliteSource, true
	case viewstate.BasemapOpenStreetMap:
		return openStreetMapSource, true
	}
	return TileSource{}, false
}

// HillshadeSource returns the tile source for the hillshade overlay.
func HillshadeSource() TileSource {
	return hillshadeSource
}

// BasemapSources lists both basemap tile sources, satellite first.
func BasemapSources() []TileSource {
	return []TileSource{satelliteSource, openStreetMapSource}
}
