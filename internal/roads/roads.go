// Package roads holds the embedded road network overlay: a fixed GeoJSON
// feature collection, read-only for the life of the process.
package roads

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed data/transalpina.geojson
var rawCollection []byte

// FeatureCollection is a GeoJSON collection of road line features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one named road geometry.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
}

// Properties carries the identifying metadata bound to each feature's popup.
type Properties struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Geometry is a line geometry with [lon, lat] coordinate pairs.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

var (
	parseOnce  sync.Once
	collection *FeatureCollection
	parseErr   error
)

// Collection returns the parsed embedded feature collection.
func Collection() (*FeatureCollection, error) {
	parseOnce.Do(func() {
		var fc FeatureCollection
		if err := json.Unmarshal(rawCollection, &fc); err != nil {
			parseErr = fmt.Errorf("failed to parse embedded road data: %w", err)
			return
		}
		collection = &fc
	})
	return collection, parseErr
}

// Raw returns the embedded GeoJSON bytes, served verbatim by the API. The
// map widget formats feature popups from the name and id properties.
func Raw() []byte {
	return rawCollection
}
