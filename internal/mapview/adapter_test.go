package mapview

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// recorderBackend records every command it receives as a compact string.
type recorderBackend struct {
	commands []string
}

func (r *recorderBackend) SetBaseLayer(source TileSource) {
	r.commands = append(r.commands, "base:"+source.ID)
}

func (r *recorderBackend) SetOverlayVisible(layer viewstate.Layer, visible bool) {
	r.commands = append(r.commands, fmt.Sprintf("overlay:%s=%t", layer, visible))
}

func (r *recorderBackend) AddMarker(position LatLng, label string) {
	r.commands = append(r.commands, "marker:"+label)
}

func (r *recorderBackend) FitBounds(bounds Bounds) {
	r.commands = append(r.commands, "fit")
}

func (r *recorderBackend) ZoomIn()  { r.commands = append(r.commands, "zoom_in") }
func (r *recorderBackend) ZoomOut() { r.commands = append(r.commands, "zoom_out") }

func testAdapter() (*Adapter, *recorderBackend) {
	backend := &recorderBackend{}
	adapter := NewAdapter(backend, Config{
		Bounds:      Bounds{South: 45.26, West: 23.52, North: 45.46, East: 23.76},
		Marker:      LatLng{Lat: 45.3414, Lon: 23.6319},
		MarkerLabel: "Pasul Urdele (2145 m)",
	}, logger.NewNop())
	return adapter, backend
}

func defaultState() viewstate.State {
	return viewstate.State{
		ActiveView: viewstate.ViewMap,
		Layers:     viewstate.LayerVisibility{Hillshade: true, Roads: true},
		Basemap:    viewstate.BasemapSatellite,
	}
}

func TestAdapterInitSequence(t *testing.T) {
	adapter, backend := testAdapter()
	assert.False(t, adapter.Live())

	adapter.Init(defaultState())

	assert.True(t, adapter.Live())
	assert.Equal(t, []string{
		"base:satellite",
		"overlay:hillshade=true",
		"overlay:roads=true",
		"marker:Pasul Urdele (2145 m)",
		"fit",
	}, backend.commands)
}

func TestAdapterInitIdempotent(t *testing.T) {
	adapter, backend := testAdapter()

	adapter.Init(defaultState())
	issued := len(backend.commands)

	adapter.Init(defaultState())
	assert.Len(t, backend.commands, issued)
}

func TestAdapterInitSkipsHiddenOverlays(t *testing.T) {
	adapter, backend := testAdapter()

	state := defaultState()
	state.Layers.Hillshade = false
	adapter.Init(state)

	assert.NotContains(t, backend.commands, "overlay:hillshade=true")
	assert.Contains(t, backend.commands, "overlay:roads=true")
}

func TestAdapterDropsCommandsBeforeInit(t *testing.T) {
	adapter, backend := testAdapter()

	adapter.SetBasemap(viewstate.BasemapOpenStreetMap)
	adapter.SetOverlayVisible(viewstate.LayerRoads, false)
	adapter.ZoomIn()
	adapter.ZoomOut()
	adapter.FitBounds()

	assert.Empty(t, backend.commands)
}

func TestAdapterBasemapSwapIsSingleCommand(t *testing.T) {
	adapter, backend := testAdapter()
	adapter.Init(defaultState())
	backend.commands = nil

	adapter.SetBasemap(viewstate.BasemapOpenStreetMap)
	assert.Equal(t, []string{"base:openstreetmap"}, backend.commands)

	// Same basemap again: no command at all.
	adapter.SetBasemap(viewstate.BasemapOpenStreetMap)
	assert.Len(t, backend.commands, 1)

	adapter.SetBasemap(viewstate.BasemapSatellite)
	assert.Equal(t, []string{"base:openstreetmap", "base:satellite"}, backend.commands)
}

func TestAdapterOverlayToggle(t *testing.T) {
	adapter, backend := testAdapter()
	adapter.Init(defaultState())
	backend.commands = nil

	adapter.SetOverlayVisible(viewstate.LayerHillshade, false)
	adapter.SetOverlayVisible(viewstate.LayerHillshade, false) // redundant
	adapter.SetOverlayVisible(viewstate.LayerHillshade, true)

	assert.Equal(t, []string{
		"overlay:hillshade=false",
		"overlay:hillshade=true",
	}, backend.commands)
}

func TestAdapterZoomAndFit(t *testing.T) {
	adapter, backend := testAdapter()
	adapter.Init(defaultState())
	backend.commands = nil

	adapter.ZoomIn()
	adapter.ZoomOut()
	adapter.FitBounds()

	assert.Equal(t, []string{"zoom_in", "zoom_out", "fit"}, backend.commands)
}

func TestAdapterCloseThenReinit(t *testing.T) {
	adapter, backend := testAdapter()
	adapter.Init(defaultState())

	adapter.Close()
	assert.False(t, adapter.Live())

	// Post-close commands are dropped like pre-init ones.
	backend.commands = nil
	adapter.ZoomIn()
	assert.Empty(t, backend.commands)

	adapter.Init(defaultState())
	assert.True(t, adapter.Live())
	assert.Contains(t, backend.commands, "base:satellite")
	assert.Contains(t, backend.commands, "marker:Pasul Urdele (2145 m)")
}

func TestAdapterReplayToBeforeInit(t *testing.T) {
	adapter, _ := testAdapter()

	replay := &recorderBackend{}
	adapter.ReplayTo(replay)
	assert.Empty(t, replay.commands)
}

func TestAdapterReplayToReflectsCurrentState(t *testing.T) {
	adapter, backend := testAdapter()
	adapter.Init(defaultState())

	adapter.SetBasemap(viewstate.BasemapOpenStreetMap)
	adapter.SetOverlayVisible(viewstate.LayerHillshade, false)
	backend.commands = nil

	// A replay goes to its own backend and leaves the live one untouched.
	replay := &recorderBackend{}
	adapter.ReplayTo(replay)

	assert.Equal(t, []string{
		"base:openstreetmap",
		"overlay:roads=true",
		"marker:Pasul Urdele (2145 m)",
		"fit",
	}, replay.commands)
	assert.Empty(t, backend.commands)
}

func TestBindRoutesStoreChangesToAdapter(t *testing.T) {
	adapter, backend := testAdapter()
	store := viewstate.New(logger.NewNop())
	Bind(store, adapter)

	adapter.Init(store.State())
	backend.commands = nil

	require.NoError(t, store.SetBasemap(viewstate.BasemapOpenStreetMap))
	require.NoError(t, store.SetLayerVisible(viewstate.LayerRoads, false))
	// Active-view changes are panel-local and must not reach the map.
	require.NoError(t, store.SetActiveView(viewstate.ViewWeather))

	assert.Equal(t, []string{
		"base:openstreetmap",
		"overlay:roads=false",
	}, backend.commands)
}
