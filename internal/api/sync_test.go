package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amuresan/transalpina-live/internal/mapview"
	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/websocket"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

type syncEnv struct {
	store   *viewstate.Store
	adapter *mapview.Adapter
	wsURL   string
}

// newSyncEnv wires store, hub, and adapter the way cmd/server does, then
// exposes the hub over a test server.
func newSyncEnv(t *testing.T) *syncEnv {
	t.Helper()

	log := logger.NewNop()
	metrics := observability.NewMetricsForTesting()
	store := viewstate.New(log)

	hub := websocket.NewServer(metrics, log)
	go hub.Run()

	adapter := mapview.NewAdapter(mapview.NewHubBackend(hub, metrics), mapview.Config{
		Bounds:      mapview.Bounds{South: 45.26, West: 23.52, North: 45.46, East: 23.76},
		Marker:      mapview.LatLng{Lat: 45.3414, Lon: 23.6319},
		MarkerLabel: "Pasul Urdele (2145 m)",
	}, log)
	mapview.Bind(store, adapter)
	WireStateBroadcast(store, hub, adapter, log)
	adapter.Init(store.State())

	server := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(server.Close)

	return &syncEnv{
		store:   store,
		adapter: adapter,
		wsURL:   "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func dialSync(t *testing.T, wsURL string) *gorilla.Conn {
	t.Helper()

	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSyncMessage(t *testing.T, conn *gorilla.Conn) websocket.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// A dashboard that connects after the map went live must be able to rebuild
// the full map from its connect messages alone: base layer, overlays, marker,
// and viewport, not just the panel state.
func TestLateClientReceivesMapSequenceOnConnect(t *testing.T) {
	env := newSyncEnv(t)

	conn := dialSync(t, env.wsURL)

	first := readSyncMessage(t, conn)
	require.Equal(t, websocket.MessageTypeFullState, first.Type)
	assert.Equal(t, "map", first.Data["active_view"])
	assert.Equal(t, "satellite", first.Data["basemap"])

	var baseLayerID string
	overlays := map[string]bool{}
	markers := 0
	fits := 0

	for i := 0; i < 5; i++ {
		msg := readSyncMessage(t, conn)
		require.Equal(t, websocket.MessageTypeMapCommand, msg.Type)

		switch msg.Data["op"] {
		case "set_base_layer":
			source, ok := msg.Data["source"].(map[string]any)
			require.True(t, ok)
			baseLayerID, _ = source["id"].(string)
			assert.NotEmpty(t, source["url"])
		case "set_overlay":
			layer, _ := msg.Data["layer"].(string)
			visible, _ := msg.Data["visible"].(bool)
			overlays[layer] = visible
		case "add_marker":
			markers++
			assert.Equal(t, "Pasul Urdele (2145 m)", msg.Data["label"])
		case "fit_bounds":
			fits++
			bounds, ok := msg.Data["bounds"].(map[string]any)
			require.True(t, ok)
			assert.InDelta(t, 45.26, bounds["south"].(float64), 0.001)
		default:
			t.Fatalf("unexpected map command: %v", msg.Data["op"])
		}
	}

	assert.Equal(t, "satellite", baseLayerID)
	assert.Equal(t, map[string]bool{"hillshade": true, "roads": true}, overlays)
	assert.Equal(t, 1, markers)
	assert.Equal(t, 1, fits)
}

// The replay reflects mutations that happened before the client connected.
func TestLateClientConvergesToMutatedState(t *testing.T) {
	env := newSyncEnv(t)

	require.NoError(t, env.store.SetBasemap(viewstate.BasemapOpenStreetMap))
	require.NoError(t, env.store.SetLayerVisible(viewstate.LayerHillshade, false))

	conn := dialSync(t, env.wsURL)

	first := readSyncMessage(t, conn)
	require.Equal(t, websocket.MessageTypeFullState, first.Type)
	assert.Equal(t, "openstreetmap", first.Data["basemap"])

	var ops []string
	var baseLayerID string
	for i := 0; i < 4; i++ {
		msg := readSyncMessage(t, conn)
		require.Equal(t, websocket.MessageTypeMapCommand, msg.Type)
		op, _ := msg.Data["op"].(string)
		ops = append(ops, op)
		if op == "set_base_layer" {
			source := msg.Data["source"].(map[string]any)
			baseLayerID, _ = source["id"].(string)
		}
		if op == "set_overlay" {
			assert.Equal(t, "roads", msg.Data["layer"])
		}
	}

	assert.Equal(t, []string{"set_base_layer", "set_overlay", "add_marker", "fit_bounds"}, ops)
	assert.Equal(t, "openstreetmap", baseLayerID)
}

// Mutations after connect still reach the client as broadcasts.
func TestConnectedClientReceivesLiveMutations(t *testing.T) {
	env := newSyncEnv(t)

	conn := dialSync(t, env.wsURL)

	// Drain the connect sequence: full_state plus five map commands.
	for i := 0; i < 6; i++ {
		readSyncMessage(t, conn)
	}

	require.NoError(t, env.store.SetBasemap(viewstate.BasemapOpenStreetMap))

	// One view_state broadcast and one map command, in store-notify order.
	msg := readSyncMessage(t, conn)
	require.Equal(t, websocket.MessageTypeMapCommand, msg.Type)
	assert.Equal(t, "set_base_layer", msg.Data["op"])

	msg = readSyncMessage(t, conn)
	require.Equal(t, websocket.MessageTypeViewState, msg.Type)
	assert.Equal(t, "openstreetmap", msg.Data["basemap"])
}
