package mapview

import (
	"github.com/amuresan/transalpina-live/internal/observability"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/websocket"
)

// Backend is the command sink the adapter drives: a small imperative surface
// over whatever actually renders the map. Production publishes commands to
// the browser widget; tests record them.
type Backend interface {
	SetBaseLayer(source TileSource)
	SetOverlayVisible(layer viewstate.Layer, visible bool)
	AddMarker(position LatLng, label string)
	FitBounds(bounds Bounds)
	ZoomIn()
	ZoomOut()
}

// commandMessage wraps one map command for the wire.
func commandMessage(op string, data map[string]any) *websocket.Message {
	if data == nil {
		data = map[string]any{}
	}
	data["op"] = op
	return &websocket.Message{
		Type: websocket.MessageTypeMapCommand,
		Data: data,
	}
}

func setBaseLayerMessage(source TileSource) *websocket.Message {
	return commandMessage("set_base_layer", map[string]any{"source": source})
}

func setOverlayMessage(layer viewstate.Layer, visible bool) *websocket.Message {
	return commandMessage("set_overlay", map[string]any{"layer": string(layer), "visible": visible})
}

func addMarkerMessage(position LatLng, label string) *websocket.Message {
	return commandMessage("add_marker", map[string]any{"position": position, "label": label})
}

func fitBoundsMessage(bounds Bounds) *websocket.Message {
	return commandMessage("fit_bounds", map[string]any{"bounds": bounds})
}

// HubBackend publishes map commands to all connected dashboards over the
// WebSocket hub. The browser-side widget executes them against its live map
// object, keeping layer instances alive across visibility toggles so popup
// state survives.
type HubBackend struct {
	hub     *websocket.Server
	metrics *observability.Metrics
}

// NewHubBackend creates a backend that broadcasts over the given hub.
func NewHubBackend(hub *websocket.Server, metrics *observability.Metrics) *HubBackend {
	return &HubBackend{hub: hub, metrics: metrics}
}

func (b *HubBackend) send(msg *websocket.Message) {
	if b.metrics != nil {
		b.metrics.MapCommands.Inc()
	}
	b.hub.Broadcast(msg)
}

func (b *HubBackend) SetBaseLayer(source TileSource) {
	b.send(setBaseLayerMessage(source))
}

func (b *HubBackend) SetOverlayVisible(layer viewstate.Layer, visible bool) {
	b.send(setOverlayMessage(layer, visible))
}

func (b *HubBackend) AddMarker(position LatLng, label string) {
	b.send(addMarkerMessage(position, label))
}

func (b *HubBackend) FitBounds(bounds Bounds) {
	b.send(fitBoundsMessage(bounds))
}

func (b *HubBackend) ZoomIn() {
	b.send(commandMessage("zoom_in", nil))
}

func (b *HubBackend) ZoomOut() {
	b.send(commandMessage("zoom_out", nil))
}

// Collector records commands as wire messages instead of broadcasting them.
// The connect handler replays the adapter's current map sequence through one
// so a late-joining dashboard converges with the live map.
type Collector struct {
	Messages []*websocket.Message
}

func (c *Collector) SetBaseLayer(source TileSource) {
	c.Messages = append(c.Messages, setBaseLayerMessage(source))
}

func (c *Collector) SetOverlayVisible(layer viewstate.Layer, visible bool) {
	c.Messages = append(c.Messages, setOverlayMessage(layer, visible))
}

func (c *Collector) AddMarker(position LatLng, label string) {
	c.Messages = append(c.Messages, addMarkerMessage(position, label))
}

func (c *Collector) FitBounds(bounds Bounds) {
	c.Messages = append(c.Messages, fitBoundsMessage(bounds))
}

func (c *Collector) ZoomIn() {
	c.Messages = append(c.Messages, commandMessage("zoom_in", nil))
}

func (c *Collector) ZoomOut() {
	c.Messages = append(c.Messages, commandMessage("zoom_out", nil))
}
