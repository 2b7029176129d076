package api

import (
	"encoding/json"

	"github.com/amuresan/transalpina-live/internal/mapview"
	"github.com/amuresan/transalpina-live/internal/viewstate"
	"github.com/amuresan/transalpina-live/internal/websocket"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// WireStateBroadcast connects the store and map adapter to the hub: every
// committed mutation is pushed to all dashboards, and each new connection
// receives the full current state followed by the map command sequence that
// rebuilds the live map (base layer, visible overlays, marker, fit bounds).
// Weather changes get their own message type so the summary widget can
// update without touching map controls.
func WireStateBroadcast(store *viewstate.Store, hub *websocket.Server, adapter *mapview.Adapter, log *logger.Logger) {
	scoped := log.Named("state-sync")

	store.Subscribe(func(change viewstate.Change) {
		messageType := websocket.MessageTypeViewState
		if change.Slice == viewstate.SliceWeather {
			messageType = websocket.MessageTypeWeatherUpdate
		}
		hub.Broadcast(&websocket.Message{
			Type: messageType,
			Data: stateToMap(change.State, scoped),
		})
	})

	hub.SetConnectHandler(func() []*websocket.Message {
		messages := []*websocket.Message{{
			Type: websocket.MessageTypeFullState,
			Data: stateToMap(store.State(), scoped),
		}}

		collector := &mapview.Collector{}
		adapter.ReplayTo(collector)
		return append(messages, collector.Messages...)
	})
}

func stateToMap(state viewstate.State, log *logger.Logger) map[string]any {
	raw, err := json.Marshal(state)
	if err != nil {
		log.Error("Failed to marshal view state", logger.Error(err))
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		log.Error("Failed to convert view state", logger.Error(err))
		return map[string]any{}
	}
	return m
}
