package viewstate

import (
	"fmt"
	"sync"

	"github.com/amuresan/transalpina-live/internal/weather"
	"github.com/amuresan/transalpina-live/pkg/logger"
)

// Store holds the view state. Mutations are synchronous: each setter commits
// under the lock, then notifies subscribers with a change descriptor and a
// copy of the new state. Panels and controls only ever call setters; map side
// effects happen in subscribers, never here.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   []func(Change)
	logger *logger.Logger
}

// New creates a store with the documented defaults: map view active, both
// overlays visible, satellite basemap, no weather yet.
func New(log *logger.Logger) *Store {
	return &Store{
		state: State{
			ActiveView: ViewMap,
			Layers:     LayerVisibility{Hillshade: true, Roads: true},
			Basemap:    BasemapSatellite,
		},
		logger: log.Named("view-state"),
	}
}

// Subscribe registers a change observer. Subscribers are called synchronously
// on the mutating goroutine, in registration order. Registration happens
// during wiring, before any mutation traffic.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetActiveView switches the active side panel.
func (s *Store) SetActiveView(v View) error {
	if !v.Valid() {
		return fmt.Errorf("unknown view: %q", v)
	}

	s.mu.Lock()
	if s.state.ActiveView == v {
		s.mu.Unlock()
		return nil
	}
	s.state.ActiveView = v
	change := Change{Slice: SliceActiveView, State: s.state}
	subs := s.subscribers()
	s.mu.Unlock()

	s.logger.Debug("Active view changed", logger.String("view", string(v)))
	notify(subs, change)
	return nil
}

// SetLayerVisible toggles one overlay's visibility flag.
func (s *Store) SetLayerVisible(l Layer, visible bool) error {
	if !l.Valid() {
		return fmt.Errorf("unknown layer: %q", l)
	}

	s.mu.Lock()
	if s.state.Layers.Visible(l) == visible {
		s.mu.Unlock()
		return nil
	}
	switch l {
	case LayerHillshade:
		s.state.Layers.Hillshade = visible
	case LayerRoads:
		s.state.Layers.Roads = visible
	}
	change := Change{Slice: SliceLayers, Layer: l, State: s.state}
	subs := s.subscribers()
	s.mu.Unlock()

	s.logger.Debug("Layer visibility changed",
		logger.String("layer", string(l)),
		logger.Bool("visible", visible))
	notify(subs, change)
	return nil
}

// SetBasemap switches the base tile layer selector.
func (s *Store) SetBasemap(b Basemap) error {
	if !b.Valid() {
		return fmt.Errorf("unknown basemap: %q", b)
	}

	s.mu.Lock()
	if s.state.Basemap == b {
		s.mu.Unlock()
		return nil
	}
	s.state.Basemap = b
	change := Change{Slice: SliceBasemap, State: s.state}
	subs := s.subscribers()
	s.mu.Unlock()

	s.logger.Debug("Basemap changed", logger.String("basemap", string(b)))
	notify(subs, change)
	return nil
}

// SetWeather replaces the weather snapshot. A nil snapshot is ignored; fetch
// failures never reach the store.
func (s *Store) SetWeather(snapshot *weather.Snapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	s.state.Weather = snapshot
	change := Change{Slice: SliceWeather, State: s.state}
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, change)
}

// subscribers returns the subscriber list for notification outside the lock.
// Callers must hold s.mu.
func (s *Store) subscribers() []func(Change) {
	subs := make([]func(Change), len(s.subs))
	copy(subs, s.subs)
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
