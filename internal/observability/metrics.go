package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the dashboard server.
type Metrics struct {
	WeatherFetches  *prometheus.CounterVec // labels: outcome={success,error}
	WeatherDuration prometheus.Histogram
	ViewMutations   *prometheus.CounterVec // labels: slice={active_view,layers,basemap}
	MapCommands     prometheus.Counter
	ConnectedWS     prometheus.Gauge
}

// NewMetrics creates and registers all collectors with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WeatherFetches,
		m.WeatherDuration,
		m.ViewMutations,
		m.MapCommands,
		m.ConnectedWS,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct them repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transalpina",
			Name:      "weather_fetches_total",
			Help:      "Weather fetch attempts by outcome.",
		}, []string{"outcome"}),
		WeatherDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transalpina",
			Name:      "weather_fetch_duration_seconds",
			Help:      "Duration of one weather fetch including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ViewMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transalpina",
			Name:      "view_mutations_total",
			Help:      "View-state mutations by slice.",
		}, []string{"slice"}),
		MapCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transalpina",
			Name:      "map_commands_total",
			Help:      "Map commands published to connected clients.",
		}),
		ConnectedWS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transalpina",
			Name:      "websocket_clients",
			Help:      "Currently connected WebSocket clients.",
		}),
	}
}
