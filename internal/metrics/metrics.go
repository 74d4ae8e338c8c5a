// Package metrics exposes prometheus collectors for the map core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load results recorded by LayerLoaded.
const (
	LoadOK     = "ok"
	LoadFailed = "failed"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	eventsDispatched *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	layerLoads       *prometheus.CounterVec
	staleCompletions prometheus.Counter
	layers           prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg creates
// unregistered collectors, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		eventsDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapviewer_events_dispatched_total",
			Help: "Events emitted on the canvas event channel",
		}, []string{"kind"}),
		handlerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapviewer_handler_failures_total",
			Help: "Event handlers that returned an error or panicked",
		}, []string{"kind"}),
		layerLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mapviewer_layer_loads_total",
			Help: "Background layer loads by result",
		}, []string{"result"}),
		staleCompletions: f.NewCounter(prometheus.CounterOpts{
			Name: "mapviewer_stale_completions_total",
			Help: "Background loads that finished after their canvas was closed",
		}),
		layers: f.NewGauge(prometheus.GaugeOpts{
			Name: "mapviewer_layers",
			Help: "Layers currently in the layer stack",
		}),
	}
}

// EventDispatched counts one emitted event.
func (m *Metrics) EventDispatched(kind string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(kind).Inc()
}

// HandlerFailed counts one failed handler invocation.
func (m *Metrics) HandlerFailed(kind string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(kind).Inc()
}

// LayerLoaded counts one finished background load.
func (m *Metrics) LayerLoaded(result string) {
	if m == nil {
		return
	}
	m.layerLoads.WithLabelValues(result).Inc()
}

// StaleCompletion counts one dropped completion.
func (m *Metrics) StaleCompletion() {
	if m == nil {
		return
	}
	m.staleCompletions.Inc()
}

// SetLayers records the stack size.
func (m *Metrics) SetLayers(n int) {
	if m == nil {
		return
	}
	m.layers.Set(float64(n))
}

// HandlerFailures returns the failure counter for kind.
func (m *Metrics) HandlerFailures(kind string) prometheus.Counter {
	return m.handlerFailures.WithLabelValues(kind)
}

// LayerLoads returns the load counter for result.
func (m *Metrics) LayerLoads(result string) prometheus.Counter {
	return m.layerLoads.WithLabelValues(result)
}

// StaleCompletions returns the stale completion counter.
func (m *Metrics) StaleCompletions() prometheus.Counter {
	return m.staleCompletions
}

// Layers returns the stacked layers gauge.
func (m *Metrics) Layers() prometheus.Gauge {
	return m.layers
}
