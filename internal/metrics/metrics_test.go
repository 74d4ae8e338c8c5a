package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.EventDispatched("left-click")
	m.HandlerFailed("left-click")
	m.LayerLoaded(LoadOK)
	m.StaleCompletion()
	m.SetLayers(3)
}

func TestCountersRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.HandlerFailed("double-click")
	m.HandlerFailed("double-click")
	m.LayerLoaded(LoadFailed)
	m.StaleCompletion()
	m.SetLayers(2)

	if got := testutil.ToFloat64(m.HandlerFailures("double-click")); got != 2 {
		t.Errorf("handler failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LayerLoads(LoadFailed)); got != 1 {
		t.Errorf("failed loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.layers); got != 2 {
		t.Errorf("layers gauge = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families")
	}
}
