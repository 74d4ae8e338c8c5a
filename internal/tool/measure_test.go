package tool

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"map-viewer/internal/event"
	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
)

func TestMeasureStateMachine(t *testing.T) {
	h := newHost(t)
	m := NewMeasureTool(DefaultStyles())
	if err := m.Activate(h); err != nil {
		t.Fatal(err)
	}
	if m.State() != MeasureNone {
		t.Fatalf("initial state = %v", m.State())
	}

	h.gesture(event.LeftClick, 10, 10)
	if m.State() != MeasureFirstPoint || len(m.Points()) != 1 {
		t.Fatalf("after first click: %v, %v", m.State(), m.Points())
	}
	if _, ok := m.Distance(); ok {
		t.Error("Distance available with one point")
	}

	h.gesture(event.LeftClick, 20, 20)
	if m.State() != MeasureTwoPoints {
		t.Fatalf("after second click: %v", m.State())
	}
	d, ok := m.Distance()
	if !ok || d < 0 {
		t.Fatalf("Distance() = %v, %v", d, ok)
	}
	want := math.Hypot(10, 10) * MetersPerDegree
	if math.Abs(d-want) > 1e-6 {
		t.Errorf("Distance() = %v, want %v", d, want)
	}
	ev, ok := h.last(event.DistanceMeasured)
	if !ok || ev.Value != d {
		t.Errorf("distance-measured = %+v, %v", ev, ok)
	}

	h.gesture(event.MiddleClick, 0, 0)
	if m.State() != MeasureNone || m.Points() != nil {
		t.Errorf("after middle-click: %v, %v", m.State(), m.Points())
	}
	if _, ok := m.Distance(); ok {
		t.Error("Distance kept after reset")
	}
}

func TestMeasureThirdClickStartsOver(t *testing.T) {
	h := newHost(t)
	m := NewMeasureTool(DefaultStyles())
	m.Activate(h)
	h.gesture(event.LeftClick, 10, 10)
	h.gesture(event.LeftClick, 20, 20)
	h.gesture(event.LeftClick, 30, 30)
	if m.State() != MeasureFirstPoint {
		t.Fatalf("state = %v, want first-point", m.State())
	}
	if p := m.Points()[0]; p.X != -20 || p.Y != 20 {
		t.Errorf("new first point = %+v", p)
	}
}

func TestMeasureMiddleClickFromAnyState(t *testing.T) {
	for clicks := 0; clicks <= 2; clicks++ {
		h := newHost(t)
		m := NewMeasureTool(DefaultStyles())
		m.Activate(h)
		for i := 0; i < clicks; i++ {
			h.gesture(event.LeftClick, float64(10*i), 10)
		}
		h.gesture(event.MiddleClick, 0, 0)
		if m.State() != MeasureNone {
			t.Errorf("after %d clicks + middle-click: %v", clicks, m.State())
		}
	}
}

func TestMeasureDeactivateResets(t *testing.T) {
	h := newHost(t)
	m := NewMeasureTool(DefaultStyles())
	m.Activate(h)
	h.gesture(event.LeftClick, 10, 10)
	m.Deactivate()
	if m.State() != MeasureNone {
		t.Errorf("state after Deactivate = %v", m.State())
	}
}

func TestMeasureTransformErrorKeepsState(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHost(t)
	h.logger = zap.New(core)
	h.bus = event.NewBus(h.logger, nil)
	h.t, _ = transform.New(100, 100, transform.WebMercator{}, 1e6, geometry.Point2D{})

	m := NewMeasureTool(DefaultStyles())
	m.Activate(h)
	// 45 px left of centre at 1e6 m/px is beyond the projected world.
	h.gesture(event.LeftClick, 5, 50)
	if m.State() != MeasureNone {
		t.Errorf("state = %v after failed unproject", m.State())
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Error("transform failure was not logged")
	}
}

func TestReferenceDistance(t *testing.T) {
	h := newHost(t)
	m := NewMeasureTool(DefaultStyles())
	m.Activate(h)
	h.gesture(event.LeftClick, 50, 50)
	h.gesture(event.LeftClick, 51, 50)

	ref, ok := m.ReferenceDistance()
	if !ok {
		t.Fatal("no reference distance")
	}
	d, _ := m.Distance()
	// One degree along the equator: both formulas agree within 0.1%.
	if math.Abs(ref-d)/d > 1e-3 {
		t.Errorf("reference %v vs placeholder %v", ref, d)
	}
}

func TestPlanarDistanceOverstatesAtHighLatitude(t *testing.T) {
	a := geometry.Point2D{X: 0, Y: 60}
	b := geometry.Point2D{X: 1, Y: 60}
	if d := PlanarDistance(a, b); math.Abs(d-MetersPerDegree) > 1e-9 {
		t.Errorf("PlanarDistance = %v, want %v", d, MetersPerDegree)
	}
}
