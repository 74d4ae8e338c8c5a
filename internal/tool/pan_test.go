package tool

import (
	"math"
	"testing"

	"map-viewer/internal/event"
)

func TestPanDrag(t *testing.T) {
	h := newHost(t)
	p := NewPanTool(2, 0.1, 10)
	p.Activate(h)

	h.gesture(event.MiddleDragUpdate, 10, -5)
	loc := h.t.Location()
	if loc.X != -10 || loc.Y != -5 {
		t.Errorf("location = %+v, want (-10, -5)", loc)
	}
	if _, ok := h.last(event.RerenderRequested); !ok {
		t.Error("pan did not request a re-render")
	}
}

func TestScrollZoomClamped(t *testing.T) {
	h := newHost(t)
	p := NewPanTool(2, 0.25, 4)
	p.Activate(h)

	h.bus.Emit(event.Event{Kind: event.Scroll, X: 50, Y: 50, Delta: 1})
	if s := h.t.Scale(); math.Abs(s-0.5) > 1e-12 {
		t.Errorf("scale after zoom in = %v, want 0.5", s)
	}
	for i := 0; i < 5; i++ {
		h.bus.Emit(event.Event{Kind: event.Scroll, X: 50, Y: 50, Delta: 1})
	}
	if s := h.t.Scale(); math.Abs(s-0.25) > 1e-12 {
		t.Errorf("scale after many zoom ins = %v, want min 0.25", s)
	}
	for i := 0; i < 10; i++ {
		h.bus.Emit(event.Event{Kind: event.Scroll, X: 50, Y: 50, Delta: -1})
	}
	if s := h.t.Scale(); math.Abs(s-4) > 1e-12 {
		t.Errorf("scale after many zoom outs = %v, want max 4", s)
	}
}

func TestScrollKeepsPointUnderCursor(t *testing.T) {
	h := newHost(t)
	p := NewPanTool(2, 0, 0)
	p.Activate(h)
	x0, y0 := h.t.Pix2Proj(20, 30)
	h.bus.Emit(event.Event{Kind: event.Scroll, X: 20, Y: 30, Delta: 1})
	x1, y1 := h.t.Pix2Proj(20, 30)
	if math.Abs(x0-x1) > 1e-9 || math.Abs(y0-y1) > 1e-9 {
		t.Errorf("anchor moved from (%v, %v) to (%v, %v)", x0, y0, x1, y1)
	}
}
