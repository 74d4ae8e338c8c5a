package viewer

import (
	"testing"

	"map-viewer/internal/event"
	"map-viewer/internal/transform"
)

func TestMiddleGestures(t *testing.T) {
	c, _ := newCanvas(t, nil)
	r := record(t, c, event.MiddleClick, event.MiddleDragStart, event.MiddleDragUpdate, event.MiddleDragEnd)

	c.PointerDown(ButtonTertiary, 10, 10)
	c.PointerMove(11, 10)
	c.PointerUp(ButtonTertiary, 11, 10)

	c.PointerDown(ButtonTertiary, 10, 10)
	c.PointerMove(20, 10)
	c.PointerMove(25, 12)
	c.PointerUp(ButtonTertiary, 25, 12)

	want := []event.Kind{event.MiddleClick, event.MiddleDragStart, event.MiddleDragUpdate, event.MiddleDragUpdate, event.MiddleDragEnd}
	got := r.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	if ev := r.events[1]; ev.X != 10 || ev.Y != 10 {
		t.Errorf("drag start at (%v,%v), want press position (10,10)", ev.X, ev.Y)
	}
	if ev := r.events[2]; ev.X != 10 || ev.Y != 0 {
		t.Errorf("first update delta (%v,%v), want (10,0)", ev.X, ev.Y)
	}
	if ev := r.events[3]; ev.X != 5 || ev.Y != 2 {
		t.Errorf("second update delta (%v,%v), want (5,2)", ev.X, ev.Y)
	}
	if ev := r.events[4]; ev.X != 25 || ev.Y != 12 {
		t.Errorf("drag end at (%v,%v), want (25,12)", ev.X, ev.Y)
	}
}

func TestLeftClick(t *testing.T) {
	tests := []struct {
		name   string
		upX    float64
		clicks int
	}{
		{"in place", 40, 1},
		{"small jitter", 42, 1},
		{"moved away", 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCanvas(t, nil)
			r := record(t, c, event.LeftClick)
			c.PointerDown(ButtonPrimary, 40, 40)
			c.PointerUp(ButtonPrimary, tt.upX, 40)
			if got := r.count(event.LeftClick); got != tt.clicks {
				t.Errorf("left clicks = %d, want %d", got, tt.clicks)
			}
		})
	}
}

func TestReleaseWithoutPressIgnored(t *testing.T) {
	c, _ := newCanvas(t, nil)
	r := record(t, c, event.LeftClick, event.MiddleClick, event.MiddleDragEnd)
	c.PointerUp(ButtonPrimary, 1, 1)
	c.PointerUp(ButtonTertiary, 1, 1)
	c.PointerUp(Button(7), 1, 1)
	if len(r.events) != 0 {
		t.Errorf("events = %v, want none", r.kinds())
	}
}

func TestPointerMoveReportsLocation(t *testing.T) {
	c, _ := newCanvas(t, nil)
	r := record(t, c, event.PointerMoved, event.LocationChanged)

	c.PointerMove(60, 30)

	if len(r.events) != 2 || r.events[0].Kind != event.PointerMoved {
		t.Fatalf("events = %v", r.kinds())
	}
	loc := r.events[1]
	if loc.Kind != event.LocationChanged {
		t.Fatalf("second event = %v", loc.Kind)
	}
	if loc.Geo.X != 10 || loc.Geo.Y != 20 {
		t.Errorf("geo = %v, want (10,20)", loc.Geo)
	}
	if loc.Proj != loc.Geo {
		t.Errorf("proj = %v, want geo for a geographic canvas", loc.Proj)
	}
}

func TestPointerOutsideProjectionSkipsLocation(t *testing.T) {
	c, _ := newCanvas(t, func(o *Options) {
		o.Projection = transform.WebMercator{}
		o.Scale = 1e6
	})
	r := record(t, c, event.PointerMoved, event.LocationChanged)

	c.PointerMove(5, 50)

	if r.count(event.PointerMoved) != 1 {
		t.Errorf("pointer moves = %d, want 1", r.count(event.PointerMoved))
	}
	if r.count(event.LocationChanged) != 0 {
		t.Errorf("location changes = %d, want 0 outside the projection", r.count(event.LocationChanged))
	}
}

func TestScrollAndDoubleClick(t *testing.T) {
	c, _ := newCanvas(t, nil)
	r := record(t, c, event.Scroll, event.DoubleClick)

	c.Scroll(10, 10, 0)
	c.Scroll(10, 10, -2)
	c.DoubleClick(3, 4)

	if len(r.events) != 2 {
		t.Fatalf("events = %v, want scroll and double-click", r.kinds())
	}
	if r.events[0].Delta != -2 {
		t.Errorf("scroll delta = %v, want -2", r.events[0].Delta)
	}
	if ev := r.events[1]; ev.X != 3 || ev.Y != 4 {
		t.Errorf("double-click at (%v,%v)", ev.X, ev.Y)
	}
}
