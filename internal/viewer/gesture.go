package viewer

import (
	"math"

	"go.uber.org/zap"

	"map-viewer/internal/event"
	"map-viewer/pkg/geometry"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonTertiary
)

type pointerState struct {
	pressed  [3]bool
	pressX   [3]float64
	pressY   [3]float64
	dragging bool
	lastX    float64
	lastY    float64
}

func (b Button) valid() bool { return b >= ButtonPrimary && b <= ButtonTertiary }

// PointerDown records a button press at (px, py).
func (c *Canvas) PointerDown(b Button, px, py float64) {
	if !b.valid() {
		return
	}
	p := &c.pointer
	p.pressed[b] = true
	p.pressX[b], p.pressY[b] = px, py
	if b == ButtonTertiary {
		p.dragging = false
		p.lastX, p.lastY = px, py
	}
}

// PointerMove reports the pointer at (px, py). It emits PointerMoved and
// LocationChanged, and the middle-drag gestures while the middle button is held.
func (c *Canvas) PointerMove(px, py float64) {
	p := &c.pointer
	if p.pressed[ButtonTertiary] {
		if !p.dragging && c.beyondThreshold(ButtonTertiary, px, py) {
			p.dragging = true
			c.bus.Emit(event.Event{Kind: event.MiddleDragStart, X: p.pressX[ButtonTertiary], Y: p.pressY[ButtonTertiary]})
		}
		if p.dragging {
			dx, dy := px-p.lastX, py-p.lastY
			p.lastX, p.lastY = px, py
			if dx != 0 || dy != 0 {
				c.bus.Emit(event.Event{Kind: event.MiddleDragUpdate, X: dx, Y: dy})
			}
		}
	}

	c.bus.Emit(event.Event{Kind: event.PointerMoved, X: px, Y: py})
	c.notifyLocation(px, py)
}

// notifyLocation emits LocationChanged for the pixel (px, py). Positions
// outside the projection's domain are skipped.
func (c *Canvas) notifyLocation(px, py float64) {
	lon, lat, err := c.t.Pix2Geo(px, py)
	if err != nil {
		c.logger.Debug("pointer outside projection", zap.Float64("x", px), zap.Float64("y", py), zap.Error(err))
		return
	}
	x, y := c.t.Pix2Proj(px, py)
	c.bus.Emit(event.Event{
		Kind: event.LocationChanged,
		X:    px,
		Y:    py,
		Geo:  geometry.Point2D{X: lon, Y: lat},
		Proj: geometry.Point2D{X: x, Y: y},
	})
}

// PointerUp records a button release. A primary release close to its press
// is a left click; a middle release ends a drag or is a middle click.
func (c *Canvas) PointerUp(b Button, px, py float64) {
	if !b.valid() {
		return
	}
	p := &c.pointer
	if !p.pressed[b] {
		return
	}
	p.pressed[b] = false

	switch b {
	case ButtonPrimary:
		if !c.beyondThreshold(b, px, py) {
			c.bus.Emit(event.Event{Kind: event.LeftClick, X: px, Y: py})
		}
	case ButtonTertiary:
		if p.dragging {
			p.dragging = false
			c.bus.Emit(event.Event{Kind: event.MiddleDragEnd, X: px, Y: py})
			return
		}
		c.bus.Emit(event.Event{Kind: event.MiddleClick, X: px, Y: py})
	}
}

// DoubleClick emits a double-click gesture at (px, py).
func (c *Canvas) DoubleClick(px, py float64) {
	c.bus.Emit(event.Event{Kind: event.DoubleClick, X: px, Y: py})
}

// Scroll emits a wheel gesture of delta steps at (px, py).
func (c *Canvas) Scroll(px, py, delta float64) {
	if delta == 0 {
		return
	}
	c.bus.Emit(event.Event{Kind: event.Scroll, X: px, Y: py, Delta: delta})
}

func (c *Canvas) beyondThreshold(b Button, px, py float64) bool {
	p := &c.pointer
	return math.Hypot(px-p.pressX[b], py-p.pressY[b]) > c.dragThreshold
}
