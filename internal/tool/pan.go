package tool

import (
	"math"

	"map-viewer/internal/event"
	"map-viewer/internal/render"
)

// PanTool pans with the middle button and zooms with the wheel.
// It shares the middle-drag gesture with the selection tools.
type PanTool struct {
	lifecycle
	zoomStep float64
	minScale float64
	maxScale float64
}

// NewPanTool creates an inactive pan tool. Each wheel step changes the scale
// by zoomStep, bounded to [minScale, maxScale].
func NewPanTool(zoomStep, minScale, maxScale float64) *PanTool {
	if zoomStep <= 1 {
		zoomStep = 1.25
	}
	return &PanTool{lifecycle: lifecycle{name: "pan"}, zoomStep: zoomStep, minScale: minScale, maxScale: maxScale}
}

// Activate implements Tool.
func (p *PanTool) Activate(h Host) error {
	if err := p.begin(h); err != nil {
		return err
	}
	return p.subscribeAll(map[event.Kind]event.Handler{
		event.MiddleDragUpdate: p.onDrag,
		event.Scroll:           p.onScroll,
	})
}

// Deactivate implements Tool.
func (p *PanTool) Deactivate() error { return p.end() }

func (p *PanTool) onDrag(ev event.Event) error {
	if err := p.host.Transform().Pan(ev.X, ev.Y); err != nil {
		return err
	}
	p.emit(event.Event{Kind: event.RerenderRequested})
	return nil
}

func (p *PanTool) onScroll(ev event.Event) error {
	t := p.host.Transform()
	target := p.clamp(t.Scale() * math.Pow(p.zoomStep, -ev.Delta))
	if target == t.Scale() {
		return nil
	}
	if err := t.ZoomAt(ev.X, ev.Y, target/t.Scale()); err != nil {
		return err
	}
	p.emit(event.Event{Kind: event.RerenderRequested})
	return nil
}

func (p *PanTool) clamp(s float64) float64 {
	if p.minScale > 0 && s < p.minScale {
		return p.minScale
	}
	if p.maxScale > 0 && s > p.maxScale {
		return p.maxScale
	}
	return s
}

// Draw implements Tool.
func (p *PanTool) Draw(render.Renderer, *render.Surface) {}
