package tool

import (
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/panel"
	"map-viewer/internal/stack"
	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
)

type fakeChrome struct {
	panels []*panel.AttributePanel
}

func (c *fakeChrome) AddPanel(p *panel.AttributePanel) { c.panels = append(c.panels, p) }

func (c *fakeChrome) RemovePanel(p *panel.AttributePanel) {
	for i, x := range c.panels {
		if x == p {
			c.panels = append(c.panels[:i], c.panels[i+1:]...)
			return
		}
	}
}

// fakeHost is a 100x100 geographic canvas at scale 1 centred on (0, 0), so
// pixel (px, py) is projected (px-50, 50-py).
type fakeHost struct {
	t       *transform.Transform
	bus     *event.Bus
	stack   *stack.Stack
	chrome  *fakeChrome
	logger  *zap.Logger
	redraws int
	events  []event.Event
}

func newHost(t *testing.T) *fakeHost {
	t.Helper()
	tr, err := transform.New(100, 100, transform.Geographic{}, 1, geometry.Point2D{})
	if err != nil {
		t.Fatal(err)
	}
	logger := zaptest.NewLogger(t)
	bus := event.NewBus(logger, nil)
	h := &fakeHost{
		t:      tr,
		bus:    bus,
		stack:  stack.New(bus, logger, nil),
		chrome: &fakeChrome{},
		logger: logger,
	}
	for _, k := range []event.Kind{event.FeaturesSelected, event.SelectionCleared, event.DistanceMeasured, event.RerenderRequested} {
		bus.Subscribe(k, "test-recorder", func(ev event.Event) error {
			h.events = append(h.events, ev)
			return nil
		})
	}
	return h
}

func (h *fakeHost) Transform() *transform.Transform { return h.t }
func (h *fakeHost) Bus() *event.Bus                 { return h.bus }
func (h *fakeHost) Layers() *stack.Stack            { return h.stack }
func (h *fakeHost) Chrome() Chrome                  { return h.chrome }
func (h *fakeHost) RequestRedraw()                  { h.redraws++ }
func (h *fakeHost) Logger() *zap.Logger             { return h.logger }

func (h *fakeHost) gesture(kind event.Kind, x, y float64) {
	h.bus.Emit(event.Event{Kind: kind, X: x, Y: y})
}

// drag emits a middle drag from (x0, y0) to (x1, y1) in one update.
func (h *fakeHost) drag(x0, y0, x1, y1 float64) {
	h.gesture(event.MiddleDragStart, x0, y0)
	h.gesture(event.MiddleDragUpdate, x1-x0, y1-y0)
	h.gesture(event.MiddleDragEnd, x1, y1)
}

func (h *fakeHost) last(kind event.Kind) (event.Event, bool) {
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Kind == kind {
			return h.events[i], true
		}
	}
	return event.Event{}, false
}

// addPoints adds a vector layer with three points at pixels (20,20), (30,30)
// and (80,80) and makes it active.
func (h *fakeHost) addPoints(t *testing.T) (*layer.VectorLayer, []*layer.Feature) {
	t.Helper()
	fs := []*layer.Feature{
		{ID: "a", Geometry: orb.Point{-30, 30}, Properties: map[string]interface{}{"name": "a"}},
		{ID: "b", Geometry: orb.Point{-20, 20}, Properties: map[string]interface{}{"name": "b"}},
		{ID: "c", Geometry: orb.Point{30, -30}, Properties: map[string]interface{}{"name": "c"}},
	}
	l, err := layer.NewVectorLayer("points", "", fs, transform.Geographic{})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.stack.Add(l); err != nil {
		t.Fatal(err)
	}
	h.stack.SetActive(h.stack.Index(l))
	return l, fs
}
