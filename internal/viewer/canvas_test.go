package viewer

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/render"
	"map-viewer/internal/stack"
	"map-viewer/internal/tool"
	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
	"map-viewer/pkg/maperr"
)

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero size", Options{Scale: 1}},
		{"zero scale", Options{Width: 10, Height: 10}},
		{"centre outside mercator", Options{Width: 10, Height: 10, Scale: 1, Projection: transform.WebMercator{}, Center: geometry.Point2D{Y: 89.9}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Error("New succeeded, want error")
			}
		})
	}
}

func TestPanToolThroughGestures(t *testing.T) {
	c, _ := newCanvas(t, nil)
	if err := c.ActivateTool(tool.NewPanTool(2, 0.01, 100)); err != nil {
		t.Fatal(err)
	}
	c.Invalidated()

	c.PointerDown(ButtonTertiary, 50, 50)
	c.PointerMove(60, 45)
	c.PointerUp(ButtonTertiary, 60, 45)

	if loc := c.Transform().Location(); loc.X != -10 || loc.Y != -5 {
		t.Errorf("location = %v, want (-10,-5)", loc)
	}
	if _, rerender := c.Invalidated(); !rerender {
		t.Error("pan did not request a rerender")
	}
}

func TestToolActivation(t *testing.T) {
	c, _ := newCanvas(t, nil)
	sel := tool.NewSelectTool(tool.DefaultStyles())

	if err := c.ActivateTool(sel); err != nil {
		t.Fatal(err)
	}
	if err := c.ActivateTool(sel); !maperr.IsInvalidState(err) {
		t.Errorf("second activate = %v, want invalid state", err)
	}
	if got := len(c.Tools()); got != 1 {
		t.Fatalf("tools = %d, want 1", got)
	}
	if err := c.DeactivateTool(sel); err != nil {
		t.Fatal(err)
	}
	if err := c.DeactivateTool(sel); !maperr.IsInvalidState(err) {
		t.Errorf("second deactivate = %v, want invalid state", err)
	}
	if got := len(c.Tools()); got != 0 {
		t.Errorf("tools = %d, want 0", got)
	}
}

func TestCloseDeactivatesTools(t *testing.T) {
	c, _ := newCanvas(t, nil)
	m := tool.NewMeasureTool(tool.DefaultStyles())
	if err := c.ActivateTool(m); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if m.Active() {
		t.Error("tool still active after Close")
	}
	if got := c.Bus().Count(event.LeftClick); got != 0 {
		t.Errorf("left-click subscribers = %d, want 0", got)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestAddLayerReprojects(t *testing.T) {
	c, _ := newCanvas(t, func(o *Options) {
		o.Projection = transform.WebMercator{}
		o.Scale = 1000
	})
	l := pointsLayer(t, "pts", orb.Point{1, 1})
	if err := c.AddLayer(l); err != nil {
		t.Fatal(err)
	}
	if got := l.ProjectionID(); got != transform.IDWebMercator {
		t.Errorf("projection = %s, want %s", got, transform.IDWebMercator)
	}
	if c.Layers().Len() != 1 {
		t.Errorf("stack len = %d", c.Layers().Len())
	}
}

func TestSetProjectionKeepsGroundResolution(t *testing.T) {
	c, _ := newCanvas(t, nil)
	l := pointsLayer(t, "pts", orb.Point{1, 1})
	if err := c.AddLayer(l); err != nil {
		t.Fatal(err)
	}

	if err := c.SetProjection(transform.WebMercator{}); err != nil {
		t.Fatal(err)
	}

	const metersPerDegree = 111319.49
	if got := c.Transform().Scale(); math.Abs(got-metersPerDegree)/metersPerDegree > 1e-6 {
		t.Errorf("scale = %v, want about %v", got, metersPerDegree)
	}
	if loc := c.Transform().Location(); math.Abs(loc.X) > 1e-6 || math.Abs(loc.Y) > 1e-6 {
		t.Errorf("centre = %v, want origin", loc)
	}
	if got := l.ProjectionID(); got != transform.IDWebMercator {
		t.Errorf("layer projection = %s", got)
	}
	if err := c.SetProjection(nil); err == nil {
		t.Error("nil projection accepted")
	}
}

func TestFocus(t *testing.T) {
	c, _ := newCanvas(t, nil)
	l := pointsLayer(t, "pts", orb.Point{10, 10}, orb.Point{30, 20})
	if err := c.AddLayer(l); err != nil {
		t.Fatal(err)
	}

	if err := c.Focus(l); err != nil {
		t.Fatal(err)
	}
	if loc := c.Transform().Location(); math.Abs(loc.X-20) > 1e-9 || math.Abs(loc.Y-15) > 1e-9 {
		t.Errorf("centre = %v, want (20,15)", loc)
	}
	if got, want := c.Transform().Scale(), 0.2*focusMargin; math.Abs(got-want) > 1e-9 {
		t.Errorf("scale = %v, want %v", got, want)
	}

	if err := c.Focus(&fakeLayer{name: "plain"}); !maperr.IsCapabilityMismatch(err) {
		t.Errorf("focus on plain layer = %v, want capability mismatch", err)
	}
}

func TestRenderEmptyCanvas(t *testing.T) {
	c, _ := newCanvas(t, nil)
	img := c.Render()
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(5, 5); got != render.DefaultTheme.Background {
		t.Errorf("pixel = %v, want background %v", got, render.DefaultTheme.Background)
	}
}

func TestResize(t *testing.T) {
	c, _ := newCanvas(t, nil)
	if err := c.Resize(200, 50); err != nil {
		t.Fatal(err)
	}
	if w, h := c.Transform().Width(), c.Transform().Height(); w != 200 || h != 50 {
		t.Errorf("size = %dx%d", w, h)
	}
	if err := c.Resize(0, 50); err == nil {
		t.Error("zero width accepted")
	}
}

func TestZoomKeepsCentre(t *testing.T) {
	c, _ := newCanvas(t, func(o *Options) { o.Center = geometry.Point2D{X: 10, Y: 5} })
	if err := c.Zoom(0.5); err != nil {
		t.Fatal(err)
	}
	if got := c.Transform().Scale(); got != 0.5 {
		t.Errorf("scale = %v, want 0.5", got)
	}
	if loc := c.Transform().Location(); math.Abs(loc.X-10) > 1e-9 || math.Abs(loc.Y-5) > 1e-9 {
		t.Errorf("centre = %v, want (10,5)", loc)
	}
	if err := c.Zoom(0); err == nil {
		t.Error("zero factor accepted")
	}
}

func TestFocusAll(t *testing.T) {
	c, _ := newCanvas(t, nil)
	if err := c.FocusAll(); err == nil {
		t.Error("FocusAll on empty canvas succeeded")
	}
	for _, l := range []*layer.VectorLayer{
		pointsLayer(t, "west", orb.Point{-40, -10}),
		pointsLayer(t, "east", orb.Point{40, 30}),
	} {
		if err := c.AddLayer(l); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.AddLayer(&fakeLayer{name: "plain"}); err != nil {
		t.Fatal(err)
	}

	box, ok := c.Extent()
	if !ok || box.MinX != -40 || box.MaxX != 40 || box.MinY != -10 || box.MaxY != 30 {
		t.Fatalf("extent = %+v, %v", box, ok)
	}
	if err := c.FocusAll(); err != nil {
		t.Fatal(err)
	}
	if loc := c.Transform().Location(); math.Abs(loc.X) > 1e-9 || math.Abs(loc.Y-10) > 1e-9 {
		t.Errorf("centre = %v, want (0,10)", loc)
	}
}

func TestSetLayerStyle(t *testing.T) {
	c, _ := newCanvas(t, nil)
	l := pointsLayer(t, "pts", orb.Point{1, 1})
	if err := c.AddLayer(l); err != nil {
		t.Fatal(err)
	}
	c.Invalidated()

	red := color.RGBA{R: 255, A: 255}
	if err := c.SetLayerStyle(l, red, 0.8); err != nil {
		t.Fatal(err)
	}
	if l.Color != red || l.Opacity != 0.8 {
		t.Errorf("style = %v/%v", l.Color, l.Opacity)
	}
	if _, rerender := c.Invalidated(); !rerender {
		t.Error("restyle did not request a rerender")
	}

	if err := c.SetLayerStyle(l, red, 0); err == nil {
		t.Error("zero opacity accepted")
	}
	if err := c.SetLayerStyle(pointsLayer(t, "other"), red, 1); !errors.Is(err, stack.ErrNotFound) {
		t.Errorf("unstacked layer = %v, want ErrNotFound", err)
	}
	plain := &fakeLayer{name: "plain"}
	if err := c.AddLayer(plain); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLayerStyle(plain, red, 1); !maperr.IsCapabilityMismatch(err) {
		t.Errorf("plain layer = %v, want capability mismatch", err)
	}
}

func TestAddedLayerBecomesActive(t *testing.T) {
	c, _ := newCanvas(t, nil)
	r := record(t, c, event.ActiveLayerChanged)
	a := pointsLayer(t, "a", orb.Point{-30, 30})
	b := pointsLayer(t, "b", orb.Point{20, -20})
	for _, l := range []layer.Layer{a, b} {
		if err := c.AddLayer(l); err != nil {
			t.Fatal(err)
		}
		if got, _ := c.Layers().Active(); got != l {
			t.Fatalf("active after adding %s = %v", l.Name(), got)
		}
	}
	if n := r.count(event.ActiveLayerChanged); n != 2 {
		t.Errorf("active-layer-changed = %d, want 2", n)
	}

	sel := tool.NewSelectTool(tool.DefaultStyles())
	if err := c.ActivateTool(sel); err != nil {
		t.Fatal(err)
	}
	// b's point is at pixel (70, 70).
	c.DoubleClick(70, 70)
	fs := sel.Selection().Features()
	if len(fs) != 1 || fs[0] != b.Features()[0] {
		t.Errorf("selection = %v, want b's feature", fs)
	}
}

func TestBoxSelectWhilePanning(t *testing.T) {
	c, _ := newCanvas(t, nil)
	if err := c.AddLayer(pointsLayer(t, "pts", orb.Point{-30, 30})); err != nil {
		t.Fatal(err)
	}
	pan := tool.NewPanTool(1.25, 0, 0)
	sel := tool.NewSelectTool(tool.DefaultStyles())
	if err := c.ActivateTool(pan); err != nil {
		t.Fatal(err)
	}
	if err := c.ActivateTool(sel); err != nil {
		t.Fatal(err)
	}

	c.PointerDown(ButtonTertiary, 10, 10)
	c.PointerMove(30, 30)
	c.PointerUp(ButtonTertiary, 30, 30)

	if x, y := c.Transform().Pix2Proj(50, 50); math.Abs(x+20) > 1e-9 || math.Abs(y-20) > 1e-9 {
		t.Fatalf("view centre = (%v, %v), want the drag to pan to (-20, 20)", x, y)
	}
	if n := sel.Selection().Len(); n != 1 {
		t.Errorf("selected %d features, want 1", n)
	}
}
