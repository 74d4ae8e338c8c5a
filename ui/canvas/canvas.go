// Package canvas provides the map widget: a fyne raster that renders a
// viewer.Canvas and forwards pointer input to it.
package canvas

import (
	"image"
	"sync"

	"map-viewer/internal/render"
	"map-viewer/internal/viewer"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// MapCanvas displays a map view. Every access to the wrapped viewer.Canvas
// goes through Do so fyne callbacks, the draw callback and background load
// results never touch it concurrently.
type MapCanvas struct {
	widget.BaseWidget

	mu   sync.Mutex
	view *viewer.Canvas

	raster  *fynecanvas.Raster
	layers  *image.RGBA // last layer rendering, reused while only overlays change
	drawing bool
	ratio   float32 // raster pixels per fyne unit

	onLoad func(viewer.Completion)
	quit   chan struct{}
	once   sync.Once
}

// New wraps view. onLoad, if set, is called after each background load has
// been applied, outside the view lock.
func New(view *viewer.Canvas, onLoad func(viewer.Completion)) *MapCanvas {
	mc := &MapCanvas{
		view:   view,
		ratio:  1,
		onLoad: onLoad,
		quit:   make(chan struct{}),
	}
	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(fyne.NewSize(320, 240))

	view.OnInvalidate = func(full bool) {
		if full {
			mc.layers = nil
		}
		if !mc.drawing {
			mc.raster.Refresh()
		}
	}

	mc.ExtendBaseWidget(mc)
	go mc.run()
	return mc
}

// Do runs fn with exclusive access to the view.
func (mc *MapCanvas) Do(fn func(v *viewer.Canvas)) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	fn(mc.view)
}

// run applies finished background loads as they arrive.
func (mc *MapCanvas) run() {
	for {
		select {
		case done := <-mc.view.Ready():
			mc.mu.Lock()
			res := mc.view.Apply(done)
			mc.mu.Unlock()
			if mc.onLoad != nil {
				mc.onLoad(res)
			}
		case <-mc.quit:
			return
		}
	}
}

// Close stops applying loads and closes the view.
func (mc *MapCanvas) Close() error {
	var err error
	mc.once.Do(func() {
		close(mc.quit)
		mc.mu.Lock()
		err = mc.view.Close()
		mc.mu.Unlock()
	})
	return err
}

// CreateRenderer implements fyne.Widget.
func (mc *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(mc.raster)
}

// MinSize implements fyne.CanvasObject.
func (mc *MapCanvas) MinSize() fyne.Size {
	return mc.raster.MinSize()
}

func (mc *MapCanvas) draw(w, h int) image.Image {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.drawing = true
	defer func() { mc.drawing = false }()

	if size := mc.Size(); size.Width > 0 {
		mc.ratio = float32(w) / size.Width
	}
	if err := mc.view.Resize(w, h); err != nil {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	mc.view.Invalidated()

	if mc.layers == nil || mc.layers.Bounds().Dx() != w || mc.layers.Bounds().Dy() != h {
		s := render.NewSurface(w, h)
		mc.view.RenderLayers(s)
		mc.layers = s.Image()
	}

	out := image.NewRGBA(mc.layers.Bounds())
	copy(out.Pix, mc.layers.Pix)
	mc.view.RenderOverlays(render.SurfaceFor(out))
	return out
}

func (mc *MapCanvas) pixel(pos fyne.Position) (float64, float64) {
	return float64(pos.X * mc.ratio), float64(pos.Y * mc.ratio)
}

func button(b desktop.MouseButton) (viewer.Button, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return viewer.ButtonPrimary, true
	case desktop.MouseButtonSecondary:
		return viewer.ButtonSecondary, true
	case desktop.MouseButtonTertiary:
		return viewer.ButtonTertiary, true
	}
	return 0, false
}

// MouseDown implements desktop.Mouseable.
func (mc *MapCanvas) MouseDown(ev *desktop.MouseEvent) {
	b, ok := button(ev.Button)
	if !ok {
		return
	}
	mc.Do(func(v *viewer.Canvas) {
		x, y := mc.pixel(ev.Position)
		v.PointerDown(b, x, y)
	})
}

// MouseUp implements desktop.Mouseable.
func (mc *MapCanvas) MouseUp(ev *desktop.MouseEvent) {
	b, ok := button(ev.Button)
	if !ok {
		return
	}
	mc.Do(func(v *viewer.Canvas) {
		x, y := mc.pixel(ev.Position)
		v.PointerUp(b, x, y)
	})
}

// MouseIn implements desktop.Hoverable.
func (mc *MapCanvas) MouseIn(ev *desktop.MouseEvent) {
	mc.MouseMoved(ev)
}

// MouseMoved implements desktop.Hoverable.
func (mc *MapCanvas) MouseMoved(ev *desktop.MouseEvent) {
	mc.Do(func(v *viewer.Canvas) {
		x, y := mc.pixel(ev.Position)
		v.PointerMove(x, y)
	})
}

// MouseOut implements desktop.Hoverable.
func (mc *MapCanvas) MouseOut() {}

// DoubleTapped implements fyne.DoubleTappable.
func (mc *MapCanvas) DoubleTapped(ev *fyne.PointEvent) {
	mc.Do(func(v *viewer.Canvas) {
		x, y := mc.pixel(ev.Position)
		v.DoubleClick(x, y)
	})
}

// Scrolled implements fyne.Scrollable. One event is one wheel step.
func (mc *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	var delta float64
	switch {
	case ev.Scrolled.DY > 0:
		delta = 1
	case ev.Scrolled.DY < 0:
		delta = -1
	default:
		return
	}
	mc.Do(func(v *viewer.Canvas) {
		x, y := mc.pixel(ev.Position)
		v.Scroll(x, y, delta)
	})
}
