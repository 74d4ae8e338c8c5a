// Package viewer provides the map canvas: it owns the coordinate transform,
// the event bus, the layer stack and the active tools, turns raw pointer
// input into gestures, and applies layers loaded in the background.
//
// A Canvas must only be used from one goroutine. Background loads hand their
// results back through a channel drained by DrainCompletions on that goroutine.
package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/loader"
	"map-viewer/internal/metrics"
	"map-viewer/internal/panel"
	"map-viewer/internal/render"
	"map-viewer/internal/stack"
	"map-viewer/internal/tool"
	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
	"map-viewer/pkg/maperr"
)

const (
	// focusMargin enlarges the fitted extent in Focus.
	focusMargin = 1.1
	// DefaultDragThreshold is used when Options.DragThreshold is not positive.
	DefaultDragThreshold = 4.0
)

// Options configures a Canvas.
type Options struct {
	Width, Height int
	Projection    transform.Projection
	// Scale is projection units per pixel.
	Scale float64
	// Center is the initial geographic centre (lon, lat).
	Center geometry.Point2D
	// DragThreshold is how far, in pixels, the pointer must move with the
	// middle button held before a press becomes a drag.
	DragThreshold float64

	Theme    render.Theme
	Renderer render.Renderer
	Chrome   tool.Chrome

	// Load configures background decoding. Projection is filled in per load.
	Load loader.Options
	// Open decodes files; nil means loader.Open.
	Open OpenFunc

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Canvas is the map view core.
type Canvas struct {
	t        *transform.Transform
	bus      *event.Bus
	stack    *stack.Stack
	tools    []tool.Tool
	chrome   tool.Chrome
	renderer render.Renderer
	theme    render.Theme

	logger  *zap.Logger
	metrics *metrics.Metrics

	dragThreshold float64
	pointer       pointerState

	loadOpts    loader.Options
	open        OpenFunc
	completions chan Completion
	done        chan struct{}
	loads       sync.WaitGroup
	closed      bool

	redrawPending   bool
	rerenderPending bool
	// OnInvalidate is called when the view needs repainting. full is true
	// when layers must be re-rendered, false for tool overlays only.
	OnInvalidate func(full bool)
}

// New creates a canvas centred on opts.Center.
func New(opts Options) (*Canvas, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Projection == nil {
		opts.Projection = transform.WebMercator{}
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d must be positive", opts.Width, opts.Height)
	}
	if opts.Scale <= 0 {
		return nil, fmt.Errorf("canvas scale %v must be positive", opts.Scale)
	}
	if opts.Renderer == nil {
		opts.Renderer = render.Raster{}
	}
	if opts.Theme == (render.Theme{}) {
		opts.Theme = render.DefaultTheme
	}
	if opts.Chrome == nil {
		opts.Chrome = noChrome{}
	}
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = DefaultDragThreshold
	}
	if opts.Open == nil {
		opts.Open = loader.Open
	}

	x, y, err := opts.Projection.Project(opts.Center.X, opts.Center.Y)
	if err != nil {
		return nil, fmt.Errorf("canvas centre: %w", err)
	}
	t, err := transform.New(opts.Width, opts.Height, opts.Projection, opts.Scale, geometry.Point2D{X: x, Y: y})
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.Named("canvas")
	bus := event.NewBus(opts.Logger, opts.Metrics)
	c := &Canvas{
		t:             t,
		bus:           bus,
		stack:         stack.New(bus, opts.Logger, opts.Metrics),
		chrome:        opts.Chrome,
		renderer:      opts.Renderer,
		theme:         opts.Theme,
		logger:        logger,
		metrics:       opts.Metrics,
		dragThreshold: opts.DragThreshold,
		loadOpts:      opts.Load,
		open:          opts.Open,
		completions:   make(chan Completion, completionBuffer),
		done:          make(chan struct{}),
	}
	if _, err := bus.Subscribe(event.RerenderRequested, "canvas", c.onRerender); err != nil {
		return nil, err
	}
	return c, nil
}

// Transform implements tool.Host.
func (c *Canvas) Transform() *transform.Transform { return c.t }

// Bus implements tool.Host.
func (c *Canvas) Bus() *event.Bus { return c.bus }

// Layers implements tool.Host.
func (c *Canvas) Layers() *stack.Stack { return c.stack }

// Chrome implements tool.Host.
func (c *Canvas) Chrome() tool.Chrome { return c.chrome }

// Logger implements tool.Host.
func (c *Canvas) Logger() *zap.Logger { return c.logger }

// RequestRedraw implements tool.Host.
func (c *Canvas) RequestRedraw() {
	c.redrawPending = true
	if c.OnInvalidate != nil {
		c.OnInvalidate(false)
	}
}

func (c *Canvas) onRerender(event.Event) error {
	c.rerenderPending = true
	if c.OnInvalidate != nil {
		c.OnInvalidate(true)
	}
	return nil
}

func (c *Canvas) requestRerender(source string) {
	c.bus.Emit(event.Event{Kind: event.RerenderRequested, Source: source})
}

// Invalidated reports and resets the pending repaint flags.
func (c *Canvas) Invalidated() (redraw, rerender bool) {
	redraw, rerender = c.redrawPending, c.rerenderPending
	c.redrawPending, c.rerenderPending = false, false
	return redraw, rerender
}

// ActivateTool activates t on this canvas.
func (c *Canvas) ActivateTool(t tool.Tool) error {
	if err := t.Activate(c); err != nil {
		return fmt.Errorf("activate %s: %w", t.Name(), err)
	}
	c.tools = append(c.tools, t)
	c.RequestRedraw()
	return nil
}

// DeactivateTool deactivates t and forgets it.
func (c *Canvas) DeactivateTool(t tool.Tool) error {
	err := t.Deactivate()
	for i, x := range c.tools {
		if x == t {
			c.tools = append(c.tools[:i], c.tools[i+1:]...)
			break
		}
	}
	if err != nil {
		return fmt.Errorf("deactivate %s: %w", t.Name(), err)
	}
	c.RequestRedraw()
	return nil
}

// Tools returns the active tools in activation order.
func (c *Canvas) Tools() []tool.Tool {
	return append([]tool.Tool(nil), c.tools...)
}

// AddLayer reprojects l to the canvas projection if needed, stacks it on top
// and makes it the active layer.
func (c *Canvas) AddLayer(l layer.Layer) error {
	c.prepare(l)
	if err := c.stack.Add(l); err != nil {
		return err
	}
	if err := c.stack.SetActive(c.stack.Index(l)); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// RemoveLayer removes l from the stack.
func (c *Canvas) RemoveLayer(l layer.Layer) error {
	if err := c.stack.Remove(l); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// prepare reprojects l when it was built for another projection. Features
// that cannot be projected are logged; the rest of the layer stays usable.
func (c *Canvas) prepare(l layer.Layer) {
	p, ok := l.(layer.Projectable)
	if !ok || p.ProjectionID() == c.t.Projection().ID() {
		return
	}
	if err := p.Reproject(c.t.Projection()); err != nil {
		c.logger.Warn("layer reprojection incomplete", zap.String("layer", l.Name()), zap.Error(err))
	}
}

// SetProjection switches the canvas projection, keeping the geographic
// centre and the approximate ground resolution, and reprojects every layer.
func (c *Canvas) SetProjection(p transform.Projection) error {
	if p == nil {
		return fmt.Errorf("set projection: nil projection")
	}
	if p.ID() == c.t.Projection().ID() {
		return nil
	}
	scale, scaleErr := c.equivalentScale(p)
	if err := c.t.SetProjection(p); err != nil {
		return err
	}
	if scaleErr == nil {
		if err := c.t.SetScale(scale); err != nil {
			c.logger.Warn("keeping previous scale", zap.Error(err))
		}
	} else {
		c.logger.Debug("keeping previous scale", zap.Error(scaleErr))
	}
	for _, l := range c.stack.Layers() {
		c.prepare(l)
	}
	c.logger.Info("projection changed", zap.String("projection", p.ID()))
	c.requestRerender("canvas")
	return nil
}

// equivalentScale measures the geographic span of a short horizontal segment
// through the canvas centre and returns the scale that shows the same span
// under p.
func (c *Canvas) equivalentScale(p transform.Projection) (float64, error) {
	const half = 50.0
	cx, cy := float64(c.t.Width())/2, float64(c.t.Height())/2
	lon0, lat0, err := c.t.Pix2Geo(cx-half, cy)
	if err != nil {
		return 0, err
	}
	lon1, lat1, err := c.t.Pix2Geo(cx+half, cy)
	if err != nil {
		return 0, err
	}
	x0, y0, err := p.Project(lon0, lat0)
	if err != nil {
		return 0, err
	}
	x1, y1, err := p.Project(lon1, lat1)
	if err != nil {
		return 0, err
	}
	d := geometry.Point2D{X: x0, Y: y0}.Distance(geometry.Point2D{X: x1, Y: y1})
	if d == 0 {
		return 0, errors.New("degenerate span")
	}
	return d / (2 * half), nil
}

// Focus centres the view on l and fits its extent.
func (c *Canvas) Focus(l layer.Layer) error {
	b, ok := l.(layer.Bounded)
	if !ok {
		return &maperr.CapabilityMismatchError{Layer: l.Name(), Op: "focus"}
	}
	box, ok := b.Bounds()
	if !ok {
		return fmt.Errorf("focus %q: layer has no extent", l.Name())
	}
	if err := c.t.Fit(box, focusMargin); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// Extent returns the union of the extents of all stacked layers.
func (c *Canvas) Extent() (geometry.Box, bool) {
	var box geometry.Box
	found := false
	for _, l := range c.stack.Layers() {
		b, ok := l.(layer.Bounded)
		if !ok {
			continue
		}
		lb, ok := b.Bounds()
		if !ok {
			continue
		}
		if !found {
			box, found = lb, true
			continue
		}
		box = box.Union(lb)
	}
	return box, found
}

// FocusAll fits the view to every stacked layer.
func (c *Canvas) FocusAll() error {
	box, ok := c.Extent()
	if !ok {
		return fmt.Errorf("focus: no layer has an extent")
	}
	if err := c.t.Fit(box, focusMargin); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// SetLayerStyle changes how l is drawn. fill is ignored for layers without
// a fill colour; opacity must be in (0, 1].
func (c *Canvas) SetLayerStyle(l layer.Layer, fill color.RGBA, opacity float64) error {
	if opacity <= 0 || opacity > 1 {
		return fmt.Errorf("opacity %v outside (0, 1]", opacity)
	}
	if c.stack.Index(l) < 0 {
		return fmt.Errorf("style %q: %w", l.Name(), stack.ErrNotFound)
	}
	switch x := l.(type) {
	case *layer.VectorLayer:
		x.Color = fill
		x.Opacity = opacity
	case *layer.RasterLayer:
		x.Opacity = opacity
	case *layer.TileLayer:
		x.Opacity = opacity
	default:
		return &maperr.CapabilityMismatchError{Layer: l.Name(), Op: "style"}
	}
	c.requestRerender("canvas")
	return nil
}

// Describe returns a summary of l for display.
func (c *Canvas) Describe(l layer.Layer) string {
	return layer.Describe(l)
}

// Zoom multiplies the scale by factor about the canvas centre. factor < 1
// zooms in.
func (c *Canvas) Zoom(factor float64) error {
	if err := c.t.ZoomAt(float64(c.t.Width())/2, float64(c.t.Height())/2, factor); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// Resize changes the canvas pixel size.
func (c *Canvas) Resize(width, height int) error {
	if width == c.t.Width() && height == c.t.Height() {
		return nil
	}
	if err := c.t.Resize(width, height); err != nil {
		return err
	}
	c.requestRerender("canvas")
	return nil
}

// RenderLayers draws every layer bottom first.
func (c *Canvas) RenderLayers(s *render.Surface) {
	render.Layers(s, c.renderer, c.t, c.stack.Layers(), c.theme)
}

// RenderOverlays draws the active tools on top of s.
func (c *Canvas) RenderOverlays(s *render.Surface) {
	for _, t := range c.tools {
		t.Draw(c.renderer, s)
	}
}

// Render draws the full view into a new image.
func (c *Canvas) Render() *image.RGBA {
	s := render.NewSurface(c.t.Width(), c.t.Height())
	c.RenderLayers(s)
	c.RenderOverlays(s)
	return s.Image()
}

// Close stops accepting background results and deactivates every tool.
// Loads still running finish on their own; their results are dropped.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	c.dropPending()

	var errs []error
	for _, t := range c.Tools() {
		if err := c.DeactivateTool(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noChrome struct{}

func (noChrome) AddPanel(*panel.AttributePanel)    {}
func (noChrome) RemovePanel(*panel.AttributePanel) {}
