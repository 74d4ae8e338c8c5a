package tool

import (
	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/panel"
	"map-viewer/internal/render"
	"map-viewer/pkg/geometry"
	"map-viewer/pkg/maperr"

	"go.uber.org/zap"
)

// selector is the selection behaviour shared by SelectTool and IdentifyTool:
// double-click selects at a point, middle-drag selects by box and
// middle-click clears. Queries go to the active layer only.
type selector struct {
	lifecycle
	styles    Styles
	selection *Selection

	dragging  bool
	dragStart geometry.Point2D
	dragEnd   geometry.Point2D
	// anchor is the projected point under dragStart when the drag began.
	anchor geometry.Point2D

	// onSelect runs after every selection-affecting operation.
	onSelect func(fs []*layer.Feature)
}

func newSelector(name string, styles Styles) selector {
	return selector{lifecycle: lifecycle{name: name}, styles: styles, selection: NewSelection()}
}

func (s *selector) activate(h Host, extra map[event.Kind]event.Handler) error {
	if err := s.begin(h); err != nil {
		return err
	}
	subs := map[event.Kind]event.Handler{
		event.DoubleClick:      s.onDoubleClick,
		event.MiddleClick:      s.onMiddleClick,
		event.MiddleDragStart:  s.onDragStart,
		event.MiddleDragUpdate: s.onDragUpdate,
		event.MiddleDragEnd:    s.onDragEnd,
	}
	for k, fn := range extra {
		subs[k] = fn
	}
	return s.subscribeAll(subs)
}

func (s *selector) deactivate() error {
	err := s.end()
	s.selection.Clear()
	s.dragging = false
	return err
}

// Selection returns the current selection.
func (s *selector) Selection() *Selection { return s.selection }

func (s *selector) onDoubleClick(ev event.Event) error {
	t := s.host.Transform()
	x, y := t.Pix2Proj(ev.X, ev.Y)
	tolerance := s.styles.PickRadius * t.Scale()
	l := s.activeLayer()
	var found []*layer.Feature
	if l != nil {
		fs, err := layer.PointSelect(l, x, y, tolerance)
		found = s.tolerate(fs, err)
	}
	s.merge(l, found)
	return nil
}

func (s *selector) onMiddleClick(event.Event) error {
	s.selection.Clear()
	s.host.RequestRedraw()
	s.emit(event.Event{Kind: event.SelectionCleared})
	return nil
}

func (s *selector) onDragStart(ev event.Event) error {
	s.dragging = true
	s.dragStart = geometry.Point2D{X: ev.X, Y: ev.Y}
	s.dragEnd = s.dragStart
	x, y := s.host.Transform().Pix2Proj(ev.X, ev.Y)
	s.anchor = geometry.Point2D{X: x, Y: y}
	return nil
}

func (s *selector) onDragUpdate(ev event.Event) error {
	if !s.dragging {
		return nil
	}
	s.dragEnd = s.dragEnd.Add(geometry.Point2D{X: ev.X, Y: ev.Y})
	s.host.RequestRedraw()
	return nil
}

func (s *selector) onDragEnd(ev event.Event) error {
	if !s.dragging {
		return nil
	}
	s.dragging = false
	end := geometry.Point2D{X: ev.X, Y: ev.Y}

	// The box is the rectangle swept on screen, placed where the view was
	// when the drag began. A pan during the drag moves the view, not the box.
	t := s.host.Transform()
	sx, sy := t.Pix2Proj(s.dragStart.X, s.dragStart.Y)
	ex, ey := t.Pix2Proj(end.X, end.Y)
	far := s.anchor.Add(geometry.Point2D{X: ex - sx, Y: ey - sy})
	box := geometry.NewBox(s.anchor, far)

	l := s.activeLayer()
	var found []*layer.Feature
	if l != nil {
		fs, err := layer.BoxSelect(l, box)
		found = s.tolerate(fs, err)
	}
	s.merge(l, found)
	return nil
}

func (s *selector) activeLayer() layer.Layer {
	l, _ := s.host.Layers().Active()
	return l
}

// tolerate turns a capability mismatch into an empty result.
func (s *selector) tolerate(fs []*layer.Feature, err error) []*layer.Feature {
	if err == nil {
		return fs
	}
	if maperr.IsCapabilityMismatch(err) {
		s.logger.Debug("active layer is not queryable", zap.Error(err))
	} else {
		s.logger.Warn("selection query failed", zap.Error(err))
	}
	return nil
}

func (s *selector) merge(l layer.Layer, found []*layer.Feature) {
	s.selection.Add(l, found...)
	fs := s.selection.Features()
	if s.onSelect != nil {
		s.onSelect(fs)
	}
	s.host.RequestRedraw()
	s.emit(event.Event{Kind: event.FeaturesSelected, Features: fs})
}

// Draw highlights the selected features and the drag box.
func (s *selector) Draw(r render.Renderer, surf *render.Surface) {
	if !s.active {
		return
	}
	t := s.host.Transform()
	s.selection.each(func(f *layer.Feature, l layer.Layer) {
		o, ok := l.(layer.Outlined)
		if !ok {
			return
		}
		if g := o.Projected(f); g != nil {
			render.Geometry(surf, r, t, g, s.styles.Selection)
		}
	})
	if s.dragging {
		a, b := s.dragStart, s.dragEnd
		r.DrawLine(surf, render.Loop, []float64{a.X, b.X, b.X, a.X}, []float64{a.Y, a.Y, b.Y, b.Y}, s.styles.SelectionBox)
	}
}

// SelectTool selects features of the active layer and highlights them.
type SelectTool struct {
	selector
}

// NewSelectTool creates an inactive select tool.
func NewSelectTool(styles Styles) *SelectTool {
	return &SelectTool{selector: newSelector("select", styles)}
}

// Activate implements Tool.
func (t *SelectTool) Activate(h Host) error { return t.activate(h, nil) }

// Deactivate implements Tool.
func (t *SelectTool) Deactivate() error { return t.deactivate() }

// IdentifyTool selects like SelectTool and lists the attributes of the
// selected features in a side panel.
type IdentifyTool struct {
	selector
	panel *panel.AttributePanel
}

// NewIdentifyTool creates an inactive identify tool.
func NewIdentifyTool(styles Styles) *IdentifyTool {
	t := &IdentifyTool{
		selector: newSelector("identify", styles),
		panel:    panel.NewAttributePanel("Identify"),
	}
	t.onSelect = t.panel.Show
	return t
}

// Panel returns the attribute panel shown while the tool is active.
func (t *IdentifyTool) Panel() *panel.AttributePanel { return t.panel }

// Activate implements Tool.
func (t *IdentifyTool) Activate(h Host) error {
	err := t.activate(h, map[event.Kind]event.Handler{
		event.SelectionCleared: t.onSelectionCleared,
	})
	if err != nil {
		return err
	}
	h.Chrome().AddPanel(t.panel)
	return nil
}

// Deactivate implements Tool.
func (t *IdentifyTool) Deactivate() error {
	if !t.active {
		return t.deactivate()
	}
	host := t.host
	err := t.deactivate()
	t.panel.Clear()
	host.Chrome().RemovePanel(t.panel)
	return err
}

func (t *IdentifyTool) onSelectionCleared(ev event.Event) error {
	if ev.Source == t.name {
		t.panel.Clear()
	}
	return nil
}
