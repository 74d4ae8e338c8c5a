package panels

import (
	"sync/atomic"

	"map-viewer/internal/layer"
	"map-viewer/internal/stack"
	"map-viewer/internal/viewer"
	mapcanvas "map-viewer/ui/canvas"
	"map-viewer/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// LayersPanel lists the stacked layers, bottom layer first, and offers the
// per-layer operations.
type LayersPanel struct {
	canvas    *mapcanvas.MapCanvas
	view      *stack.ListView
	window    fyne.Window
	list      *widget.List
	names     *lines
	selected  atomic.Int64
	syncing   atomic.Bool
	container fyne.CanvasObject

	// OnStatus reports the outcome of an operation.
	OnStatus func(string)
	// OnDeleted is called after the user removed a layer.
	OnDeleted func(layer.Layer)
}

// NewLayersPanel creates a panel over view. view must belong to the stack
// of the canvas.
func NewLayersPanel(mc *mapcanvas.MapCanvas, view *stack.ListView) *LayersPanel {
	lp := &LayersPanel{canvas: mc, view: view, names: &lines{}}
	lp.selected.Store(-1)

	lp.list = widget.NewList(
		lp.names.len,
		func() fyne.CanvasObject { return widget.NewLabel("layer") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(lp.names.at(id))
		},
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		lp.selected.Store(int64(id))
		if lp.syncing.Load() {
			return
		}
		lp.do("select", func(*viewer.Canvas) error { return view.Select(id) })
	}
	// OnChange runs with the view locked.
	view.OnChange = func() {
		lp.names.set(layerNames(view.Items()))
		lp.list.Refresh()
		lp.highlight(view.Active())
	}
	var active int
	mc.Do(func(*viewer.Canvas) {
		lp.names.set(layerNames(view.Items()))
		active = view.Active()
	})
	lp.highlight(active)

	buttons := container.NewGridWithColumns(3,
		widget.NewButton("Up", func() { lp.move(1) }),
		widget.NewButton("Down", func() { lp.move(-1) }),
		widget.NewButton("Focus", lp.onFocus),
		widget.NewButton("Style", lp.onStyle),
		widget.NewButton("Info", lp.onInfo),
		widget.NewButton("Delete", lp.onDelete),
	)
	lp.container = container.NewBorder(nil, buttons, nil, nil, lp.list)
	return lp
}

// Container returns the panel container.
func (lp *LayersPanel) Container() fyne.CanvasObject {
	return lp.container
}

// SetWindow sets the parent window for dialogs.
func (lp *LayersPanel) SetWindow(w fyne.Window) {
	lp.window = w
}

func (lp *LayersPanel) do(op string, fn func(v *viewer.Canvas) error) {
	var err error
	lp.canvas.Do(func(v *viewer.Canvas) { err = fn(v) })
	if err != nil {
		lp.status(op + ": " + err.Error())
	}
}

func (lp *LayersPanel) status(text string) {
	if lp.OnStatus != nil {
		lp.OnStatus(text)
	}
}

// highlight selects row i without pushing the selection back to the stack,
// so it is safe to call with the view locked.
func (lp *LayersPanel) highlight(i int) {
	if int64(i) == lp.selected.Load() {
		return
	}
	lp.syncing.Store(true)
	defer lp.syncing.Store(false)
	if i < 0 {
		lp.selected.Store(-1)
		lp.list.UnselectAll()
		return
	}
	lp.list.Select(i)
}

// current returns the selected layer, or nil.
func (lp *LayersPanel) current() layer.Layer {
	var l layer.Layer
	i := int(lp.selected.Load())
	lp.canvas.Do(func(*viewer.Canvas) { l = lp.view.At(i) })
	if l == nil {
		lp.status("No layer selected")
	}
	return l
}

// move shifts the selected layer by delta stack positions; positive is up.
func (lp *LayersPanel) move(delta int) {
	if lp.current() == nil {
		return
	}
	from := int(lp.selected.Load())
	to := from + delta
	lp.do("move", func(*viewer.Canvas) error { return lp.view.Drop(from, to) })
	var idx int
	lp.canvas.Do(func(*viewer.Canvas) { idx = lp.view.Active() })
	lp.highlight(idx)
}

func (lp *LayersPanel) onFocus() {
	l := lp.current()
	if l == nil {
		return
	}
	lp.do("focus", func(v *viewer.Canvas) error { return v.Focus(l) })
}

func (lp *LayersPanel) onInfo() {
	l := lp.current()
	if l == nil || lp.window == nil {
		return
	}
	var text string
	lp.canvas.Do(func(v *viewer.Canvas) { text = v.Describe(l) })
	label := widget.NewLabel(text)
	label.Wrapping = fyne.TextWrapWord
	dialog.ShowCustom(l.Name(), "Close", label, lp.window)
}

func (lp *LayersPanel) onStyle() {
	l := lp.current()
	if l == nil || lp.window == nil {
		return
	}
	var (
		style dialogs.Style
		ok    bool
	)
	lp.canvas.Do(func(*viewer.Canvas) { style, ok = dialogs.StyleOf(l) })
	if !ok {
		lp.status(l.Name() + " has no style")
		return
	}
	dialogs.NewLayerStyleDialog(l, style, lp.window, func(s dialogs.Style) error {
		var err error
		lp.canvas.Do(func(v *viewer.Canvas) { err = v.SetLayerStyle(l, s.Color, s.Opacity) })
		return err
	}).Show()
}

func (lp *LayersPanel) onDelete() {
	l := lp.current()
	if l == nil {
		return
	}
	var err error
	lp.canvas.Do(func(v *viewer.Canvas) { err = v.RemoveLayer(l) })
	if err != nil {
		lp.status("delete: " + err.Error())
		return
	}
	if lp.OnDeleted != nil {
		lp.OnDeleted(l)
	}
}

func layerNames(ls []layer.Layer) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name()
	}
	return out
}
