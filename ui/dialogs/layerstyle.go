// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"map-viewer/internal/layer"
	"map-viewer/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Style is the editable appearance of a layer.
type Style struct {
	Color   color.RGBA
	Opacity float64
}

// StyleOf returns the current style of l and whether l can be styled.
func StyleOf(l layer.Layer) (Style, bool) {
	switch x := l.(type) {
	case *layer.VectorLayer:
		return Style{Color: x.Color, Opacity: x.Opacity}, true
	case *layer.RasterLayer:
		return Style{Opacity: x.Opacity}, true
	case *layer.TileLayer:
		return Style{Opacity: x.Opacity}, true
	}
	return Style{}, false
}

// ParseStyle reads a colour (name or #rrggbb) and an opacity in (0, 1].
// An empty colour keeps fallback.
func ParseStyle(colorText, opacityText string, fallback color.RGBA) (Style, error) {
	s := Style{Color: fallback}
	if strings.TrimSpace(colorText) != "" {
		c, err := colorutil.Parse(colorText)
		if err != nil {
			return s, err
		}
		s.Color = c
	}
	op, err := strconv.ParseFloat(strings.TrimSpace(opacityText), 64)
	if err != nil {
		return s, fmt.Errorf("opacity %q is not a number", opacityText)
	}
	if op <= 0 || op > 1 {
		return s, fmt.Errorf("opacity %v outside (0, 1]", op)
	}
	s.Opacity = op
	return s, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// LayerStyleDialog provides a property sheet for a layer's colour and opacity.
type LayerStyleDialog struct {
	layer  layer.Layer
	style  Style
	window fyne.Window

	colorEntry   *widget.Entry
	opacityEntry *widget.Entry
	swatch       *fynecanvas.Rectangle

	// Callback
	onSave func(Style) error
}

// NewLayerStyleDialog creates a new style dialog for l starting from style,
// which the caller reads while holding the map view.
func NewLayerStyleDialog(l layer.Layer, style Style, window fyne.Window, onSave func(Style) error) *LayerStyleDialog {
	return &LayerStyleDialog{layer: l, style: style, window: window, onSave: onSave}
}

// Show displays the dialog.
func (d *LayerStyleDialog) Show() {
	dlg := dialog.NewCustomConfirm(
		"Layer Style: "+d.layer.Name(),
		"Apply",
		"Cancel",
		d.createContent(),
		func(apply bool) {
			if apply {
				d.apply()
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(360, 220))
	dlg.Show()
}

func (d *LayerStyleDialog) createContent() fyne.CanvasObject {
	d.swatch = fynecanvas.NewRectangle(d.style.Color)
	d.swatch.SetMinSize(fyne.NewSize(24, 24))

	d.colorEntry = widget.NewEntry()
	d.colorEntry.SetText(hexColor(d.style.Color))
	d.colorEntry.OnChanged = func(text string) {
		if c, err := colorutil.Parse(text); err == nil {
			d.swatch.FillColor = c
			d.swatch.Refresh()
		}
	}
	_, vector := d.layer.(*layer.VectorLayer)
	if !vector {
		d.colorEntry.Disable()
	}

	d.opacityEntry = widget.NewEntry()
	d.opacityEntry.SetText(strconv.FormatFloat(d.style.Opacity, 'f', 2, 64))

	return widget.NewForm(
		widget.NewFormItem("Colour", container.NewBorder(nil, nil, nil, d.swatch, d.colorEntry)),
		widget.NewFormItem("Opacity", d.opacityEntry),
	)
}

func (d *LayerStyleDialog) apply() {
	colorText := d.colorEntry.Text
	if d.colorEntry.Disabled() {
		colorText = ""
	}
	style, err := ParseStyle(colorText, d.opacityEntry.Text, d.style.Color)
	if err == nil && d.onSave != nil {
		err = d.onSave(style)
	}
	if err != nil {
		dialog.ShowError(err, d.window)
	}
}
