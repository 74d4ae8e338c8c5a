// Package panels provides UI panels for the application.
package panels

import (
	"map-viewer/internal/panel"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections. Tools add
// their attribute panels to it as extra tabs.
type SidePanel struct {
	container *container.AppTabs
	layers    *container.TabItem
	attrs     map[*panel.AttributePanel]*container.TabItem
}

// NewSidePanel creates a side panel with an empty Layers tab.
func NewSidePanel() *SidePanel {
	sp := &SidePanel{
		layers: container.NewTabItem("Layers", widget.NewLabel("No layers")),
		attrs:  make(map[*panel.AttributePanel]*container.TabItem),
	}
	sp.container = container.NewAppTabs(sp.layers)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetLayers puts content in the Layers tab.
func (sp *SidePanel) SetLayers(content fyne.CanvasObject) {
	sp.layers.Content = content
	sp.container.Refresh()
}

// AddPanel shows p as a tab and keeps it updated.
func (sp *SidePanel) AddPanel(p *panel.AttributePanel) {
	if _, ok := sp.attrs[p]; ok {
		return
	}
	rows := &lines{}
	rows.set(p.Lines())
	list := widget.NewList(
		rows.len,
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(rows.at(id))
		},
	)
	p.OnChange = func() {
		rows.set(p.Lines())
		list.Refresh()
	}

	tab := container.NewTabItem(p.Title(), list)
	sp.attrs[p] = tab
	sp.container.Append(tab)
	sp.container.Select(tab)
}

// RemovePanel removes the tab showing p.
func (sp *SidePanel) RemovePanel(p *panel.AttributePanel) {
	tab, ok := sp.attrs[p]
	if !ok {
		return
	}
	p.OnChange = nil
	delete(sp.attrs, p)
	sp.container.Remove(tab)
}

// Panels returns the number of attribute tabs.
func (sp *SidePanel) Panels() int {
	return len(sp.attrs)
}
