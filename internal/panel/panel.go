// Package panel holds the toolkit-independent model of side panels that
// tools add to the window chrome.
package panel

import (
	"strings"

	"map-viewer/internal/layer"
)

// Divider is the text shown between feature groups by Lines.
const Divider = "────────"

// Row is one line of an attribute panel.
type Row struct {
	Name    string
	Value   string
	Divider bool
}

// String formats the row as "name: value".
func (r Row) String() string {
	if r.Divider {
		return Divider
	}
	return r.Name + ": " + r.Value
}

// AttributePanel lists feature attributes as name/value rows, one group per
// feature separated by a divider row.
type AttributePanel struct {
	title string
	rows  []Row

	// OnChange is called after the rows changed.
	OnChange func()
}

// NewAttributePanel creates an empty panel.
func NewAttributePanel(title string) *AttributePanel {
	return &AttributePanel{title: title}
}

// Title returns the panel title.
func (p *AttributePanel) Title() string { return p.title }

// Show replaces the rows with the attributes of features.
func (p *AttributePanel) Show(features []*layer.Feature) {
	p.rows = p.rows[:0]
	for i, f := range features {
		if i > 0 {
			p.rows = append(p.rows, Row{Divider: true})
		}
		attrs := f.Attributes()
		if len(attrs) == 0 {
			p.rows = append(p.rows, Row{Name: "id", Value: f.ID})
			continue
		}
		for _, a := range attrs {
			p.rows = append(p.rows, Row{Name: a.Name, Value: a.Value})
		}
	}
	p.changed()
}

// Clear removes every row.
func (p *AttributePanel) Clear() {
	if len(p.rows) == 0 {
		return
	}
	p.rows = nil
	p.changed()
}

// Rows returns a copy of the rows.
func (p *AttributePanel) Rows() []Row {
	return append([]Row(nil), p.rows...)
}

// Len returns the row count.
func (p *AttributePanel) Len() int { return len(p.rows) }

// Lines returns the rows formatted for display.
func (p *AttributePanel) Lines() []string {
	out := make([]string, len(p.rows))
	for i, r := range p.rows {
		out[i] = r.String()
	}
	return out
}

// Text returns all lines joined by newlines.
func (p *AttributePanel) Text() string {
	return strings.Join(p.Lines(), "\n")
}

func (p *AttributePanel) changed() {
	if p.OnChange != nil {
		p.OnChange()
	}
}
