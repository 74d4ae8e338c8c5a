package tool

import (
	"errors"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/render"
)

// BasemapToggleTool shows a tile basemap at the bottom of the stack while
// active. If the user deletes the basemap layer the tool notices and does not
// try to remove it again.
type BasemapToggleTool struct {
	lifecycle
	tile *layer.TileLayer
	// basemap is tile while it is in the stack.
	basemap *layer.TileLayer
}

// NewBasemapToggleTool creates an inactive toggle for the basemap named title
// served from the tile URL template url.
func NewBasemapToggleTool(title, url string) *BasemapToggleTool {
	if title == "" {
		title = "Basemap"
	}
	return &BasemapToggleTool{lifecycle: lifecycle{name: "basemap"}, tile: layer.NewTileLayer(title, url)}
}

// Activate implements Tool.
func (b *BasemapToggleTool) Activate(h Host) error {
	if err := b.begin(h); err != nil {
		return err
	}
	// Subscribe first so a failure leaves nothing in the stack.
	if err := b.subscribeAll(map[event.Kind]event.Handler{
		event.LayerRemoved: b.onLayerRemoved,
	}); err != nil {
		return err
	}
	if err := h.Layers().Insert(0, b.tile); err != nil {
		return errors.Join(err, b.end())
	}
	b.basemap = b.tile
	return nil
}

// Deactivate implements Tool.
func (b *BasemapToggleTool) Deactivate() error {
	if !b.active {
		return b.end()
	}
	s := b.host.Layers()
	err := b.end()
	if b.basemap != nil && s.Index(b.basemap) >= 0 {
		err = errors.Join(err, s.Remove(b.basemap))
	}
	b.basemap = nil
	return err
}

// Basemap returns the tile layer while it is in the stack.
func (b *BasemapToggleTool) Basemap() *layer.TileLayer { return b.basemap }

func (b *BasemapToggleTool) onLayerRemoved(ev event.Event) error {
	if b.basemap != nil && ev.Layer == layer.Layer(b.basemap) {
		b.basemap = nil
	}
	return nil
}

// Draw implements Tool. The basemap is drawn as a layer.
func (b *BasemapToggleTool) Draw(render.Renderer, *render.Surface) {}
