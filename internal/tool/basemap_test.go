package tool

import (
	"testing"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
)

func TestBasemapInsertedAtBottom(t *testing.T) {
	h := newHost(t)
	vec, _ := h.addPoints(t)
	b := NewBasemapToggleTool("OSM", "")
	if err := b.Activate(h); err != nil {
		t.Fatal(err)
	}
	if h.stack.At(0) != layer.Layer(b.Basemap()) {
		t.Fatalf("bottom layer = %v, want basemap", h.stack.At(0))
	}
	if l, _ := h.stack.Active(); l != layer.Layer(vec) {
		t.Errorf("active layer changed to %v", l)
	}
	if err := b.Deactivate(); err != nil {
		t.Fatal(err)
	}
	if h.stack.Len() != 1 || h.stack.At(0) != layer.Layer(vec) {
		t.Errorf("stack after Deactivate = %v", h.stack.Layers())
	}
}

func TestBasemapUserRemoval(t *testing.T) {
	h := newHost(t)
	b := NewBasemapToggleTool("OSM", "")
	b.Activate(h)
	if err := h.stack.Remove(b.Basemap()); err != nil {
		t.Fatal(err)
	}
	if b.Basemap() != nil {
		t.Error("tool did not notice the basemap was removed")
	}
	if err := b.Deactivate(); err != nil {
		t.Errorf("Deactivate after user removal: %v", err)
	}
}

func TestBasemapFailedActivateLeavesNothing(t *testing.T) {
	h := newHost(t)
	b := NewBasemapToggleTool("OSM", "")
	// A tile layer already stacked makes the insert fail.
	if err := h.stack.Add(b.tile); err != nil {
		t.Fatal(err)
	}
	before := h.bus.Count(event.LayerRemoved)

	if err := b.Activate(h); err == nil {
		t.Fatal("Activate succeeded with the tile layer already stacked")
	}
	if b.Active() {
		t.Error("tool active after failed Activate")
	}
	if got := h.bus.Count(event.LayerRemoved); got != before {
		t.Errorf("layer-removed subscribers = %d, want %d", got, before)
	}
	if h.stack.Len() != 1 || b.Basemap() != nil {
		t.Errorf("stack = %v, basemap = %v after failed Activate", h.stack.Layers(), b.Basemap())
	}
}

func TestBasemapReactivate(t *testing.T) {
	h := newHost(t)
	b := NewBasemapToggleTool("OSM", "")
	for i := 0; i < 2; i++ {
		if err := b.Activate(h); err != nil {
			t.Fatalf("activation %d: %v", i, err)
		}
		if h.stack.Len() != 1 {
			t.Fatalf("activation %d: stack has %d layers", i, h.stack.Len())
		}
		if err := b.Deactivate(); err != nil {
			t.Fatalf("deactivation %d: %v", i, err)
		}
	}
	if h.stack.Len() != 0 {
		t.Errorf("stack = %v after Deactivate", h.stack.Layers())
	}
}
