package stack

import (
	"errors"
	"fmt"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
)

// ListView mirrors a Stack for a user-reorderable list widget.
//
// Model to list: LayerAdded inserts at the stack index, LayerRemoved deletes
// by identity. List to model: Drop and SetOrder rewrite the stack to the new
// list order. Both sides use the same indices (0 = bottom).
type ListView struct {
	stack   *Stack
	bus     *event.Bus
	items   []layer.Layer
	handles []event.Handle

	// OnChange is called after the mirrored items or the active entry changed.
	OnChange func()
}

// NewListView creates a mirror of s and subscribes it to stack notifications.
func NewListView(s *Stack, bus *event.Bus) (*ListView, error) {
	v := &ListView{stack: s, bus: bus, items: s.Layers()}
	subs := []struct {
		kind event.Kind
		fn   event.Handler
	}{
		{event.LayerAdded, v.onAdded},
		{event.LayerRemoved, v.onRemoved},
		{event.LayersReordered, v.onReordered},
		{event.ActiveLayerChanged, v.onActiveChanged},
	}
	for _, sub := range subs {
		h, err := bus.Subscribe(sub.kind, "layer-list", sub.fn)
		if err != nil {
			return nil, errors.Join(err, v.Close())
		}
		v.handles = append(v.handles, h)
	}
	return v, nil
}

// Items returns the list entries in list order.
func (v *ListView) Items() []layer.Layer {
	return append([]layer.Layer(nil), v.items...)
}

// Len returns the number of entries.
func (v *ListView) Len() int { return len(v.items) }

// At returns the entry at list index i or nil.
func (v *ListView) At(i int) layer.Layer {
	if i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

// Drop handles a drag-and-drop of the entry at from onto index to.
func (v *ListView) Drop(from, to int) error {
	order, err := moved(v.items, from, to)
	if err != nil {
		return err
	}
	return v.SetOrder(order)
}

// SetOrder applies a user reorder of the whole list and pushes it to the stack.
func (v *ListView) SetOrder(order []layer.Layer) error {
	if err := v.stack.Reorder(order); err != nil {
		return fmt.Errorf("list reorder: %w", err)
	}
	return nil
}

// Active returns the list index of the active layer, -1 when the list is empty.
func (v *ListView) Active() int { return v.stack.ActiveIndex() }

// Select makes the entry at list index i the active layer.
func (v *ListView) Select(i int) error {
	return v.stack.SetActive(i)
}

// Remove deletes the entry at list index i from the stack.
func (v *ListView) Remove(i int) error {
	l := v.At(i)
	if l == nil {
		return fmt.Errorf("remove: list index %d out of range", i)
	}
	return v.stack.Remove(l)
}

// Close unsubscribes the mirror. Further stack changes are not observed.
func (v *ListView) Close() error {
	var errs []error
	for _, h := range v.handles {
		if err := v.bus.Unsubscribe(h); err != nil {
			errs = append(errs, err)
		}
	}
	v.handles = nil
	return errors.Join(errs...)
}

func (v *ListView) onAdded(ev event.Event) error {
	i := ev.Index
	if i < 0 || i > len(v.items) {
		return fmt.Errorf("layer %q added at %d, list has %d entries", nameOf(ev.Layer), i, len(v.items))
	}
	v.items = append(v.items, nil)
	copy(v.items[i+1:], v.items[i:])
	v.items[i] = ev.Layer
	v.changed()
	return nil
}

func (v *ListView) onRemoved(ev event.Event) error {
	for i, l := range v.items {
		if l == ev.Layer {
			v.items = append(v.items[:i], v.items[i+1:]...)
			v.changed()
			return nil
		}
	}
	return fmt.Errorf("layer %q removed but not listed", nameOf(ev.Layer))
}

// onReordered copies the stack order. For list-originated reorders this is
// a no-op in effect; programmatic reorders are picked up the same way.
func (v *ListView) onReordered(event.Event) error {
	v.items = v.stack.Layers()
	v.changed()
	return nil
}

func (v *ListView) onActiveChanged(event.Event) error {
	v.changed()
	return nil
}

func (v *ListView) changed() {
	if v.OnChange != nil {
		v.OnChange()
	}
}
