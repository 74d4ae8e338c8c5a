// Package stack holds the ordered layer collection of a canvas and keeps a
// UI list mirror in sync with it.
//
// Ordering: index 0 is the bottom of the stack and is rendered first. A list
// mirror uses the same indices, so list index i always shows stack index i.
package stack

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/metrics"
)

// ErrNotFound is returned when a layer is not in the stack.
var ErrNotFound = errors.New("layer not in stack")

// Stack is the ordered layer collection plus the active layer index.
// It must only be used from the canvas's owning goroutine.
type Stack struct {
	layers []layer.Layer
	active int

	bus     *event.Bus
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an empty stack publishing on bus.
func New(bus *event.Bus, logger *zap.Logger, m *metrics.Metrics) *Stack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stack{
		active:  -1,
		bus:     bus,
		logger:  logger.Named("stack"),
		metrics: m,
	}
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Layers returns the layers bottom first.
func (s *Stack) Layers() []layer.Layer {
	return append([]layer.Layer(nil), s.layers...)
}

// At returns the layer at index i or nil.
func (s *Stack) At(i int) layer.Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// Index returns the position of l, or -1.
func (s *Stack) Index(l layer.Layer) int {
	for i, x := range s.layers {
		if x == l {
			return i
		}
	}
	return -1
}

// Active returns the active layer and its index, or (nil, -1) when empty.
func (s *Stack) Active() (layer.Layer, int) {
	if s.active < 0 {
		return nil, -1
	}
	return s.layers[s.active], s.active
}

// ActiveIndex returns the active index, -1 when empty.
func (s *Stack) ActiveIndex() int { return s.active }

// Add appends l at the top of the stack.
func (s *Stack) Add(l layer.Layer) error {
	return s.Insert(len(s.layers), l)
}

// Insert places l at index i, shifting layers at and above i up by one.
func (s *Stack) Insert(i int, l layer.Layer) error {
	if l == nil {
		return fmt.Errorf("insert: nil layer")
	}
	if s.Index(l) >= 0 {
		return fmt.Errorf("insert %q: layer already in stack", l.Name())
	}
	if i < 0 || i > len(s.layers) {
		return fmt.Errorf("insert %q: index %d out of range [0,%d]", l.Name(), i, len(s.layers))
	}

	s.layers = append(s.layers, nil)
	copy(s.layers[i+1:], s.layers[i:])
	s.layers[i] = l

	activeMoved := false
	switch {
	case s.active < 0:
		s.active = 0
		activeMoved = true
	case i <= s.active:
		s.active++
	}

	s.logger.Debug("layer added", zap.String("layer", l.Name()), zap.Int("index", i))
	s.metrics.SetLayers(len(s.layers))
	s.emit(event.Event{Kind: event.LayerAdded, Layer: l, Index: i})
	if activeMoved {
		s.emitActive()
	}
	return nil
}

// Remove deletes l by identity. If l was at or below the active layer the
// active index moves down by one, staying on index 0 while layers remain.
func (s *Stack) Remove(l layer.Layer) error {
	i := s.Index(l)
	if i < 0 {
		return fmt.Errorf("remove %q: %w", nameOf(l), ErrNotFound)
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)

	prevActive := s.active
	if i <= s.active {
		s.active--
	}
	if s.active < 0 && len(s.layers) > 0 {
		s.active = 0
	}
	if len(s.layers) == 0 {
		s.active = -1
	}

	s.logger.Debug("layer removed", zap.String("layer", l.Name()), zap.Int("index", i))
	s.metrics.SetLayers(len(s.layers))
	s.emit(event.Event{Kind: event.LayerRemoved, Layer: l, Index: i})
	if i == prevActive || s.active != prevActive {
		s.emitActive()
	}
	return nil
}

// Replace swaps old for l at the same index, keeping the active index. It is
// reported as a removal followed by an addition at that index.
func (s *Stack) Replace(old, l layer.Layer) error {
	i := s.Index(old)
	if i < 0 {
		return fmt.Errorf("replace %q: %w", nameOf(old), ErrNotFound)
	}
	if l == nil {
		return fmt.Errorf("replace %q: nil layer", old.Name())
	}
	if j := s.Index(l); j >= 0 && j != i {
		return fmt.Errorf("replace %q: layer %q already in stack", old.Name(), l.Name())
	}
	s.layers[i] = l
	s.logger.Debug("layer replaced", zap.String("layer", l.Name()), zap.Int("index", i))
	s.emit(event.Event{Kind: event.LayerRemoved, Layer: old, Index: i})
	s.emit(event.Event{Kind: event.LayerAdded, Layer: l, Index: i})
	if i == s.active {
		s.emitActive()
	}
	s.emit(event.Event{Kind: event.RerenderRequested, Source: "stack"})
	return nil
}

// SetActive makes the layer at index i the target of spatial tools.
func (s *Stack) SetActive(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("set active: index %d out of range [0,%d)", i, len(s.layers))
	}
	if i == s.active {
		return nil
	}
	s.active = i
	s.emitActive()
	return nil
}

// Reorder rewrites the stack to exactly match order, which must be a
// permutation of the current layers. The active layer keeps its identity.
func (s *Stack) Reorder(order []layer.Layer) error {
	if len(order) != len(s.layers) {
		return fmt.Errorf("reorder: got %d layers, stack has %d", len(order), len(s.layers))
	}
	seen := make(map[layer.Layer]bool, len(order))
	for _, l := range order {
		if s.Index(l) < 0 {
			return fmt.Errorf("reorder %q: %w", nameOf(l), ErrNotFound)
		}
		if seen[l] {
			return fmt.Errorf("reorder: layer %q listed twice", l.Name())
		}
		seen[l] = true
	}

	activeLayer, prevActive := s.Active()
	s.layers = append(s.layers[:0:0], order...)
	if activeLayer != nil {
		s.active = s.Index(activeLayer)
	}

	s.emit(event.Event{Kind: event.LayersReordered, Source: "stack"})
	if s.active != prevActive {
		s.emitActive()
	}
	s.emit(event.Event{Kind: event.RerenderRequested, Source: "stack"})
	return nil
}

// Move moves the layer at index from to index to.
func (s *Stack) Move(from, to int) error {
	order, err := moved(s.layers, from, to)
	if err != nil {
		return err
	}
	return s.Reorder(order)
}

func (s *Stack) emitActive() {
	l, i := s.Active()
	s.emit(event.Event{Kind: event.ActiveLayerChanged, Layer: l, Index: i, Source: "stack"})
}

func (s *Stack) emit(ev event.Event) {
	if s.bus != nil {
		s.bus.Emit(ev)
	}
}

// moved returns a copy of ls with the element at from moved to to.
func moved(ls []layer.Layer, from, to int) ([]layer.Layer, error) {
	if from < 0 || from >= len(ls) || to < 0 || to >= len(ls) {
		return nil, fmt.Errorf("move %d -> %d: index out of range [0,%d)", from, to, len(ls))
	}
	out := append([]layer.Layer(nil), ls...)
	l := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]layer.Layer{l}, out[to:]...)...)
	return out, nil
}

func nameOf(l layer.Layer) string {
	if l == nil {
		return "<nil>"
	}
	return l.Name()
}
