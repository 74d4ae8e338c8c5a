// Package event provides the canvas event channel: per-kind subscriber lists
// with explicit subscription handles.
package event

import (
	"map-viewer/internal/layer"
	"map-viewer/pkg/geometry"
)

// Kind identifies a gesture or notification.
type Kind int

const (
	// Gestures, in pixel space.
	LeftClick Kind = iota
	DoubleClick
	MiddleClick
	MiddleDragStart
	MiddleDragUpdate // X, Y carry the pixel delta since the previous update
	MiddleDragEnd
	PointerMoved
	Scroll // Delta carries wheel steps, positive away from the user

	// Notifications.
	LocationChanged
	LayerAdded
	LayerRemoved
	LayersReordered
	ActiveLayerChanged
	FeaturesSelected
	SelectionCleared
	DistanceMeasured
	RerenderRequested

	kindCount
)

var kindNames = [...]string{
	LeftClick:          "left-click",
	DoubleClick:        "double-click",
	MiddleClick:        "middle-click",
	MiddleDragStart:    "middle-drag-start",
	MiddleDragUpdate:   "middle-drag-update",
	MiddleDragEnd:      "middle-drag-end",
	PointerMoved:       "pointer-moved",
	Scroll:             "scroll",
	LocationChanged:    "location-changed",
	LayerAdded:         "layer-added",
	LayerRemoved:       "layer-removed",
	LayersReordered:    "layers-reordered",
	ActiveLayerChanged: "active-layer-changed",
	FeaturesSelected:   "features-selected",
	SelectionCleared:   "selection-cleared",
	DistanceMeasured:   "distance-measured",
	RerenderRequested:  "rerender-requested",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Event is the payload delivered to handlers. Only the fields relevant to the
// kind are set.
type Event struct {
	Kind Kind

	// X, Y is the pixel position for gestures, or the pixel delta for
	// MiddleDragUpdate.
	X, Y float64

	// Delta is the wheel step count for Scroll.
	Delta float64

	// Geo and Proj are set for LocationChanged.
	Geo  geometry.Point2D
	Proj geometry.Point2D

	// Layer is set for LayerAdded and LayerRemoved. Index is the stack index
	// the layer was added at or removed from, or the new active index.
	Layer layer.Layer
	Index int

	// Features is set for FeaturesSelected.
	Features []*layer.Feature

	// Value carries DistanceMeasured meters.
	Value float64

	// Source names the tool or component that emitted a notification.
	Source string
}

// Handler reacts to an event. A returned error is logged by the bus and does
// not stop delivery to other handlers.
type Handler func(Event) error

// Handle identifies one registration. It is returned by Subscribe and is
// valid for exactly one Unsubscribe.
type Handle struct {
	kind Kind
	id   uint64
}

// Kind returns the event kind the handle is registered for.
func (h Handle) Kind() Kind { return h.kind }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.id == 0 }
