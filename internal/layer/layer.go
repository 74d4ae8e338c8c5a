package layer

import (
	"fmt"

	"github.com/paulmach/orb"

	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
	"map-viewer/pkg/maperr"
)

// Layer is anything that can sit in the layer stack.
type Layer interface {
	Name() string
}

// Queryable is implemented by layers that answer spatial selections. All
// coordinates are in the layer's current projected space.
type Queryable interface {
	Layer
	// PointSelect returns the features within tolerance of (x, y).
	PointSelect(x, y, tolerance float64) []*Feature
	// BoxSelect returns the features intersecting the box.
	BoxSelect(minX, minY, maxX, maxY float64) []*Feature
	// Features returns every feature in layer order.
	Features() []*Feature
}

// Projectable is implemented by layers that keep a projected copy of their
// geometry and must be told when the canvas projection changes.
type Projectable interface {
	Layer
	Reproject(p transform.Projection) error
	ProjectionID() string
}

// Bounded is implemented by layers that know their projected extent.
type Bounded interface {
	Bounds() (geometry.Box, bool)
}

// Outlined is implemented by layers that can hand out a feature's geometry in
// projected coordinates, for highlighting.
type Outlined interface {
	Projected(f *Feature) orb.Geometry
}

// Sourced is implemented by layers loaded from a file.
type Sourced interface {
	Source() string
}

// PointSelect queries l if it is spatially queryable. Other layers yield a
// *maperr.CapabilityMismatchError.
func PointSelect(l Layer, x, y, tolerance float64) ([]*Feature, error) {
	q, ok := l.(Queryable)
	if !ok {
		return nil, &maperr.CapabilityMismatchError{Layer: nameOf(l), Op: "point select"}
	}
	return q.PointSelect(x, y, tolerance), nil
}

// BoxSelect queries l if it is spatially queryable. Other layers yield a
// *maperr.CapabilityMismatchError.
func BoxSelect(l Layer, box geometry.Box) ([]*Feature, error) {
	q, ok := l.(Queryable)
	if !ok {
		return nil, &maperr.CapabilityMismatchError{Layer: nameOf(l), Op: "box select"}
	}
	return q.BoxSelect(box.MinX, box.MinY, box.MaxX, box.MaxY), nil
}

// Describe returns a one-line human readable summary of the layer.
func Describe(l Layer) string {
	switch v := l.(type) {
	case *VectorLayer:
		s := fmt.Sprintf("%s: vector layer, %d features", v.Name(), len(v.Features()))
		if b, ok := v.Bounds(); ok {
			s += fmt.Sprintf(", extent [%.2f %.2f %.2f %.2f] (%s)", b.MinX, b.MinY, b.MaxX, b.MaxY, v.ProjectionID())
		}
		return s
	case *RasterLayer:
		w, h := v.Size()
		return fmt.Sprintf("%s: raster layer, %dx%d px", v.Name(), w, h)
	case *TileLayer:
		return fmt.Sprintf("%s: tile layer, %s", v.Name(), v.URLTemplate)
	default:
		return nameOf(l)
	}
}

func nameOf(l Layer) string {
	if l == nil {
		return "<nil>"
	}
	return l.Name()
}
