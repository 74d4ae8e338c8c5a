package layer

import (
	"fmt"
	"image"

	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
)

// RasterLayer is a georeferenced image. It does not support feature queries.
type RasterLayer struct {
	name   string
	source string

	Image   image.Image
	Opacity float64

	// geo is the geographic extent when the image was georeferenced in
	// lon/lat; the projected extent is derived from it on Reproject.
	geo          geometry.Box
	hasGeo       bool
	extent       geometry.Box
	hasExtent    bool
	projectionID string
}

// NewRasterLayer wraps img. Without an extent the image is drawn with its
// pixel grid mapped one to one onto projected units starting at the origin.
func NewRasterLayer(name, source string, img image.Image) *RasterLayer {
	return &RasterLayer{name: name, source: source, Image: img, Opacity: 1}
}

func (l *RasterLayer) Name() string   { return l.name }
func (l *RasterLayer) Source() string { return l.source }

// SetExtent georeferences the image in projected coordinates.
func (l *RasterLayer) SetExtent(b geometry.Box) {
	l.extent = b
	l.hasExtent = true
	l.hasGeo = false
}

// SetGeoExtent georeferences the image in geographic degrees and projects
// the extent with p.
func (l *RasterLayer) SetGeoExtent(b geometry.Box, p transform.Projection) error {
	l.geo = b
	l.hasGeo = true
	return l.Reproject(p)
}

// Reproject recomputes the projected extent of a geographically referenced
// image. Images referenced in projected units are left alone.
func (l *RasterLayer) Reproject(p transform.Projection) error {
	if p == nil {
		p = transform.Geographic{}
	}
	l.projectionID = p.ID()
	if !l.hasGeo {
		return nil
	}
	minX, minY, err := p.Project(l.geo.MinX, l.geo.MinY)
	if err != nil {
		return fmt.Errorf("layer %q: %w", l.name, err)
	}
	maxX, maxY, err := p.Project(l.geo.MaxX, l.geo.MaxY)
	if err != nil {
		return fmt.Errorf("layer %q: %w", l.name, err)
	}
	l.extent = geometry.NewBox(geometry.Point2D{X: minX, Y: minY}, geometry.Point2D{X: maxX, Y: maxY})
	l.hasExtent = true
	return nil
}

// ProjectionID returns the projection the extent was last computed for.
func (l *RasterLayer) ProjectionID() string { return l.projectionID }

// Bounds returns the projected extent of the image.
func (l *RasterLayer) Bounds() (geometry.Box, bool) {
	if l.hasExtent {
		return l.extent, true
	}
	if l.Image == nil {
		return geometry.Box{}, false
	}
	w, h := l.Size()
	return geometry.Box{MaxX: float64(w), MaxY: float64(h)}, true
}

// Size returns the image dimensions in pixels.
func (l *RasterLayer) Size() (int, int) {
	if l.Image == nil {
		return 0, 0
	}
	b := l.Image.Bounds()
	return b.Dx(), b.Dy()
}
