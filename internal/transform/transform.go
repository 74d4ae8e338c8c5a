// Package transform converts between pixel, projected and geographic space.
//
// Pixel space has its origin at the top-left of the canvas with y growing
// down. Projected space has y growing up and is centred on Location with
// Scale projection units per pixel. The vertical flip between the two lives
// only in the viewport matrix built here; callers never flip y themselves.
package transform

import (
	"fmt"

	"map-viewer/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Transform is the coordinate pipeline of one canvas.
type Transform struct {
	width, height int
	scale         float64 // projection units per pixel
	location      geometry.Point2D
	projection    Projection

	toProj geometry.AffineTransform
	toPix  geometry.AffineTransform
}

// New creates a transform for a canvas of the given pixel size, centred on
// location (projected units) at scale (projection units per pixel).
func New(width, height int, projection Projection, scale float64, location geometry.Point2D) (*Transform, error) {
	if projection == nil {
		return nil, fmt.Errorf("transform: projection is required")
	}
	t := &Transform{
		width:      width,
		height:     height,
		scale:      scale,
		location:   location,
		projection: projection,
	}
	if err := t.rebuild(); err != nil {
		return nil, err
	}
	return t, nil
}

// rebuild recomputes the viewport matrix and its inverse. The linear part is
// inverted with gonum and the translation is back-substituted, which keeps the
// inverse well conditioned regardless of how far Location is from the origin.
func (t *Transform) rebuild() error {
	if t.width <= 0 || t.height <= 0 {
		return fmt.Errorf("transform: invalid canvas size %dx%d", t.width, t.height)
	}
	if !(t.scale > 0) || !finite(t.scale) {
		return fmt.Errorf("transform: scale must be positive, got %g", t.scale)
	}
	if !t.location.IsFinite() {
		return fmt.Errorf("transform: location must be finite, got %v", t.location)
	}

	s := t.scale
	halfW := float64(t.width) / 2
	halfH := float64(t.height) / 2
	toProj := geometry.AffineTransform{
		A: s, B: 0, TX: t.location.X - s*halfW,
		C: 0, D: -s, TY: t.location.Y + s*halfH,
	}

	linear := mat.NewDense(2, 2, []float64{toProj.A, toProj.B, toProj.C, toProj.D})
	var inv mat.Dense
	if err := inv.Inverse(linear); err != nil {
		return fmt.Errorf("transform: viewport matrix not invertible: %w", err)
	}
	var offset mat.VecDense
	offset.MulVec(&inv, mat.NewVecDense(2, []float64{toProj.TX, toProj.TY}))

	t.toProj = toProj
	t.toPix = geometry.AffineTransform{
		A: inv.At(0, 0), B: inv.At(0, 1), TX: -offset.AtVec(0),
		C: inv.At(1, 0), D: inv.At(1, 1), TY: -offset.AtVec(1),
	}
	return nil
}

// Pix2Proj converts a pixel coordinate to projected space.
func (t *Transform) Pix2Proj(px, py float64) (x, y float64) {
	p := t.toProj.Apply(geometry.Point2D{X: px, Y: py})
	return p.X, p.Y
}

// Proj2Pix converts a projected coordinate to pixel space.
func (t *Transform) Proj2Pix(x, y float64) (px, py float64) {
	p := t.toPix.Apply(geometry.Point2D{X: x, Y: y})
	return p.X, p.Y
}

// Pix2Geo converts a pixel coordinate to geographic (lon, lat) degrees.
// A projection failure is returned as a *maperr.TransformError.
func (t *Transform) Pix2Geo(px, py float64) (lon, lat float64, err error) {
	x, y := t.Pix2Proj(px, py)
	return t.projection.Unproject(x, y)
}

// Geo2Pix converts geographic (lon, lat) degrees to a pixel coordinate.
func (t *Transform) Geo2Pix(lon, lat float64) (px, py float64, err error) {
	x, y, err := t.projection.Project(lon, lat)
	if err != nil {
		return 0, 0, err
	}
	px, py = t.Proj2Pix(x, y)
	return px, py, nil
}

// Width returns the canvas width in pixels.
func (t *Transform) Width() int { return t.width }

// Height returns the canvas height in pixels.
func (t *Transform) Height() int { return t.height }

// Scale returns projection units per pixel.
func (t *Transform) Scale() float64 { return t.scale }

// Location returns the projected coordinate shown at the canvas centre.
func (t *Transform) Location() geometry.Point2D { return t.location }

// Projection returns the active projection.
func (t *Transform) Projection() Projection { return t.projection }

// Resize changes the canvas pixel size, keeping Location at the centre.
func (t *Transform) Resize(width, height int) error {
	return t.update(func(c *Transform) { c.width, c.height = width, height })
}

// SetScale changes projection units per pixel.
func (t *Transform) SetScale(scale float64) error {
	return t.update(func(c *Transform) { c.scale = scale })
}

// SetLocation centres the canvas on a projected coordinate.
func (t *Transform) SetLocation(p geometry.Point2D) error {
	return t.update(func(c *Transform) { c.location = p })
}

// LocationGeo returns the geographic coordinate at the canvas centre.
func (t *Transform) LocationGeo() (lon, lat float64, err error) {
	return t.projection.Unproject(t.location.X, t.location.Y)
}

// SetLocationGeo centres the canvas on a geographic coordinate.
func (t *Transform) SetLocationGeo(lon, lat float64) error {
	x, y, err := t.projection.Project(lon, lat)
	if err != nil {
		return err
	}
	return t.SetLocation(geometry.Point2D{X: x, Y: y})
}

// SetProjection switches projections while keeping the geographic centre.
// Scale is carried over unchanged since its units depend on the projection;
// callers that care fit the view afterwards.
func (t *Transform) SetProjection(p Projection) error {
	if p == nil {
		return fmt.Errorf("transform: projection is required")
	}
	lon, lat, err := t.LocationGeo()
	if err != nil {
		return fmt.Errorf("transform: unproject centre: %w", err)
	}
	x, y, err := p.Project(lon, lat)
	if err != nil {
		return fmt.Errorf("transform: project centre: %w", err)
	}
	return t.update(func(c *Transform) {
		c.projection = p
		c.location = geometry.Point2D{X: x, Y: y}
	})
}

// Pan moves the view so content follows a pointer displacement of (dx, dy) pixels.
func (t *Transform) Pan(dx, dy float64) error {
	delta := geometry.AffineTransform{A: t.toProj.A, B: t.toProj.B, C: t.toProj.C, D: t.toProj.D}.
		Apply(geometry.Point2D{X: dx, Y: dy})
	return t.SetLocation(t.location.Sub(delta))
}

// ZoomAt multiplies the scale by factor while keeping the projected point under
// pixel (px, py) fixed on screen. factor < 1 zooms in.
func (t *Transform) ZoomAt(px, py, factor float64) error {
	ax, ay := t.Pix2Proj(px, py)
	return t.update(func(c *Transform) {
		c.scale *= factor
		c.location = geometry.Point2D{
			X: ax - c.scale*(px-float64(c.width)/2),
			Y: ay + c.scale*(py-float64(c.height)/2),
		}
	})
}

// VisibleBounds returns the projected box covered by the canvas.
func (t *Transform) VisibleBounds() geometry.Box {
	x0, y0 := t.Pix2Proj(0, 0)
	x1, y1 := t.Pix2Proj(float64(t.width), float64(t.height))
	return geometry.NewBox(geometry.Point2D{X: x0, Y: y0}, geometry.Point2D{X: x1, Y: y1})
}

// Fit centres the view on box and picks the scale that shows all of it,
// enlarged by margin (1.0 = tight).
func (t *Transform) Fit(box geometry.Box, margin float64) error {
	if margin <= 0 {
		margin = 1
	}
	sx := box.Width() / float64(t.width)
	sy := box.Height() / float64(t.height)
	scale := sx
	if sy > scale {
		scale = sy
	}
	if scale <= 0 {
		scale = t.scale
	} else {
		scale *= margin
	}
	return t.update(func(c *Transform) {
		c.location = box.Center()
		c.scale = scale
	})
}

// update applies a change and rolls it back if the resulting matrix is invalid.
func (t *Transform) update(change func(*Transform)) error {
	prev := *t
	change(t)
	if err := t.rebuild(); err != nil {
		*t = prev
		return err
	}
	return nil
}
