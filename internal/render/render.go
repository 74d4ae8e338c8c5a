// Package render draws map layers and tool overlays onto raster surfaces.
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Topology says how a coordinate sequence passed to DrawLine is connected.
type Topology int

const (
	// Strip connects consecutive vertices.
	Strip Topology = iota
	// Loop is a Strip closed back to the first vertex.
	Loop
	// Pairs draws independent segments from vertices (0,1), (2,3), ...
	Pairs
)

// Style describes how a shape is drawn. Opacity multiplies the alpha of both
// colours; zero Opacity is treated as fully opaque.
type Style struct {
	Stroke  color.RGBA
	Fill    color.RGBA
	Width   float64
	Radius  float64
	Opacity float64
}

func (s Style) alpha(c color.RGBA) color.NRGBA {
	op := s.Opacity
	if op <= 0 || op > 1 {
		op = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(float64(c.A)*op + 0.5)}
}

// Renderer draws shapes given in pixel coordinates.
type Renderer interface {
	DrawPoint(s *Surface, xs, ys []float64, style Style)
	DrawLine(s *Surface, topo Topology, xs, ys []float64, style Style)
	DrawPolygon(s *Surface, xs, ys []float64, style Style)
	DrawText(s *Surface, x, y float64, text string, style Style)
}

// Surface is an RGBA drawing target in pixel space.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a width x height surface.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// SurfaceFor wraps an existing image.
func SurfaceFor(img *image.RGBA) *Surface {
	return &Surface{img: img}
}

// Image returns the backing image.
func (s *Surface) Image() *image.RGBA { return s.img }

// Bounds returns the pixel bounds.
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Clear fills the surface with c.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
