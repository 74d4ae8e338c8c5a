package render

import (
	"image"
	"image/color"

	"github.com/paulmach/orb"
	xdraw "golang.org/x/image/draw"

	"map-viewer/internal/layer"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
)

// maxPixel bounds raster destination rectangles at extreme zoom.
const maxPixel = 1 << 24

// Theme holds the colours of layer kinds that carry no style of their own.
type Theme struct {
	Background color.RGBA
	Basemap    color.RGBA
	Graticule  color.RGBA
	// GraticuleStep is the meridian/parallel spacing in degrees.
	GraticuleStep float64
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{
	Background:    colorutil.White,
	Basemap:       color.RGBA{R: 0xe8, G: 0xee, B: 0xf2, A: 0xff},
	Graticule:     color.RGBA{R: 0xb0, G: 0xbc, B: 0xc8, A: 0xff},
	GraticuleStep: 10,
}

// Layers clears s and draws ls bottom first through r.
func Layers(s *Surface, r Renderer, t *transform.Transform, ls []layer.Layer, theme Theme) {
	s.Clear(theme.Background)
	for _, l := range ls {
		switch v := l.(type) {
		case *layer.TileLayer:
			basemap(s, r, t, v, theme)
		case *layer.RasterLayer:
			raster(s, t, v)
		case *layer.VectorLayer:
			Vector(s, r, t, v)
		}
	}
}

// FeatureStyle returns the style used for a feature of kind k in a layer
// coloured c.
func FeatureStyle(k layer.GeometryKind, c color.RGBA, opacity float64) Style {
	switch k {
	case layer.KindPoint:
		return Style{Fill: c, Stroke: colorutil.Darken(c, 0.4), Width: 1, Radius: 4, Opacity: opacity}
	case layer.KindLine:
		return Style{Stroke: c, Width: 2, Opacity: opacity}
	default:
		return Style{Fill: c, Stroke: colorutil.Darken(c, 0.4), Width: 1, Opacity: opacity}
	}
}

// Vector draws every projected feature of l.
func Vector(s *Surface, r Renderer, t *transform.Transform, l *layer.VectorLayer) {
	l.EachProjected(func(f *layer.Feature, g orb.Geometry) {
		Geometry(s, r, t, g, FeatureStyle(f.Kind(), l.Color, l.Opacity))
	})
}

// Geometry draws a projected geometry with style.
func Geometry(s *Surface, r Renderer, t *transform.Transform, g orb.Geometry, style Style) {
	switch g := g.(type) {
	case orb.Point:
		xs, ys := pixels(t, []orb.Point{g})
		r.DrawPoint(s, xs, ys, style)
	case orb.MultiPoint:
		xs, ys := pixels(t, g)
		r.DrawPoint(s, xs, ys, style)
	case orb.LineString:
		xs, ys := pixels(t, g)
		r.DrawLine(s, Strip, xs, ys, style)
	case orb.MultiLineString:
		for _, ls := range g {
			Geometry(s, r, t, ls, style)
		}
	case orb.Ring:
		xs, ys := pixels(t, g)
		r.DrawPolygon(s, xs, ys, style)
	case orb.Polygon:
		for i, ring := range g {
			rs := style
			if i > 0 {
				// Holes are outlined only.
				rs.Fill = color.RGBA{}
			}
			Geometry(s, r, t, ring, rs)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			Geometry(s, r, t, p, style)
		}
	case orb.Collection:
		for _, c := range g {
			Geometry(s, r, t, c, style)
		}
	case orb.Bound:
		Geometry(s, r, t, g.ToRing(), style)
	}
}

func pixels(t *transform.Transform, pts []orb.Point) ([]float64, []float64) {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = t.Proj2Pix(p[0], p[1])
	}
	return xs, ys
}

func raster(s *Surface, t *transform.Transform, l *layer.RasterLayer) {
	if l.Image == nil {
		return
	}
	b, ok := l.Bounds()
	if !ok {
		return
	}
	x0, y0 := t.Proj2Pix(b.MinX, b.MaxY)
	x1, y1 := t.Proj2Pix(b.MaxX, b.MinY)
	dr := image.Rect(clampPixel(x0), clampPixel(y0), clampPixel(x1), clampPixel(y1))
	if !dr.Overlaps(s.Bounds()) {
		return
	}
	opts := &xdraw.Options{}
	if op := l.Opacity; op > 0 && op < 1 {
		opts.DstMask = image.NewUniform(color.Alpha{A: uint8(op*255 + 0.5)})
	}
	xdraw.ApproxBiLinear.Scale(s.img, dr, l.Image, l.Image.Bounds(), xdraw.Over, opts)
}

// basemap draws the tile layer placeholder: a backdrop and a graticule.
// Tiles are not fetched.
func basemap(s *Surface, r Renderer, t *transform.Transform, l *layer.TileLayer, theme Theme) {
	bg := theme.Basemap
	if l.Opacity > 0 && l.Opacity < 1 {
		bg.A = uint8(float64(bg.A) * l.Opacity)
	}
	b := s.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r.DrawPolygon(s, []float64{0, w, w, 0}, []float64{0, 0, h, h}, Style{Fill: bg})

	step := theme.GraticuleStep
	if step <= 0 {
		return
	}
	style := Style{Stroke: theme.Graticule, Width: 1, Opacity: l.Opacity}
	const latLimit = 80.0
	for lon := -180.0; lon <= 180; lon += step {
		line(s, r, t, lon, -latLimit, lon, latLimit, style)
	}
	for lat := -latLimit; lat <= latLimit; lat += step {
		line(s, r, t, -180, lat, 180, lat, style)
	}
}

func line(s *Surface, r Renderer, t *transform.Transform, lon0, lat0, lon1, lat1 float64, style Style) {
	x0, y0, err := t.Geo2Pix(lon0, lat0)
	if err != nil {
		return
	}
	x1, y1, err := t.Geo2Pix(lon1, lat1)
	if err != nil {
		return
	}
	r.DrawLine(s, Strip, []float64{x0, x1}, []float64{y0, y1}, style)
}

func clampPixel(v float64) int {
	if v > maxPixel {
		return maxPixel
	}
	if v < -maxPixel {
		return -maxPixel
	}
	return int(v)
}
