package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"map-viewer/pkg/geometry"
)

// clipMargin keeps clipped edges outside the visible area so stroke ends
// are not drawn along the surface border.
const clipMargin = 16

// Raster is the default Renderer. It rasterises anti-aliased shapes with
// golang.org/x/image/vector.
type Raster struct{}

// DrawPoint draws a disc of style.Radius at every vertex.
func (Raster) DrawPoint(s *Surface, xs, ys []float64, style Style) {
	r := style.Radius
	if r <= 0 {
		r = 3
	}
	n := minLen(xs, ys)
	var path [][]geometry.Point2D
	for i := 0; i < n; i++ {
		path = append(path, circle(xs[i], ys[i], r))
	}
	fill := style.Fill
	if fill.A == 0 {
		fill = style.Stroke
	}
	fillPaths(s, path, style.alpha(fill))
	if style.Width > 0 && style.Stroke != fill {
		for i := 0; i < n; i++ {
			c := circle(xs[i], ys[i], r)
			Raster{}.DrawLine(s, Loop, xsOf(c), ysOf(c), Style{Stroke: style.Stroke, Width: style.Width, Opacity: style.Opacity})
		}
	}
}

// DrawLine strokes the vertices with style.Stroke at style.Width pixels.
func (Raster) DrawLine(s *Surface, topo Topology, xs, ys []float64, style Style) {
	n := minLen(xs, ys)
	if n < 2 {
		return
	}
	w := style.Width
	if w <= 0 {
		w = 1
	}
	var segs [][2]geometry.Point2D
	pt := func(i int) geometry.Point2D { return geometry.Point2D{X: xs[i], Y: ys[i]} }
	switch topo {
	case Pairs:
		for i := 0; i+1 < n; i += 2 {
			segs = append(segs, [2]geometry.Point2D{pt(i), pt(i + 1)})
		}
	default:
		for i := 0; i+1 < n; i++ {
			segs = append(segs, [2]geometry.Point2D{pt(i), pt(i + 1)})
		}
		if topo == Loop && n > 2 {
			segs = append(segs, [2]geometry.Point2D{pt(n - 1), pt(0)})
		}
	}

	var paths [][]geometry.Point2D
	for _, seg := range segs {
		if q := quad(seg[0], seg[1], w/2); q != nil {
			paths = append(paths, q)
		}
		if w > 2 {
			paths = append(paths, circle(seg[1].X, seg[1].Y, w/2))
		}
	}
	if w > 2 && len(segs) > 0 && topo != Loop {
		paths = append(paths, circle(segs[0][0].X, segs[0][0].Y, w/2))
	}
	fillPaths(s, paths, style.alpha(style.Stroke))
}

// DrawPolygon fills the ring with style.Fill and outlines it with
// style.Stroke when style.Width is positive.
func (Raster) DrawPolygon(s *Surface, xs, ys []float64, style Style) {
	n := minLen(xs, ys)
	if n < 3 {
		return
	}
	if style.Fill.A > 0 {
		ring := make([]geometry.Point2D, n)
		for i := range ring {
			ring[i] = geometry.Point2D{X: xs[i], Y: ys[i]}
		}
		fillPaths(s, [][]geometry.Point2D{ring}, style.alpha(style.Fill))
	}
	if style.Width > 0 {
		Raster{}.DrawLine(s, Loop, xs[:n], ys[:n], style)
	}
}

// DrawText draws text centred on (x, y) with the built-in pixel font.
func (Raster) DrawText(s *Surface, x, y float64, text string, style Style) {
	scale := int(style.Width)
	if scale < 1 {
		scale = 2
	}
	drawLabel(s.img, text, int(x), int(y), style.alpha(style.Stroke), scale)
}

// fillPaths rasterises closed paths in one pass. Paths are normalised to
// the same winding so overlaps accumulate instead of cancelling.
func fillPaths(s *Surface, paths [][]geometry.Point2D, c color.NRGBA) {
	b := s.img.Bounds()
	if b.Empty() || c.A == 0 {
		return
	}
	clip := geometry.Box{
		MinX: float64(b.Min.X - clipMargin), MinY: float64(b.Min.Y - clipMargin),
		MaxX: float64(b.Max.X + clipMargin), MaxY: float64(b.Max.Y + clipMargin),
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	drawn := false
	for _, p := range paths {
		p = clipPolygon(p, clip)
		if len(p) < 3 {
			continue
		}
		if signedArea(p) < 0 {
			reverse(p)
		}
		z.MoveTo(float32(p[0].X-float64(b.Min.X)), float32(p[0].Y-float64(b.Min.Y)))
		for _, q := range p[1:] {
			z.LineTo(float32(q.X-float64(b.Min.X)), float32(q.Y-float64(b.Min.Y)))
		}
		z.ClosePath()
		drawn = true
	}
	if drawn {
		z.Draw(s.img, b, image.NewUniform(c), image.Point{})
	}
}

// quad returns the rectangle covering segment a-b widened by half on each side.
func quad(a, b geometry.Point2D, half float64) []geometry.Point2D {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return circle(a.X, a.Y, half)
	}
	nx, ny := -dy/l*half, dx/l*half
	return []geometry.Point2D{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
}

func circle(cx, cy, r float64) []geometry.Point2D {
	const steps = 24
	out := make([]geometry.Point2D, steps)
	for i := range out {
		a := 2 * math.Pi * float64(i) / steps
		out[i] = geometry.Point2D{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return out
}

// clipPolygon clips p against box (Sutherland-Hodgman).
func clipPolygon(p []geometry.Point2D, box geometry.Box) []geometry.Point2D {
	type edge struct {
		inside func(geometry.Point2D) bool
		cross  func(a, b geometry.Point2D) geometry.Point2D
	}
	atX := func(x float64) func(a, b geometry.Point2D) geometry.Point2D {
		return func(a, b geometry.Point2D) geometry.Point2D {
			t := (x - a.X) / (b.X - a.X)
			return geometry.Point2D{X: x, Y: a.Y + t*(b.Y-a.Y)}
		}
	}
	atY := func(y float64) func(a, b geometry.Point2D) geometry.Point2D {
		return func(a, b geometry.Point2D) geometry.Point2D {
			t := (y - a.Y) / (b.Y - a.Y)
			return geometry.Point2D{X: a.X + t*(b.X-a.X), Y: y}
		}
	}
	edges := []edge{
		{func(q geometry.Point2D) bool { return q.X >= box.MinX }, atX(box.MinX)},
		{func(q geometry.Point2D) bool { return q.X <= box.MaxX }, atX(box.MaxX)},
		{func(q geometry.Point2D) bool { return q.Y >= box.MinY }, atY(box.MinY)},
		{func(q geometry.Point2D) bool { return q.Y <= box.MaxY }, atY(box.MaxY)},
	}
	out := p
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = nil
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && !e.inside(prev):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(cur):
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func signedArea(p []geometry.Point2D) float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return a / 2
}

func reverse(p []geometry.Point2D) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

func minLen(xs, ys []float64) int {
	if len(xs) < len(ys) {
		return len(xs)
	}
	return len(ys)
}

func xsOf(p []geometry.Point2D) []float64 {
	out := make([]float64, len(p))
	for i, q := range p {
		out[i] = q.X
	}
	return out
}

func ysOf(p []geometry.Point2D) []float64 {
	out := make([]float64, len(p))
	for i, q := range p {
		out[i] = q.Y
	}
	return out
}
