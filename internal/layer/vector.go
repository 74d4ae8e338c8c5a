package layer

import (
	"fmt"
	"image/color"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"map-viewer/internal/transform"
	"map-viewer/pkg/geometry"
)

// indexEpsilon pads degenerate rectangles; the R-tree rejects zero lengths.
const indexEpsilon = 1e-7

// VectorLayer holds features in geographic coordinates plus a projected copy
// indexed with an R-tree for selection queries.
type VectorLayer struct {
	name   string
	source string

	// Color and Opacity style the whole layer when rendered.
	Color   color.RGBA
	Opacity float64

	mu           sync.RWMutex
	features     []*Feature
	projected    []indexedFeature
	byFeature    map[*Feature]int
	rtree        *rtreego.Rtree
	projectionID string
	bounds       geometry.Box
	hasBounds    bool
}

type indexedFeature struct {
	feature *Feature
	order   int
	geom    orb.Geometry
	bound   orb.Bound
}

// Bounds implements rtreego.Spatial.
func (f *indexedFeature) Bounds() rtreego.Rect {
	return rect(f.bound.Min[0], f.bound.Min[1], f.bound.Max[0], f.bound.Max[1], 0)
}

func rect(minX, minY, maxX, maxY, pad float64) rtreego.Rect {
	w := maxX - minX + 2*pad
	h := maxY - minY + 2*pad
	if w < indexEpsilon {
		w = indexEpsilon
	}
	if h < indexEpsilon {
		h = indexEpsilon
	}
	r, _ := rtreego.NewRect(rtreego.Point{minX - pad - indexEpsilon/2, minY - pad - indexEpsilon/2}, []float64{w, h})
	return r
}

// NewVectorLayer creates a layer and projects its features with p.
// Features that cannot be projected are kept but left out of the index; the
// returned error reports them while the layer remains usable.
func NewVectorLayer(name, source string, features []*Feature, p transform.Projection) (*VectorLayer, error) {
	l := &VectorLayer{
		name:     name,
		source:   source,
		features: features,
		Color:    color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0xff},
		Opacity:  1,
	}
	return l, l.Reproject(p)
}

func (l *VectorLayer) Name() string   { return l.name }
func (l *VectorLayer) Source() string { return l.source }

// ProjectionID returns the id of the projection the index was built for.
func (l *VectorLayer) ProjectionID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.projectionID
}

// Reproject rebuilds the projected copy and the spatial index.
func (l *VectorLayer) Reproject(p transform.Projection) error {
	if p == nil {
		p = transform.Geographic{}
	}
	projected := make([]indexedFeature, 0, len(l.features))
	var (
		failed   int
		firstErr error
		bounds   orb.Bound
		hasBound bool
	)
	for i, f := range l.features {
		if f == nil || f.Geometry == nil {
			continue
		}
		g, err := projectGeometry(f.Geometry, p)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		b := g.Bound()
		projected = append(projected, indexedFeature{feature: f, order: i, geom: g, bound: b})
		if hasBound {
			bounds = bounds.Union(b)
		} else {
			bounds, hasBound = b, true
		}
	}

	tree := rtreego.NewTree(2, 25, 50)
	byFeature := make(map[*Feature]int, len(projected))
	for i := range projected {
		tree.Insert(&projected[i])
		byFeature[projected[i].feature] = i
	}

	l.mu.Lock()
	l.projected = projected
	l.byFeature = byFeature
	l.rtree = tree
	l.projectionID = p.ID()
	l.hasBounds = hasBound
	if hasBound {
		l.bounds = geometry.Box{MinX: bounds.Min[0], MinY: bounds.Min[1], MaxX: bounds.Max[0], MaxY: bounds.Max[1]}
	}
	l.mu.Unlock()

	if failed > 0 {
		return fmt.Errorf("layer %q: %d of %d features could not be projected to %s: %w",
			l.name, failed, len(l.features), p.ID(), firstErr)
	}
	return nil
}

func projectGeometry(g orb.Geometry, p transform.Projection) (orb.Geometry, error) {
	var perr error
	out := project.Geometry(orb.Clone(g), func(pt orb.Point) orb.Point {
		x, y, err := p.Project(pt[0], pt[1])
		if err != nil && perr == nil {
			perr = err
		}
		return orb.Point{x, y}
	})
	return out, perr
}

// Features returns every feature in layer order.
func (l *VectorLayer) Features() []*Feature {
	return append([]*Feature(nil), l.features...)
}

// Bounds returns the projected extent of the indexed features.
func (l *VectorLayer) Bounds() (geometry.Box, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bounds, l.hasBounds
}

// Projected implements Outlined: it returns the projected geometry of f, or
// nil if f is not indexed.
func (l *VectorLayer) Projected(f *Feature) orb.Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i, ok := l.byFeature[f]; ok {
		return l.projected[i].geom
	}
	return nil
}

// EachProjected calls fn for every indexed feature in layer order.
func (l *VectorLayer) EachProjected(fn func(f *Feature, g orb.Geometry)) {
	l.mu.RLock()
	items := append([]indexedFeature(nil), l.projected...)
	l.mu.RUnlock()
	for _, it := range items {
		fn(it.feature, it.geom)
	}
}

// PointSelect returns features whose projected geometry lies within
// tolerance of (x, y). Polygons also match when the point is inside.
func (l *VectorLayer) PointSelect(x, y, tolerance float64) []*Feature {
	if tolerance < 0 {
		tolerance = 0
	}
	pt := orb.Point{x, y}
	return l.search(rect(x, y, x, y, tolerance), func(it *indexedFeature) bool {
		switch g := it.geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, pt) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, pt) {
				return true
			}
		}
		return planar.DistanceFrom(it.geom, pt) <= tolerance
	})
}

// BoxSelect returns features intersecting the box. Point features must lie
// inside it; lines and polygons must cross or touch it.
func (l *VectorLayer) BoxSelect(minX, minY, maxX, maxY float64) []*Feature {
	box := geometry.NewBox(geometry.Point2D{X: minX, Y: minY}, geometry.Point2D{X: maxX, Y: maxY})
	return l.search(rect(box.MinX, box.MinY, box.MaxX, box.MaxY, indexEpsilon), func(it *indexedFeature) bool {
		if it.feature.Kind() == KindPoint {
			for _, p := range flatten(it.geom, nil) {
				if box.Contains(geometry.Point2D{X: p[0], Y: p[1]}) {
					return true
				}
			}
			return false
		}
		return intersectsBox(it.geom, orb.Bound{Min: orb.Point{box.MinX, box.MinY}, Max: orb.Point{box.MaxX, box.MaxY}})
	})
}

// intersectsBox reports whether g shares at least one point with b. A box
// lying wholly inside a polygon counts as intersecting.
func intersectsBox(g orb.Geometry, b orb.Bound) bool {
	switch p := g.(type) {
	case orb.Polygon:
		if planar.PolygonContains(p, b.Center()) {
			return true
		}
	case orb.MultiPolygon:
		if planar.MultiPolygonContains(p, b.Center()) {
			return true
		}
	}
	// clip uses its input as scratch space.
	c := clip.Geometry(b, orb.Clone(g))
	return c != nil && len(flatten(c, nil)) > 0
}

func (l *VectorLayer) search(q rtreego.Rect, keep func(*indexedFeature) bool) []*Feature {
	l.mu.RLock()
	tree := l.rtree
	l.mu.RUnlock()
	if tree == nil {
		return nil
	}
	var hits []*indexedFeature
	for _, s := range tree.SearchIntersect(q) {
		it := s.(*indexedFeature)
		if keep(it) {
			hits = append(hits, it)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].order < hits[j].order })
	out := make([]*Feature, len(hits))
	for i, it := range hits {
		out[i] = it.feature
	}
	return out
}
