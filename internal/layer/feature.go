// Package layer defines map layers and the features they contain.
package layer

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// GeometryKind is the coarse geometry class of a feature.
type GeometryKind int

const (
	KindUnknown GeometryKind = iota
	KindPoint
	KindLine
	KindPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Feature is a single geometry + attribute record owned by a vector layer.
// Geometry is in geographic (lon, lat) degrees. Features are compared by
// identity: two *Feature values are the same feature only if the pointers match.
type Feature struct {
	ID         string
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// Attribute is one name/value pair of a feature, formatted for display.
type Attribute struct {
	Name  string
	Value string
}

// Kind classifies the feature geometry.
func (f *Feature) Kind() GeometryKind {
	switch f.Geometry.(type) {
	case orb.Point, orb.MultiPoint:
		return KindPoint
	case orb.LineString, orb.MultiLineString:
		return KindLine
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return KindPolygon
	default:
		return KindUnknown
	}
}

// Coordinates returns every vertex of the geometry in order.
func (f *Feature) Coordinates() []orb.Point {
	return flatten(f.Geometry, nil)
}

// Attributes returns the properties sorted by name with values formatted.
func (f *Feature) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(f.Properties))
	for k, v := range f.Properties {
		attrs = append(attrs, Attribute{Name: k, Value: fmt.Sprint(v)})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

func flatten(g orb.Geometry, out []orb.Point) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		out = append(out, g)
	case orb.MultiPoint:
		out = append(out, g...)
	case orb.LineString:
		out = append(out, g...)
	case orb.Ring:
		out = append(out, g...)
	case orb.MultiLineString:
		for _, ls := range g {
			out = append(out, ls...)
		}
	case orb.Polygon:
		for _, r := range g {
			out = append(out, r...)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			out = flatten(p, out)
		}
	case orb.Collection:
		for _, c := range g {
			out = flatten(c, out)
		}
	case orb.Bound:
		out = flatten(g.ToPolygon(), out)
	}
	return out
}
