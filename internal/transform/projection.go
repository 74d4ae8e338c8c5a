package transform

import (
	"fmt"
	"math"
	"strings"

	"map-viewer/pkg/maperr"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Projection is the forward/inverse pair between geographic (lon, lat) degrees
// and planar projected coordinates.
type Projection interface {
	// Project converts geographic degrees to projected units.
	Project(lon, lat float64) (x, y float64, err error)

	// Unproject converts projected units back to geographic degrees.
	Unproject(x, y float64) (lon, lat float64, err error)

	// ID is a human-readable identifier used for status display.
	ID() string
}

// Projection identifiers understood by ForID.
const (
	IDWebMercator = "EPSG:3857"
	IDGeographic  = "EPSG:4326"
)

const (
	// MaxMercatorLat is the latitude limit of Web Mercator, atan(sinh(pi)).
	MaxMercatorLat = 85.05112877980659
	// mercatorExtent is half the width of the projected world in meters.
	mercatorExtent = math.Pi * orb.EarthRadius
)

// ForID returns the projection for an identifier such as "EPSG:3857".
func ForID(id string) (Projection, error) {
	switch strings.ToUpper(strings.TrimSpace(id)) {
	case IDWebMercator, "WEBMERCATOR", "EPSG:900913":
		return WebMercator{}, nil
	case IDGeographic, "WGS84", "":
		return Geographic{}, nil
	default:
		return nil, fmt.Errorf("unsupported projection %q", id)
	}
}

// WebMercator is the spherical Mercator projection used by web tile maps.
type WebMercator struct{}

// Project implements Projection.
func (WebMercator) Project(lon, lat float64) (float64, float64, error) {
	if err := checkGeographic("project", lon, lat, IDWebMercator); err != nil {
		return 0, 0, err
	}
	if math.Abs(lat) > MaxMercatorLat {
		return 0, 0, &maperr.TransformError{Op: "project", X: lon, Y: lat, Projection: IDWebMercator,
			Reason: fmt.Sprintf("latitude outside ±%.4f", MaxMercatorLat)}
	}
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p.X(), p.Y(), nil
}

// Unproject implements Projection.
func (WebMercator) Unproject(x, y float64) (float64, float64, error) {
	if !finite(x, y) {
		return 0, 0, &maperr.TransformError{Op: "unproject", X: x, Y: y, Projection: IDWebMercator, Reason: "non-finite input"}
	}
	if math.Abs(x) > mercatorExtent*(1+1e-9) {
		return 0, 0, &maperr.TransformError{Op: "unproject", X: x, Y: y, Projection: IDWebMercator, Reason: "x outside projected world"}
	}
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	if !finite(p.X(), p.Y()) {
		return 0, 0, &maperr.TransformError{Op: "unproject", X: x, Y: y, Projection: IDWebMercator, Reason: "inverse did not converge"}
	}
	return p.X(), p.Y(), nil
}

// ID implements Projection.
func (WebMercator) ID() string { return IDWebMercator }

// Geographic is the identity projection: projected units are degrees.
type Geographic struct{}

// Project implements Projection.
func (Geographic) Project(lon, lat float64) (float64, float64, error) {
	if err := checkGeographic("project", lon, lat, IDGeographic); err != nil {
		return 0, 0, err
	}
	return lon, lat, nil
}

// Unproject implements Projection.
func (Geographic) Unproject(x, y float64) (float64, float64, error) {
	if err := checkGeographic("unproject", x, y, IDGeographic); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// ID implements Projection.
func (Geographic) ID() string { return IDGeographic }

func checkGeographic(op string, lon, lat float64, id string) error {
	if !finite(lon, lat) {
		return &maperr.TransformError{Op: op, X: lon, Y: lat, Projection: id, Reason: "non-finite input"}
	}
	if math.Abs(lon) > 180 || math.Abs(lat) > 90 {
		return &maperr.TransformError{Op: op, X: lon, Y: lat, Projection: id, Reason: "coordinate outside lon ±180 / lat ±90"}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
