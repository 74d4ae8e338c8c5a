package tool

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"map-viewer/internal/event"
	"map-viewer/internal/render"
	"map-viewer/pkg/geometry"
)

// MeasureState is the progress of a measurement.
type MeasureState int

const (
	MeasureNone MeasureState = iota
	MeasureFirstPoint
	MeasureTwoPoints
)

func (s MeasureState) String() string {
	switch s {
	case MeasureFirstPoint:
		return "first-point"
	case MeasureTwoPoints:
		return "two-points"
	default:
		return "none"
	}
}

// MetersPerDegree is the length of one degree of arc at the equator.
const MetersPerDegree = 111319.49

// PlanarDistance returns the flat-earth distance in meters between two
// geographic points: the degree-space hypotenuse times MetersPerDegree.
//
// This is a known-limited placeholder, not geodesy. It ignores meridian
// convergence, so east-west distances are overstated away from the equator
// (by 2x at 60° latitude) and it does not wrap at the antimeridian. See
// MeasureTool.ReferenceDistance for a great-circle comparison.
func PlanarDistance(a, b geometry.Point2D) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y) * MetersPerDegree
}

// MeasureTool measures the distance between two left-clicks.
// Left-click records a point; a third click starts a new measurement.
// Middle-click resets.
type MeasureTool struct {
	lifecycle
	styles Styles

	state    MeasureState
	points   [2]geometry.Point2D // lon, lat
	distance float64
}

// NewMeasureTool creates an inactive measure tool.
func NewMeasureTool(styles Styles) *MeasureTool {
	return &MeasureTool{lifecycle: lifecycle{name: "measure"}, styles: styles}
}

// Activate implements Tool.
func (m *MeasureTool) Activate(h Host) error {
	if err := m.begin(h); err != nil {
		return err
	}
	return m.subscribeAll(map[event.Kind]event.Handler{
		event.LeftClick:   m.onLeftClick,
		event.MiddleClick: m.onMiddleClick,
	})
}

// Deactivate implements Tool.
func (m *MeasureTool) Deactivate() error {
	err := m.end()
	m.reset()
	return err
}

// State returns the measurement progress.
func (m *MeasureTool) State() MeasureState { return m.state }

// Points returns the recorded geographic points.
func (m *MeasureTool) Points() []geometry.Point2D {
	switch m.state {
	case MeasureFirstPoint:
		return []geometry.Point2D{m.points[0]}
	case MeasureTwoPoints:
		return []geometry.Point2D{m.points[0], m.points[1]}
	default:
		return nil
	}
}

// Distance returns the PlanarDistance of a completed measurement.
func (m *MeasureTool) Distance() (float64, bool) {
	if m.state != MeasureTwoPoints {
		return 0, false
	}
	return m.distance, true
}

// ReferenceDistance returns the haversine distance of a completed
// measurement, for comparison with the placeholder Distance.
func (m *MeasureTool) ReferenceDistance() (float64, bool) {
	if m.state != MeasureTwoPoints {
		return 0, false
	}
	a, b := m.points[0], m.points[1]
	return geo.Distance(orb.Point{a.X, a.Y}, orb.Point{b.X, b.Y}), true
}

func (m *MeasureTool) onLeftClick(ev event.Event) error {
	lon, lat, err := m.host.Transform().Pix2Geo(ev.X, ev.Y)
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	p := geometry.Point2D{X: lon, Y: lat}
	switch m.state {
	case MeasureFirstPoint:
		m.points[1] = p
		m.state = MeasureTwoPoints
		m.distance = PlanarDistance(m.points[0], m.points[1])
		m.emit(event.Event{Kind: event.DistanceMeasured, Value: m.distance})
	default:
		m.points[0] = p
		m.state = MeasureFirstPoint
	}
	m.host.RequestRedraw()
	return nil
}

func (m *MeasureTool) onMiddleClick(event.Event) error {
	m.reset()
	m.host.RequestRedraw()
	return nil
}

func (m *MeasureTool) reset() {
	m.state = MeasureNone
	m.points = [2]geometry.Point2D{}
	m.distance = 0
}

// Draw paints the recorded points and, once both exist, the connecting line
// labelled with the distance.
func (m *MeasureTool) Draw(r render.Renderer, s *render.Surface) {
	if !m.active || m.state == MeasureNone {
		return
	}
	t := m.host.Transform()
	var xs, ys []float64
	for _, p := range m.Points() {
		px, py, err := t.Geo2Pix(p.X, p.Y)
		if err != nil {
			return
		}
		xs = append(xs, px)
		ys = append(ys, py)
	}
	if len(xs) == 2 {
		r.DrawLine(s, render.Strip, xs, ys, m.styles.Measure)
		label := render.Style{Stroke: m.styles.Measure.Stroke, Width: 2}
		r.DrawText(s, (xs[0]+xs[1])/2, (ys[0]+ys[1])/2-12, formatDistance(m.distance), label)
	}
	r.DrawPoint(s, xs, ys, m.styles.Measure)
}

func formatDistance(meters float64) string {
	if meters >= 10000 {
		return fmt.Sprintf("%.1f KM", meters/1000)
	}
	return fmt.Sprintf("%.0f M", meters)
}
