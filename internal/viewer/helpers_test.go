package viewer

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/metrics"
	"map-viewer/internal/transform"
)

type fakeLayer struct{ name string }

func (f *fakeLayer) Name() string { return f.name }

// newCanvas returns a 100x100 geographic canvas at scale 1 centred on (0, 0),
// so pixel (px, py) is (px-50, 50-py) degrees.
func newCanvas(t *testing.T, mutate func(*Options)) (*Canvas, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	opts := Options{
		Width:      100,
		Height:     100,
		Projection: transform.Geographic{},
		Scale:      1,
		Logger:     zaptest.NewLogger(t),
		Metrics:    m,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c, m
}

type recorder struct {
	events []event.Event
}

func record(t *testing.T, c *Canvas, kinds ...event.Kind) *recorder {
	t.Helper()
	r := &recorder{}
	for _, k := range kinds {
		if _, err := c.Bus().Subscribe(k, "test-recorder", func(ev event.Event) error {
			r.events = append(r.events, ev)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func (r *recorder) kinds() []event.Kind {
	out := make([]event.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) count(kind event.Kind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func pointsLayer(t *testing.T, name string, pts ...orb.Point) *layer.VectorLayer {
	t.Helper()
	fs := make([]*layer.Feature, len(pts))
	for i, p := range pts {
		fs[i] = &layer.Feature{ID: name, Geometry: p}
	}
	l, err := layer.NewVectorLayer(name, "", fs, transform.Geographic{})
	if err != nil {
		t.Fatal(err)
	}
	return l
}
