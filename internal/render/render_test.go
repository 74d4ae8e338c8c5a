package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/paulmach/orb"

	"map-viewer/internal/layer"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
	"map-viewer/pkg/geometry"
)

var red = color.RGBA{R: 255, A: 255}

func isRed(c color.RGBA) bool { return c.R > 200 && c.G < 50 && c.B < 50 }

func TestDrawPolygonFillsInterior(t *testing.T) {
	s := NewSurface(20, 20)
	Raster{}.DrawPolygon(s, []float64{2, 18, 18, 2}, []float64{2, 2, 18, 18}, Style{Fill: red})
	if c := s.Image().RGBAAt(10, 10); !isRed(c) {
		t.Errorf("centre pixel = %v, want red", c)
	}
	if c := s.Image().RGBAAt(0, 0); c.A != 0 {
		t.Errorf("outside pixel = %v, want untouched", c)
	}
}

func TestDrawLineStrokesSegment(t *testing.T) {
	s := NewSurface(20, 20)
	Raster{}.DrawLine(s, Strip, []float64{0, 20}, []float64{10, 10}, Style{Stroke: red, Width: 3})
	if c := s.Image().RGBAAt(10, 10); !isRed(c) {
		t.Errorf("pixel on line = %v, want red", c)
	}
	if c := s.Image().RGBAAt(10, 2); c.A != 0 {
		t.Errorf("pixel off line = %v, want untouched", c)
	}
}

func TestDrawLineFarOutsideIsClipped(t *testing.T) {
	s := NewSurface(10, 10)
	Raster{}.DrawLine(s, Strip, []float64{-1e9, 1e9}, []float64{5, 5}, Style{Stroke: red, Width: 2})
	if c := s.Image().RGBAAt(5, 5); !isRed(c) {
		t.Errorf("pixel on clipped line = %v, want red", c)
	}
}

func TestDrawPointOpacity(t *testing.T) {
	s := NewSurface(20, 20)
	s.Clear(colorutil.White)
	Raster{}.DrawPoint(s, []float64{10}, []float64{10}, Style{Fill: colorutil.Black, Radius: 4, Opacity: 0.5})
	c := s.Image().RGBAAt(10, 10)
	if c.R < 100 || c.R > 156 {
		t.Errorf("half transparent black over white = %v, want mid grey", c)
	}
}

func TestDrawText(t *testing.T) {
	s := NewSurface(40, 20)
	Raster{}.DrawText(s, 20, 10, "12 M", Style{Stroke: red, Width: 1})
	painted := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if isRed(s.Image().RGBAAt(x, y)) {
				painted++
			}
		}
	}
	if painted == 0 {
		t.Error("DrawText painted nothing")
	}
	if w, h := TextSize("12 M", 1); w != 15 || h != 5 {
		t.Errorf("TextSize = %d x %d, want 15 x 5", w, h)
	}
}

func TestClipPolygon(t *testing.T) {
	box := geometry.Box{MaxX: 10, MaxY: 10}
	square := []geometry.Point2D{{X: -5, Y: -5}, {X: 15, Y: -5}, {X: 15, Y: 15}, {X: -5, Y: 15}}
	got := clipPolygon(square, box)
	if a := signedArea(got); a < 99.99 || a > 100.01 {
		t.Errorf("clipped area = %v, want 100", a)
	}
	outside := []geometry.Point2D{{X: 20, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 30}}
	if got := clipPolygon(outside, box); len(got) != 0 {
		t.Errorf("clip of outside triangle = %v, want empty", got)
	}
}

func TestLayersDrawsVectorAndRaster(t *testing.T) {
	tr, err := transform.New(100, 100, transform.Geographic{}, 1, geometry.Point2D{})
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	r := layer.NewRasterLayer("img", "", img)
	r.SetExtent(geometry.Box{MinX: -40, MinY: -40, MaxX: -20, MaxY: -20})

	v, _ := layer.NewVectorLayer("pts", "", []*layer.Feature{{ID: "p", Geometry: orb.Point{10, 10}}}, transform.Geographic{})
	v.Color, v.Opacity = red, 1

	s := NewSurface(100, 100)
	Layers(s, Raster{}, tr, []layer.Layer{layer.NewTileLayer("base", ""), r, v}, DefaultTheme)

	if c := s.Image().RGBAAt(60, 40); !isRed(c) {
		t.Errorf("point pixel = %v, want red", c)
	}
	if c := s.Image().RGBAAt(20, 70); c.B < 200 || c.R > 50 {
		t.Errorf("raster pixel = %v, want blue", c)
	}
	if c := s.Image().RGBAAt(95, 95); c == colorutil.White {
		t.Error("basemap backdrop not drawn")
	}
}
