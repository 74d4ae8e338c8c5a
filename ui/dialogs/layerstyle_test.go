package dialogs

import (
	"image/color"
	"testing"

	"map-viewer/internal/layer"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
)

func TestParseStyle(t *testing.T) {
	fallback := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	tests := []struct {
		name    string
		color   string
		opacity string
		want    Style
		wantErr bool
	}{
		{"named", "steelblue", "0.5", Style{Color: colorutil.MustParse("steelblue"), Opacity: 0.5}, false},
		{"hex", "#ff0000", " 1 ", Style{Color: color.RGBA{R: 255, A: 255}, Opacity: 1}, false},
		{"empty colour keeps fallback", "", "0.25", Style{Color: fallback, Opacity: 0.25}, false},
		{"bad colour", "nope", "0.5", Style{}, true},
		{"bad opacity", "red", "half", Style{}, true},
		{"zero opacity", "red", "0", Style{}, true},
		{"opacity above one", "red", "1.5", Style{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStyle(tt.color, tt.opacity, fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStyle() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStyle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStyleOf(t *testing.T) {
	v, err := layer.NewVectorLayer("v", "", nil, transform.Geographic{})
	if err != nil {
		t.Fatal(err)
	}
	v.Color = colorutil.Cyan
	v.Opacity = 0.5
	if s, ok := StyleOf(v); !ok || s.Color != colorutil.Cyan || s.Opacity != 0.5 {
		t.Errorf("vector style = %+v, %v", s, ok)
	}
	if s, ok := StyleOf(layer.NewTileLayer("osm", layer.DefaultBasemapURL)); !ok || s.Opacity != 1 {
		t.Errorf("tile style = %+v, %v", s, ok)
	}
	if _, ok := StyleOf(nil); ok {
		t.Error("nil layer is styleable")
	}
	if got := hexColor(color.RGBA{R: 0x46, G: 0x82, B: 0xb4, A: 255}); got != "#4682b4" {
		t.Errorf("hexColor = %s", got)
	}
}
