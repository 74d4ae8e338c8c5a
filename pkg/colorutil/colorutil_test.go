package colorutil

import (
	"image/color"
	"math/rand"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"steelblue", color.RGBA{70, 130, 180, 255}, false},
		{" SteelBlue ", color.RGBA{70, 130, 180, 255}, false},
		{"#ff0000", color.RGBA{255, 0, 0, 255}, false},
		{"#00ff0080", color.RGBA{0, 255, 0, 128}, false},
		{"#abc", color.RGBA{}, true},
		{"notacolor", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := Parse(c.in)
			if (err != nil) != c.wantErr {
				t.Fatalf("Parse(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			}
			if !c.wantErr && got != c.want {
				t.Fatalf("Parse(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestPickUsesPalette(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	allowed := map[color.RGBA]bool{}
	for _, name := range DefaultPalette {
		allowed[MustParse(name)] = true
	}
	for i := 0; i < 50; i++ {
		if c := Pick(rng, DefaultPalette); !allowed[c] {
			t.Fatalf("Pick returned %v which is not in the palette", c)
		}
	}
	if c := Pick(rng, []string{"bogus"}); c != White {
		t.Fatalf("Pick with no valid names = %v, want White", c)
	}
}

func TestDarken(t *testing.T) {
	got := Darken(color.RGBA{200, 100, 50, 255}, 0.5)
	if got != (color.RGBA{100, 50, 25, 255}) {
		t.Fatalf("Darken = %v", got)
	}
}
