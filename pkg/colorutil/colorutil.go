// Package colorutil provides shared color utilities for the map viewer.
package colorutil

import (
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// DefaultPalette is the list of named colors new vector layers are painted with.
var DefaultPalette = []string{
	"salmon", "goldenrod", "firebrick", "steelblue", "aquamarine",
	"seagreen", "powderblue", "cornflowerblue", "crimson", "darkgoldenrod",
	"chocolate", "darkmagenta", "darkolivegreen", "darkturquoise", "deeppink",
}

// Parse converts an SVG color name ("steelblue") or a hex string
// ("#4682b4", "#4682b480") to an RGBA color.
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("malformed hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("malformed hex color %q: %w", s, err)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustParse is like Parse but panics on error. Only use with constant input.
func MustParse(s string) color.RGBA {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Pick returns a random color from the named palette. Unknown names are skipped;
// if none parse, White is returned.
func Pick(rng *rand.Rand, palette []string) color.RGBA {
	if len(palette) == 0 {
		return White
	}
	start := rng.Intn(len(palette))
	for i := range palette {
		if c, err := Parse(palette[(start+i)%len(palette)]); err == nil {
			return c
		}
	}
	return White
}

// Darken scales the RGB channels of c towards black by amount (0-1).
func Darken(c color.RGBA, amount float64) color.RGBA {
	f := 1 - amount
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}
