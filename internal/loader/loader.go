// Package loader decodes files into map layers. It is called from background
// workers and never touches canvas state.
package loader

import (
	"context"
	"fmt"
	"image/color"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"map-viewer/internal/layer"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
)

// DefaultVectorOpacity is applied to freshly loaded vector layers.
const DefaultVectorOpacity = 0.5

// Options controls how files are turned into layers.
type Options struct {
	// Projection is the canvas projection the layer is prepared for.
	Projection transform.Projection
	// Palette lists colour names a new vector layer picks from.
	Palette []string
	// Opacity of new vector layers; zero means DefaultVectorOpacity.
	Opacity float64
	// Rand picks the palette colour. Nil seeds one from the clock.
	Rand *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.Projection == nil {
		o.Projection = transform.Geographic{}
	}
	if len(o.Palette) == 0 {
		o.Palette = colorutil.DefaultPalette
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		o.Opacity = DefaultVectorOpacity
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

func (o Options) color() color.RGBA {
	return colorutil.Pick(o.Rand, o.Palette)
}

// VectorFormats lists the extensions decoded into vector layers.
func VectorFormats() []string {
	return []string{".geojson", ".json"}
}

// RasterFormats lists the extensions decoded into raster layers.
func RasterFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupported reports whether path has an extension Open understands.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range append(VectorFormats(), RasterFormats()...) {
		if ext == f {
			return true
		}
	}
	return false
}

// FileFilter returns a description of the supported formats for file dialogs.
func FileFilter() string {
	return "Map Files (*.geojson, *.json, *.tiff, *.tif, *.png, *.jpg, *.jpeg)"
}

// LayerName derives a display name from a file path.
func LayerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Open decodes the file at path into a layer prepared for opts.Projection.
// Reprojection problems on individual features are not fatal: the layer is
// returned together with the error.
func Open(ctx context.Context, path string, opts Options) (layer.Layer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".geojson", ".json":
		return openGeoJSON(ctx, path, opts)
	case ".tiff", ".tif", ".png", ".jpg", ".jpeg":
		return openRaster(ctx, path, opts)
	default:
		return nil, fmt.Errorf("open %s: unsupported format %q (supported: %s)",
			path, ext, strings.Join(append(VectorFormats(), RasterFormats()...), ", "))
	}
}
