package loader

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/tiff"

	"map-viewer/internal/layer"
	"map-viewer/pkg/geometry"
)

// GeoTIFF tags carrying the raster to model transform.
const (
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tiffTypeDouble     = 12
)

func openRaster(ctx context.Context, path string, opts Options) (layer.Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := layer.NewRasterLayer(LayerName(path), path, img)
	w, h := l.Size()

	extent, ok := worldFileExtent(path, w, h)
	if !ok {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".tiff" || ext == ".tif" {
			extent, ok = geoTIFFExtent(path, w, h)
		}
	}
	if !ok {
		return l, l.Reproject(opts.Projection)
	}
	if looksGeographic(extent) {
		return l, l.SetGeoExtent(extent, opts.Projection)
	}
	l.SetExtent(extent)
	return l, l.Reproject(opts.Projection)
}

// looksGeographic guesses whether model coordinates are lon/lat degrees.
// GeoKey parsing would settle this; coordinates inside the degree range are
// treated as geographic.
func looksGeographic(b geometry.Box) bool {
	return b.MinX >= -180 && b.MaxX <= 180 && b.MinY >= -90 && b.MaxY <= 90
}

// worldFileExt maps image extensions to their ESRI world file sidecar.
// Rotation terms in world files are ignored.
var worldFileExt = map[string]string{
	".png":  ".pgw",
	".jpg":  ".jgw",
	".jpeg": ".jgw",
	".tif":  ".tfw",
	".tiff": ".tfw",
}

func worldFileExtent(path string, w, h int) (geometry.Box, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.TrimSuffix(path, filepath.Ext(path))
	candidates := []string{base + ".wld"}
	if wf, ok := worldFileExt[ext]; ok {
		candidates = append([]string{base + wf}, candidates...)
	}
	for _, c := range candidates {
		if b, err := readWorldFile(c, w, h); err == nil {
			return b, true
		}
	}
	return geometry.Box{}, false
}

func readWorldFile(path string, w, h int) (geometry.Box, error) {
	file, err := os.Open(path)
	if err != nil {
		return geometry.Box{}, err
	}
	defer file.Close()

	var vals []float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() && len(vals) < 6 {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return geometry.Box{}, fmt.Errorf("world file %s: %w", path, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return geometry.Box{}, err
	}
	if len(vals) != 6 {
		return geometry.Box{}, fmt.Errorf("world file %s: want 6 values, got %d", path, len(vals))
	}
	return worldExtent(vals, w, h), nil
}

// worldExtent converts world file terms (A, D, B, E, C, F) into the image
// extent. C and F locate the centre of the top-left pixel.
func worldExtent(v []float64, w, h int) geometry.Box {
	a, e, c, f := v[0], v[3], v[4], v[5]
	left := c - a/2
	top := f - e/2
	return geometry.NewBox(
		geometry.Point2D{X: left, Y: top},
		geometry.Point2D{X: left + a*float64(w), Y: top + e*float64(h)},
	)
}

// tiepointExtent converts ModelPixelScale and ModelTiepoint values into the
// image extent. The tiepoint maps raster (i, j) onto model (X, Y).
func tiepointExtent(scale, tie []float64, w, h int) geometry.Box {
	sx, sy := scale[0], scale[1]
	i, j, x, y := tie[0], tie[1], tie[3], tie[4]
	left := x - i*sx
	top := y + j*sy
	return geometry.NewBox(
		geometry.Point2D{X: left, Y: top},
		geometry.Point2D{X: left + float64(w)*sx, Y: top - float64(h)*sy},
	)
}

// geoTIFFExtent reads the GeoTIFF pixel scale and tiepoint tags from the
// first IFD.
func geoTIFFExtent(path string, w, h int) (geometry.Box, bool) {
	file, err := os.Open(path)
	if err != nil {
		return geometry.Box{}, false
	}
	defer file.Close()

	// Read TIFF header to determine byte order
	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return geometry.Box{}, false
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return geometry.Box{}, false
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return geometry.Box{}, false
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return geometry.Box{}, false
	}

	var scale, tie []float64
	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return geometry.Box{}, false
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		count := byteOrder.Uint32(entry[4:8])
		valueOffset := byteOrder.Uint32(entry[8:12])
		if fieldType != tiffTypeDouble {
			continue
		}

		switch tag {
		case tagModelPixelScale:
			scale = readTIFFDoubles(file, int64(valueOffset), count, byteOrder)
		case tagModelTiepoint:
			tie = readTIFFDoubles(file, int64(valueOffset), count, byteOrder)
		}
	}

	if len(scale) < 2 || len(tie) < 6 || scale[0] == 0 || scale[1] == 0 {
		return geometry.Box{}, false
	}
	return tiepointExtent(scale, tie, w, h), true
}

// readTIFFDoubles reads count DOUBLE values at offset, restoring the read position.
func readTIFFDoubles(file *os.File, offset int64, count uint32, byteOrder binary.ByteOrder) []float64 {
	if count == 0 || count > 64 {
		return nil
	}
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	if _, err := file.Seek(offset, 0); err != nil {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		var bits uint64
		if err := binary.Read(file, byteOrder, &bits); err != nil {
			return nil
		}
		out[i] = math.Float64frombits(bits)
	}
	return out
}
