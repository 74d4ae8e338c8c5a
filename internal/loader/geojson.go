package loader

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"map-viewer/internal/layer"
)

func openGeoJSON(ctx context.Context, path string, opts Options) (layer.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vector file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	features, err := decodeGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	l, err := layer.NewVectorLayer(LayerName(path), path, features, opts.Projection)
	l.Color = opts.color()
	l.Opacity = opts.Opacity
	return l, err
}

// decodeGeoJSON accepts a FeatureCollection, a single Feature or a bare geometry.
func decodeGeoJSON(data []byte) ([]*layer.Feature, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && fc.Type == "FeatureCollection" {
		out := make([]*layer.Feature, 0, len(fc.Features))
		for i, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			out = append(out, convert(f, i))
		}
		return out, nil
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return []*layer.Feature{convert(f, 0)}, nil
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	if g.Geometry() == nil {
		return nil, fmt.Errorf("no geometry found")
	}
	return []*layer.Feature{{ID: "0", Geometry: g.Geometry(), Properties: map[string]interface{}{}}}, nil
}

func convert(f *geojson.Feature, i int) *layer.Feature {
	id := strconv.Itoa(i)
	if f.ID != nil {
		id = fmt.Sprint(f.ID)
	}
	props := make(map[string]interface{}, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return &layer.Feature{ID: id, Geometry: f.Geometry, Properties: props}
}
