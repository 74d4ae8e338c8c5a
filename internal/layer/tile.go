package layer

// DefaultBasemapURL is the tile template used by the basemap toggle.
const DefaultBasemapURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// TileLayer is a web tile basemap. It does not support feature queries.
type TileLayer struct {
	name        string
	URLTemplate string
	Opacity     float64
}

// NewTileLayer creates a basemap layer for the given URL template.
func NewTileLayer(name, urlTemplate string) *TileLayer {
	if urlTemplate == "" {
		urlTemplate = DefaultBasemapURL
	}
	return &TileLayer{name: name, URLTemplate: urlTemplate, Opacity: 1}
}

func (l *TileLayer) Name() string { return l.name }
