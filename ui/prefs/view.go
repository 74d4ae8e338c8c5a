package prefs

const (
	keyCenterLon  = "view.centerLon"
	keyCenterLat  = "view.centerLat"
	keyScale      = "view.scale"
	keyProjection = "view.projection"
	keyWidth      = "window.width"
	keyHeight     = "window.height"
	keyLastDir    = "lastDirectory"
	keyRecent     = "recentFiles"
)

// maxRecent bounds the recent file list.
const maxRecent = 10

// View is the persisted map view.
type View struct {
	CenterLon, CenterLat float64
	Scale                float64
	Projection           string
	Width, Height        float64
}

// View returns the saved view and whether one was saved. Fields missing from
// the file keep the values in fallback.
func (p *Prefs) View(fallback View) (View, bool) {
	if !p.Has(keyScale) {
		return fallback, false
	}
	v := View{
		CenterLon:  p.FloatWithFallback(keyCenterLon, fallback.CenterLon),
		CenterLat:  p.FloatWithFallback(keyCenterLat, fallback.CenterLat),
		Scale:      p.FloatWithFallback(keyScale, fallback.Scale),
		Projection: p.String(keyProjection),
		Width:      p.FloatWithFallback(keyWidth, fallback.Width),
		Height:     p.FloatWithFallback(keyHeight, fallback.Height),
	}
	if v.Projection == "" {
		v.Projection = fallback.Projection
	}
	return v, true
}

// SetView stores v.
func (p *Prefs) SetView(v View) {
	p.SetFloat(keyCenterLon, v.CenterLon)
	p.SetFloat(keyCenterLat, v.CenterLat)
	p.SetFloat(keyScale, v.Scale)
	p.SetString(keyProjection, v.Projection)
	p.SetFloat(keyWidth, v.Width)
	p.SetFloat(keyHeight, v.Height)
}

// LastDir returns the directory of the last opened file.
func (p *Prefs) LastDir() string { return p.String(keyLastDir) }

// SetLastDir records the directory of the last opened file.
func (p *Prefs) SetLastDir(dir string) { p.SetString(keyLastDir, dir) }

// Recent returns recently opened files, newest first.
func (p *Prefs) Recent() []string { return p.Strings(keyRecent) }

// AddRecent moves path to the front of the recent file list.
func (p *Prefs) AddRecent(path string) {
	list := []string{path}
	for _, r := range p.Recent() {
		if r != path && len(list) < maxRecent {
			list = append(list, r)
		}
	}
	p.SetStrings(keyRecent, list)
}
