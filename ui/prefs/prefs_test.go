package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", prefsFile)
	p := LoadFrom(path)
	p.SetFloat("zoom", 2.5)
	p.SetString("name", "roads")
	p.SetBool("watch", true)
	p.SetStrings("list", []string{"a", "b"})
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	q := LoadFrom(path)
	if got := q.FloatWithFallback("zoom", 0); got != 2.5 {
		t.Errorf("zoom = %v", got)
	}
	if got := q.String("name"); got != "roads" {
		t.Errorf("name = %q", got)
	}
	if !q.Bool("watch", false) {
		t.Error("watch = false")
	}
	if got := q.Strings("list"); len(got) != 2 || got[1] != "b" {
		t.Errorf("list = %v", got)
	}
	if got := q.FloatWithFallback("missing", 7); got != 7 {
		t.Errorf("missing = %v, want fallback", got)
	}
}

func TestMalformedFileGivesEmptyPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadFrom(path)
	if p.Has(keyScale) {
		t.Error("malformed file produced values")
	}
	if p.Path() != path {
		t.Errorf("path = %s", p.Path())
	}
}

func TestView(t *testing.T) {
	fallback := View{CenterLon: 1, CenterLat: 2, Scale: 3, Projection: "EPSG:3857", Width: 800, Height: 600}
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))

	if v, ok := p.View(fallback); ok || v != fallback {
		t.Errorf("View() on empty prefs = %+v, %v", v, ok)
	}

	want := View{CenterLon: 13.4, CenterLat: 52.5, Scale: 20, Projection: "EPSG:4326", Width: 1024, Height: 768}
	p.SetView(want)
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}
	got, ok := LoadFrom(p.Path()).View(fallback)
	if !ok || got != want {
		t.Errorf("View() = %+v, %v, want %+v", got, ok, want)
	}
}

func TestRecent(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))
	for i := 0; i < maxRecent+3; i++ {
		p.AddRecent(filepath.Join("data", string(rune('a'+i))+".geojson"))
	}
	p.AddRecent(filepath.Join("data", "c.geojson"))

	got := p.Recent()
	if len(got) != maxRecent {
		t.Fatalf("recent = %d entries, want %d", len(got), maxRecent)
	}
	if got[0] != filepath.Join("data", "c.geojson") {
		t.Errorf("newest = %s", got[0])
	}
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r] {
			t.Errorf("duplicate %s", r)
		}
		seen[r] = true
	}
}
