package mainwindow

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MapViewerTheme provides a custom theme for the application.
type MapViewerTheme struct{}

var _ fyne.Theme = (*MapViewerTheme)(nil)

func (t *MapViewerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x46, G: 0x82, B: 0xB4, A: 0xFF} // steelblue, like water
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0x60} // matches the selection highlight
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *MapViewerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *MapViewerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *MapViewerTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
