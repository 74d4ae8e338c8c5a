package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"map-viewer/internal/loader"
	"map-viewer/internal/tool"
	"map-viewer/internal/viewer"
	"map-viewer/pkg/geometry"
)

var (
	renderOut     string
	renderWidth   int
	renderHeight  int
	renderFit     bool
	renderBasemap bool
)

var renderCmd = &cobra.Command{
	Use:   "render [files...]",
	Short: "Render layers to a PNG without opening a window",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "map.png", "output PNG file")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "image width in pixels (default from config)")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "image height in pixels (default from config)")
	renderCmd.Flags().BoolVar(&renderFit, "fit", true, "fit the view to the loaded layers")
	renderCmd.Flags().BoolVar(&renderBasemap, "basemap", false, "draw the basemap below the layers")
}

func runRender(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	cfg := env.cfg

	proj, err := cfg.Projection()
	if err != nil {
		return err
	}
	theme, err := cfg.Theme()
	if err != nil {
		return err
	}
	width, height := cfg.Canvas.Width, cfg.Canvas.Height
	if renderWidth > 0 {
		width = renderWidth
	}
	if renderHeight > 0 {
		height = renderHeight
	}

	view, err := viewer.New(viewer.Options{
		Width:      width,
		Height:     height,
		Projection: proj,
		Scale:      cfg.Canvas.Scale,
		Center:     geometry.Point2D{X: cfg.Canvas.CenterLon, Y: cfg.Canvas.CenterLat},
		Theme:      theme,
		Logger:     env.logger,
		Metrics:    env.metrics,
	})
	if err != nil {
		return err
	}
	defer view.Close()

	opts := loader.Options{Projection: proj, Palette: cfg.Layers.Palette, Opacity: cfg.Layers.Opacity}
	for _, path := range args {
		l, err := loader.Open(cmd.Context(), path, opts)
		if l == nil {
			return err
		}
		if err != nil {
			env.logger.Warn("layer loaded with problems", zap.String("path", path), zap.Error(err))
		}
		if err := view.AddLayer(l); err != nil {
			return err
		}
	}

	if renderBasemap {
		if err := view.ActivateTool(tool.NewBasemapToggleTool(cfg.Basemap.Title, cfg.Basemap.URL)); err != nil {
			return err
		}
	}
	if renderFit {
		if err := view.FocusAll(); err != nil {
			env.logger.Warn("keeping configured view", zap.Error(err))
		}
	}

	f, err := os.Create(renderOut)
	if err != nil {
		return err
	}
	if err := png.Encode(f, view.Render()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", renderOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	env.logger.Info("map rendered", zap.String("out", renderOut), zap.Int("layers", view.Layers().Len()))
	return nil
}
