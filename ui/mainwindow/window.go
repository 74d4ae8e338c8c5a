// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"map-viewer/internal/config"
	"map-viewer/internal/event"
	"map-viewer/internal/layer"
	"map-viewer/internal/loader"
	"map-viewer/internal/metrics"
	"map-viewer/internal/stack"
	"map-viewer/internal/tool"
	"map-viewer/internal/transform"
	"map-viewer/internal/version"
	"map-viewer/internal/viewer"
	"map-viewer/internal/watch"
	"map-viewer/pkg/geometry"
	mapcanvas "map-viewer/ui/canvas"
	"map-viewer/ui/panels"
	"map-viewer/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// Options configures the main window.
type Options struct {
	Config  *config.Config
	Prefs   *prefs.Prefs
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Files are loaded once the window is up.
	Files []string
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	cfg    *config.Config
	prefs  *prefs.Prefs
	logger *zap.Logger

	canvas      *mapcanvas.MapCanvas
	listView    *stack.ListView
	sidePanel   *panels.SidePanel
	layersPanel *panels.LayersPanel
	statusBar   *widget.Label
	location    *widget.Label

	tools     []tool.Tool
	toolNames map[tool.Tool]string

	watcher *watch.Watcher
	sources *watch.Sources[layer.Layer]
}

// New creates the main window and its map view.
func New(fyneApp fyne.App, opts Options) (*MainWindow, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := opts.Config
	mw := &MainWindow{
		Window:    fyneApp.NewWindow("Map Viewer"),
		app:       fyneApp,
		cfg:       cfg,
		prefs:     opts.Prefs,
		logger:    opts.Logger.Named("ui"),
		toolNames: make(map[tool.Tool]string),
	}

	view, err := mw.newView(opts)
	if err != nil {
		return nil, err
	}
	mw.canvas = mapcanvas.New(view, mw.onLoaded)

	if err := mw.setupUI(); err != nil {
		mw.canvas.Close()
		return nil, err
	}
	mw.setupMenus()
	if err := mw.setupEventHandlers(); err != nil {
		mw.canvas.Close()
		return nil, err
	}
	if err := mw.setupTools(); err != nil {
		mw.canvas.Close()
		return nil, err
	}
	mw.setupWatcher()
	mw.SetCloseIntercept(mw.shutdown)

	for _, path := range opts.Files {
		mw.load(path)
	}
	return mw, nil
}

// newView builds the map canvas from config, restoring the saved view.
func (mw *MainWindow) newView(opts Options) (*viewer.Canvas, error) {
	cfg := mw.cfg
	fallback := prefs.View{
		CenterLon:  cfg.Canvas.CenterLon,
		CenterLat:  cfg.Canvas.CenterLat,
		Scale:      cfg.Canvas.Scale,
		Projection: cfg.Canvas.Projection,
		Width:      float64(cfg.Canvas.Width),
		Height:     float64(cfg.Canvas.Height),
	}
	saved := fallback
	if mw.prefs != nil {
		saved, _ = mw.prefs.View(fallback)
	}
	proj, err := transform.ForID(saved.Projection)
	if err != nil {
		mw.logger.Warn("ignoring saved projection", zap.Error(err))
		saved = fallback
		proj, _ = transform.ForID(fallback.Projection)
	}
	theme, err := cfg.Theme()
	if err != nil {
		return nil, err
	}
	mw.Resize(fyne.NewSize(float32(saved.Width), float32(saved.Height)))

	return viewer.New(viewer.Options{
		Width:         int(saved.Width),
		Height:        int(saved.Height),
		Projection:    proj,
		Scale:         saved.Scale,
		Center:        geometry.Point2D{X: saved.CenterLon, Y: saved.CenterLat},
		DragThreshold: cfg.Canvas.DragThreshold,
		Theme:         theme,
		Chrome:        mw.chrome(),
		Load: loader.Options{
			Palette: cfg.Layers.Palette,
			Opacity: cfg.Layers.Opacity,
			Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		},
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
}

func (mw *MainWindow) chrome() tool.Chrome {
	mw.sidePanel = panels.NewSidePanel()
	return mw.sidePanel
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() error {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		mw.listView, err = stack.NewListView(v.Layers(), v.Bus())
	})
	if err != nil {
		return err
	}
	mw.layersPanel = panels.NewLayersPanel(mw.canvas, mw.listView)
	mw.layersPanel.SetWindow(mw.Window)
	mw.layersPanel.OnStatus = mw.updateStatus
	mw.layersPanel.OnDeleted = mw.onDeleted
	mw.sidePanel.SetLayers(mw.layersPanel.Container())

	mw.statusBar = widget.NewLabel("Ready")
	mw.location = widget.NewLabel("")

	split := container.NewHSplit(mw.sidePanel.Container(), mw.canvas)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.location, mw.statusBar)),
		nil,
		nil,
		split,
	)
	mw.SetContent(content)
	mw.SetOnDropped(mw.onDropped)
	return nil
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Layer...", mw.onOpenLayer),
		fyne.NewMenuItem("Reload Active Layer", mw.onReloadActive),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.zoom(1 / mw.cfg.Canvas.ZoomStep) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.zoom(mw.cfg.Canvas.ZoomStep) }),
		fyne.NewMenuItem("Zoom to Active Layer", mw.onFocusActive),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Web Mercator", func() { mw.setProjection(transform.WebMercator{}) }),
		fyne.NewMenuItem("Geographic", func() { mw.setProjection(transform.Geographic{}) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers mirrors canvas notifications into the status bar.
func (mw *MainWindow) setupEventHandlers() error {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		subs := []struct {
			kind event.Kind
			fn   event.Handler
		}{
			{event.LocationChanged, func(ev event.Event) error {
				mw.location.SetText(fmt.Sprintf("%.5f, %.5f  %s", ev.Geo.X, ev.Geo.Y, v.Transform().Projection().ID()))
				return nil
			}},
			{event.DistanceMeasured, func(ev event.Event) error {
				mw.updateStatus(fmt.Sprintf("Distance: %.1f m", ev.Value))
				return nil
			}},
			{event.FeaturesSelected, func(ev event.Event) error {
				mw.updateStatus(fmt.Sprintf("%d features selected", len(ev.Features)))
				return nil
			}},
			{event.ActiveLayerChanged, func(ev event.Event) error {
				if l, _ := v.Layers().Active(); l != nil {
					mw.updateStatus("Active layer: " + l.Name())
				}
				return nil
			}},
		}
		for _, s := range subs {
			if _, err = v.Bus().Subscribe(s.kind, "main-window", s.fn); err != nil {
				return
			}
		}
	})
	return err
}

// setupTools creates the tools and the toolbar toggles.
func (mw *MainWindow) setupTools() error {
	cfg := mw.cfg
	styles, err := cfg.Styles()
	if err != nil {
		return err
	}
	type entry struct {
		name string
		t    tool.Tool
		on   bool
	}
	entries := []entry{
		{"Pan", tool.NewPanTool(cfg.Canvas.ZoomStep, cfg.Canvas.MinScale, cfg.Canvas.MaxScale), true},
		{"Select", tool.NewSelectTool(styles), false},
		{"Identify", tool.NewIdentifyTool(styles), false},
		{"Measure", tool.NewMeasureTool(styles), false},
		{"Basemap", tool.NewBasemapToggleTool(cfg.Basemap.Title, cfg.Basemap.URL), cfg.Basemap.Enabled},
	}

	var toggles []fyne.CanvasObject
	for _, e := range entries {
		e := e
		mw.tools = append(mw.tools, e.t)
		mw.toolNames[e.t] = e.name
		check := widget.NewCheck(e.name, nil)
		if e.on {
			if err := mw.activate(e.t); err != nil {
				return err
			}
			check.SetChecked(true)
		}
		check.OnChanged = func(on bool) { mw.toggleTool(e.t, on) }
		toggles = append(toggles, check)
	}

	toolbar := container.NewHBox(append([]fyne.CanvasObject{widget.NewLabel("Tools:")}, toggles...)...)
	content := mw.Content()
	mw.SetContent(container.NewBorder(toolbar, nil, nil, nil, content))
	return nil
}

func (mw *MainWindow) activate(t tool.Tool) error {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) { err = v.ActivateTool(t) })
	return err
}

func (mw *MainWindow) toggleTool(t tool.Tool, on bool) {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		if on {
			err = v.ActivateTool(t)
		} else {
			err = v.DeactivateTool(t)
		}
	})
	if err != nil {
		mw.logger.Warn("tool toggle failed", zap.String("tool", mw.toolNames[t]), zap.Error(err))
		mw.updateStatus(err.Error())
	}
}

// setupWatcher reloads layers whose files change on disk.
func (mw *MainWindow) setupWatcher() {
	mw.sources = watch.NewSources[layer.Layer](nil)
	if !mw.cfg.Watch.Enabled {
		return
	}
	w, err := watch.New(mw.logger, mw.cfg.Watch.Debounce)
	if err != nil {
		mw.logger.Warn("file watching disabled", zap.Error(err))
		return
	}
	mw.watcher = w
	mw.sources = watch.NewSources[layer.Layer](w)
	go func() {
		for path := range w.Events {
			old, ok := mw.sources.Lookup(path)
			if !ok {
				continue
			}
			mw.logger.Info("source changed, reloading", zap.String("path", path))
			mw.canvas.Do(func(v *viewer.Canvas) {
				if err := v.Reload(old, path); err != nil {
					mw.logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
				}
			})
		}
	}()
}

// onLoaded runs on the canvas load goroutine after a result was applied.
func (mw *MainWindow) onLoaded(done viewer.Completion) {
	if done.Layer == nil {
		mw.updateStatus(fmt.Sprintf("Failed to load %s", filepath.Base(done.Path)))
		dialog.ShowError(done.Err, mw.Window)
		return
	}
	mw.updateStatus("Loaded " + done.Layer.Name())

	path, err := filepath.Abs(done.Path)
	if err != nil {
		path = done.Path
	}
	if err := mw.sources.Track(path, done.Layer); err != nil {
		mw.logger.Warn("cannot watch layer source", zap.String("path", path), zap.Error(err))
	}
	if mw.prefs != nil && done.Replaces == nil {
		mw.prefs.AddRecent(path)
	}
}

// onDeleted stops watching the source of a layer the user removed, so a later
// change on disk does not bring it back.
func (mw *MainWindow) onDeleted(l layer.Layer) {
	paths, err := mw.sources.Forget(l)
	if err != nil {
		mw.logger.Warn("cannot unwatch layer source", zap.Strings("paths", paths), zap.Error(err))
	}
}

// load starts a background load of path.
func (mw *MainWindow) load(path string) {
	if !loader.IsSupported(path) {
		mw.updateStatus("Unsupported file: " + filepath.Base(path))
		return
	}
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) { err = v.Load(path) })
	if err != nil {
		mw.updateStatus(err.Error())
		return
	}
	mw.updateStatus("Loading " + filepath.Base(path) + "...")
	if mw.prefs != nil {
		mw.prefs.SetLastDir(filepath.Dir(path))
	}
}

func (mw *MainWindow) onDropped(_ fyne.Position, uris []fyne.URI) {
	for _, u := range uris {
		if u.Scheme() == "file" {
			mw.load(u.Path())
		}
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	if mw.prefs == nil || mw.prefs.LastDir() == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(mw.prefs.LastDir()))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) onOpenLayer() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.load(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(append(loader.VectorFormats(), loader.RasterFormats()...)))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onReloadActive() {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		l, _ := v.Layers().Active()
		src, ok := l.(layer.Sourced)
		if !ok || src.Source() == "" {
			err = fmt.Errorf("active layer has no source file")
			return
		}
		err = v.Reload(l, src.Source())
	})
	if err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onFocusActive() {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		l, _ := v.Layers().Active()
		if l == nil {
			err = fmt.Errorf("no active layer")
			return
		}
		err = v.Focus(l)
	})
	if err != nil {
		mw.updateStatus(err.Error())
	}
}

// zoom changes the scale by factor within the configured limits.
func (mw *MainWindow) zoom(factor float64) {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) {
		scale := v.Transform().Scale()
		target := scale * factor
		if target < mw.cfg.Canvas.MinScale || target > mw.cfg.Canvas.MaxScale {
			return
		}
		err = v.Zoom(factor)
	})
	if err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) setProjection(p transform.Projection) {
	var err error
	mw.canvas.Do(func(v *viewer.Canvas) { err = v.SetProjection(p) })
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Projection: " + p.ID())
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Map Viewer",
		fmt.Sprintf("Map Viewer v%s\n\n"+
			"An interactive viewer for GeoJSON and georeferenced raster layers.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// SaveView stores the current view in the preferences.
func (mw *MainWindow) SaveView() {
	if mw.prefs == nil {
		return
	}
	mw.canvas.Do(func(v *viewer.Canvas) {
		t := v.Transform()
		lon, lat, err := t.LocationGeo()
		if err != nil {
			mw.logger.Warn("view not saved", zap.Error(err))
			return
		}
		size := mw.Canvas().Size()
		mw.prefs.SetView(prefs.View{
			CenterLon:  lon,
			CenterLat:  lat,
			Scale:      t.Scale(),
			Projection: t.Projection().ID(),
			Width:      float64(size.Width),
			Height:     float64(size.Height),
		})
	})
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("preferences not saved", zap.String("path", mw.prefs.Path()), zap.Error(err))
	}
}

// shutdown saves state and releases the canvas before closing.
func (mw *MainWindow) shutdown() {
	mw.SaveView()
	if mw.watcher != nil {
		mw.watcher.Close()
	}
	mw.canvas.Do(func(*viewer.Canvas) {
		if err := mw.listView.Close(); err != nil {
			mw.logger.Warn("layer list close", zap.Error(err))
		}
	})
	if err := mw.canvas.Close(); err != nil {
		mw.logger.Warn("canvas close", zap.Error(err))
	}
	mw.Close()
}
