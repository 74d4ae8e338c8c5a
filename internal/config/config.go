// Package config loads map viewer settings from defaults, an optional YAML
// file, an optional .env file and MAPVIEWER_* environment variables, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"map-viewer/internal/layer"
	"map-viewer/internal/render"
	"map-viewer/internal/tool"
	"map-viewer/internal/transform"
	"map-viewer/pkg/colorutil"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MAPVIEWER_"

type Config struct {
	Canvas  CanvasConfig  `yaml:"canvas"`
	Tools   ToolsConfig   `yaml:"tools"`
	Basemap BasemapConfig `yaml:"basemap"`
	Layers  LayersConfig  `yaml:"layers"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type CanvasConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Projection string  `yaml:"projection"`
	CenterLon  float64 `yaml:"center_lon"`
	CenterLat  float64 `yaml:"center_lat"`
	// Scale and its limits are in projection units per pixel.
	Scale         float64 `yaml:"scale"`
	MinScale      float64 `yaml:"min_scale"`
	MaxScale      float64 `yaml:"max_scale"`
	ZoomStep      float64 `yaml:"zoom_step"`
	DragThreshold float64 `yaml:"drag_threshold"`
	Background    string  `yaml:"background"`
	BasemapFill   string  `yaml:"basemap_fill"`
	Graticule     string  `yaml:"graticule"`
	GraticuleStep float64 `yaml:"graticule_step"`
}

// StyleConfig is a render.Style with colours given by name or #rrggbb.
type StyleConfig struct {
	Stroke  string  `yaml:"stroke"`
	Fill    string  `yaml:"fill"`
	Width   float64 `yaml:"width"`
	Radius  float64 `yaml:"radius"`
	Opacity float64 `yaml:"opacity"`
}

type ToolsConfig struct {
	Selection    StyleConfig `yaml:"selection"`
	SelectionBox StyleConfig `yaml:"selection_box"`
	Measure      StyleConfig `yaml:"measure"`
	PickRadius   float64     `yaml:"pick_radius"`
}

type BasemapConfig struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	// Enabled activates the basemap toggle at startup.
	Enabled bool `yaml:"enabled"`
}

type LayersConfig struct {
	Palette []string `yaml:"palette"`
	Opacity float64  `yaml:"opacity"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090".
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:         1024,
			Height:        768,
			Projection:    transform.IDWebMercator,
			Scale:         20000,
			MinScale:      0.05,
			MaxScale:      200000,
			ZoomStep:      1.25,
			DragThreshold: 4,
			Background:    "white",
			BasemapFill:   "#e8eef2",
			Graticule:     "#b0bcc8",
			GraticuleStep: 10,
		},
		Tools: ToolsConfig{
			Selection:    StyleConfig{Stroke: "yellow", Fill: "yellow", Width: 3, Radius: 6, Opacity: 0.4},
			SelectionBox: StyleConfig{Stroke: "cyan", Width: 1},
			Measure:      StyleConfig{Stroke: "magenta", Fill: "magenta", Width: 2, Radius: 4},
			PickRadius:   5,
		},
		Basemap: BasemapConfig{
			Title: "OpenStreetMap",
			URL:   layer.DefaultBasemapURL,
		},
		Layers: LayersConfig{
			Palette: append([]string(nil), colorutil.DefaultPalette...),
			Opacity: 0.5,
		},
		Watch: WatchConfig{Enabled: true, Debounce: 100 * time.Millisecond},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (skipped when empty) and .env from the working directory,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	return LoadFiles(path, ".env")
}

// LoadFiles is Load with an explicit .env file. A missing env file is ignored;
// a missing YAML file is an error.
func LoadFiles(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	cv := &c.Canvas
	cv.Width = getEnvAsInt("CANVAS_WIDTH", cv.Width)
	cv.Height = getEnvAsInt("CANVAS_HEIGHT", cv.Height)
	cv.Projection = getEnv("PROJECTION", cv.Projection)
	cv.CenterLon = getEnvAsFloat("CENTER_LON", cv.CenterLon)
	cv.CenterLat = getEnvAsFloat("CENTER_LAT", cv.CenterLat)
	cv.Scale = getEnvAsFloat("SCALE", cv.Scale)
	cv.MinScale = getEnvAsFloat("MIN_SCALE", cv.MinScale)
	cv.MaxScale = getEnvAsFloat("MAX_SCALE", cv.MaxScale)
	cv.ZoomStep = getEnvAsFloat("ZOOM_STEP", cv.ZoomStep)
	cv.DragThreshold = getEnvAsFloat("DRAG_THRESHOLD", cv.DragThreshold)
	cv.Background = getEnv("BACKGROUND", cv.Background)

	c.Tools.PickRadius = getEnvAsFloat("PICK_RADIUS", c.Tools.PickRadius)

	c.Basemap.URL = getEnv("BASEMAP_URL", c.Basemap.URL)
	c.Basemap.Enabled = getEnvAsBool("BASEMAP_ENABLED", c.Basemap.Enabled)

	if palette := getEnv("PALETTE", ""); palette != "" {
		c.Layers.Palette = splitList(palette)
	}
	c.Layers.Opacity = getEnvAsFloat("LAYER_OPACITY", c.Layers.Opacity)

	c.Watch.Enabled = getEnvAsBool("WATCH", c.Watch.Enabled)
	c.Watch.Debounce = getEnvAsDuration("WATCH_DEBOUNCE", c.Watch.Debounce)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	cv := c.Canvas
	if cv.Width <= 0 || cv.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", cv.Width, cv.Height))
	}
	if _, err := transform.ForID(cv.Projection); err != nil {
		errs = append(errs, err)
	}
	if cv.MinScale <= 0 || cv.MaxScale < cv.MinScale {
		errs = append(errs, fmt.Errorf("scale limits [%v, %v] are invalid", cv.MinScale, cv.MaxScale))
	} else if cv.Scale < cv.MinScale || cv.Scale > cv.MaxScale {
		errs = append(errs, fmt.Errorf("scale %v outside [%v, %v]", cv.Scale, cv.MinScale, cv.MaxScale))
	}
	if cv.ZoomStep <= 1 {
		errs = append(errs, fmt.Errorf("zoom step %v must be greater than 1", cv.ZoomStep))
	}
	if cv.DragThreshold < 0 {
		errs = append(errs, fmt.Errorf("drag threshold %v must not be negative", cv.DragThreshold))
	}
	if cv.CenterLon < -180 || cv.CenterLon > 180 || cv.CenterLat < -90 || cv.CenterLat > 90 {
		errs = append(errs, fmt.Errorf("centre (%v, %v) is not a geographic position", cv.CenterLon, cv.CenterLat))
	}
	if c.Tools.PickRadius < 0 {
		errs = append(errs, fmt.Errorf("pick radius %v must not be negative", c.Tools.PickRadius))
	}
	if c.Layers.Opacity <= 0 || c.Layers.Opacity > 1 {
		errs = append(errs, fmt.Errorf("layer opacity %v outside (0, 1]", c.Layers.Opacity))
	}
	if len(c.Layers.Palette) == 0 {
		errs = append(errs, errors.New("layer palette is empty"))
	}
	for _, name := range c.Layers.Palette {
		if _, err := colorutil.Parse(name); err != nil {
			errs = append(errs, fmt.Errorf("palette: %w", err))
		}
	}
	if _, err := c.Theme(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Styles(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Projection returns the configured canvas projection.
func (c *Config) Projection() (transform.Projection, error) {
	return transform.ForID(c.Canvas.Projection)
}

// Theme returns the configured layer backdrop colours.
func (c *Config) Theme() (render.Theme, error) {
	t := render.Theme{GraticuleStep: c.Canvas.GraticuleStep}
	var err error
	if t.Background, err = parseColor("background", c.Canvas.Background); err != nil {
		return t, err
	}
	if t.Basemap, err = parseColor("basemap fill", c.Canvas.BasemapFill); err != nil {
		return t, err
	}
	if t.Graticule, err = parseColor("graticule", c.Canvas.Graticule); err != nil {
		return t, err
	}
	return t, nil
}

// Styles returns the tool overlay styles.
func (c *Config) Styles() (tool.Styles, error) {
	s := tool.Styles{PickRadius: c.Tools.PickRadius}
	var err error
	if s.Selection, err = c.Tools.Selection.style("selection"); err != nil {
		return s, err
	}
	if s.SelectionBox, err = c.Tools.SelectionBox.style("selection box"); err != nil {
		return s, err
	}
	if s.Measure, err = c.Tools.Measure.style("measure"); err != nil {
		return s, err
	}
	return s, nil
}

func (sc StyleConfig) style(what string) (render.Style, error) {
	s := render.Style{Width: sc.Width, Radius: sc.Radius, Opacity: sc.Opacity}
	var err error
	if s.Stroke, err = parseColor(what+" stroke", sc.Stroke); err != nil {
		return s, err
	}
	if sc.Fill != "" {
		if s.Fill, err = parseColor(what+" fill", sc.Fill); err != nil {
			return s, err
		}
	}
	return s, nil
}

func parseColor(what, value string) (color.RGBA, error) {
	c, err := colorutil.Parse(value)
	if err != nil {
		return c, fmt.Errorf("%s: %w", what, err)
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}
