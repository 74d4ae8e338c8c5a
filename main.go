// Package main provides the entry point for the Map Viewer application.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"map-viewer/internal/config"
	"map-viewer/internal/logging"
	"map-viewer/internal/metrics"
	"map-viewer/internal/version"
	"map-viewer/ui/mainwindow"
	"map-viewer/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "io.github.map-viewer"

var (
	configPath   string
	projectionID string
	metricsAddr  string
)

var rootCmd = &cobra.Command{
	Use:   "map-viewer [files...]",
	Short: "Interactive viewer for GeoJSON and raster map layers",
	Long: `Map Viewer shows vector (GeoJSON) and raster (PNG, JPEG, GeoTIFF) layers on a
pannable, zoomable map. Files given on the command line are loaded in the background.`,
	Args:          cobra.ArbitraryArgs,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runViewer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&projectionID, "projection", "p", "", "canvas projection (EPSG:3857 or EPSG:4326)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtimeEnv is what every command needs: configuration, a logger and metrics.
type runtimeEnv struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	server  *http.Server
}

// setup loads configuration, applies command line overrides and starts the
// metrics endpoint when configured.
func setup(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("projection") {
		cfg.Canvas.Projection = projectionID
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	env := &runtimeEnv{cfg: cfg, logger: logger, metrics: metrics.New(reg)}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		env.server = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := env.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed",
					zap.Error(err),
					zap.String("addr", cfg.Metrics.Addr))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}
	return env, nil
}

func (e *runtimeEnv) close() {
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.server.Shutdown(ctx)
	}
	_ = e.logger.Sync()
}

func runViewer(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	env.logger.Info("starting map viewer", zap.String("version", version.Version))

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&mainwindow.MapViewerTheme{})

	win, err := mainwindow.New(a, mainwindow.Options{
		Config:  env.cfg,
		Prefs:   prefs.Load(),
		Logger:  env.logger,
		Metrics: env.metrics,
		Files:   args,
	})
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	win.ShowAndRun()
	return nil
}
