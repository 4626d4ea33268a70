// Command ls-tradeflow is a terminal map of global trade routes, maritime
// chokepoints and their geopolitical risk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/config"
	"github.com/litescript/ls-tradeflow/internal/geo"
	"github.com/litescript/ls-tradeflow/internal/logging"
	"github.com/litescript/ls-tradeflow/internal/mapview"
	"github.com/litescript/ls-tradeflow/internal/metrics"
	"github.com/litescript/ls-tradeflow/internal/state"
	"github.com/litescript/ls-tradeflow/internal/ui"
	"github.com/litescript/ls-tradeflow/internal/version"
)

// CLI holds command-line flags. Non-zero values override the config file.
type CLI struct {
	Config        string        `help:"Config file (YAML or JSON)." short:"c" type:"path"`
	Catalog       string        `help:"Trade catalog YAML; the embedded dataset when empty." type:"path"`
	Reload        time.Duration `help:"Catalog reload interval when --catalog is set (e.g. 5s, 1m)."`
	LogLevel      string        `help:"Log level (debug, info, warn, error)." name:"log-level"`
	LogFile       string        `help:"Log file used while the TUI is running." name:"log-file" type:"path"`
	Projection    string        `help:"Map projection (equirectangular, mercator)."`
	FPS           int           `help:"Animation frames per second." name:"fps"`
	ReducedMotion bool          `help:"Disable particle animation." name:"reduced-motion"`
	MetricsAddr   string        `help:"Serve Prometheus metrics on this address (e.g. :9090)." name:"metrics-addr"`

	MiniMap bool     `help:"Print a braille map to stdout and exit." name:"mini-map"`
	Summary bool     `help:"Print a route summary table and exit."`
	JSON    bool     `help:"Print the catalog snapshot as JSON and exit." name:"json"`
	SVG     string   `help:"Write the map as SVG to PATH (- for stdout) and exit." name:"svg" placeholder:"PATH"`
	Width   int      `help:"SVG width in pixels." default:"1200"`
	Height  int      `help:"SVG height in pixels." default:"600"`
	Cols    int      `help:"Mini-map width in terminal columns (default: terminal width)."`
	Select  []string `help:"Route ids to preselect in headless renders." sep:","`

	Version kong.VersionFlag `help:"Print version and exit."`
}

// headless reports whether a one-shot output mode was requested.
func (c CLI) headless() bool {
	return c.MiniMap || c.Summary || c.JSON || c.SVG != ""
}

// apply overlays flags onto cfg.
func (c CLI) apply(cfg *config.Config) {
	if c.Catalog != "" {
		cfg.Catalog.Path = c.Catalog
	}
	if c.Reload > 0 {
		cfg.Catalog.Reload = min(max(c.Reload, config.MinReload), config.MaxReload)
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if c.Projection != "" {
		cfg.Map.Projection = c.Projection
	}
	if c.FPS > 0 {
		cfg.Map.FPS = min(c.FPS, 120)
	}
	if c.ReducedMotion {
		cfg.Map.ReducedMotion = true
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("ls-tradeflow"),
		kong.Description("Global trade routes, chokepoints and risk in your terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	if err := run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cli CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	cli.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = cfg.Catalog.Reload
	stateMgr := state.NewManager(stateCfg)

	loader := catalog.NewLoader(catalog.WithPath(cfg.Catalog.Path))

	if cli.headless() {
		return runHeadless(ctx, cli, cfg, loader, stateMgr, logger)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; logging disabled\n", err)
		logger.SetOutput(io.Discard)
	} else {
		defer logFile.Close()
		logger.SetOutput(logFile)
	}
	logger.Info("ls-tradeflow %s starting, catalog %s", version.Version, loader.Source())

	collector, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if cfg.Metrics.Addr != "" {
		metricsLog := logger.With("component", "metrics")
		go func() {
			metricsLog.Info("Serving metrics on %s", cfg.Metrics.Addr)
			if err := collector.Serve(ctx, cfg.Metrics.Addr); err != nil {
				metricsLog.Error("Metrics server: %v", err)
			}
		}()
	}

	reloadLog := logger.With("component", "catalog")

	// Load once before the first frame so the map opens populated.
	doReload(ctx, loader, stateMgr, nil, collector, reloadLog)

	var p *tea.Program
	frames := newFrameLoop(ctx, mapview.FrameInterval(cfg.Map.FPS), func(t time.Time) {
		p.Send(ui.FrameMsg(t))
	})
	defer frames.Stop()

	opts := mapOptions(cfg, collector, logger)
	opts.OnMotionChange = func(enabled bool) {
		logger.Debug("Motion %v", enabled)
		frames.SetRunning(enabled)
	}

	p = tea.NewProgram(ui.New(stateMgr, opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	if cfg.Catalog.Path != "" {
		go runReloadLoop(ctx, loader, stateMgr, p, collector, reloadLog)
	}

	frames.SetRunning(!cfg.Map.ReducedMotion)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	logger.Info("ls-tradeflow exiting")
	return nil
}

// mapOptions builds the map view settings from configuration.
func mapOptions(cfg config.Config, collector *metrics.Collector, logger *logging.Logger) ui.Options {
	opts := ui.DefaultOptions()
	opts.Projection = geo.ParseProjection(cfg.Map.Projection)
	opts.Policy = mapview.EligibilityPolicy{
		Cap:       cfg.Map.AnimationCap,
		TopVolume: cfg.Map.TopVolume,
		MinRisk:   catalog.RiskHigh,
	}
	opts.RouteHitRadius = cfg.Map.RouteHitRadius
	opts.ChokepointHitRadius = cfg.Map.ChokepointHitRadius
	opts.ReducedMotion = cfg.Map.ReducedMotion
	opts.Observer = collector
	opts.OnRouteSelect = func(routeID string) {
		collector.ObserveSelection(routeID)
		if routeID == "" {
			logger.Debug("Route selection cleared")
			return
		}
		logger.Debug("Route selected: %s", routeID)
	}
	return opts
}

func runReloadLoop(ctx context.Context, loader *catalog.Loader, stateMgr *state.Manager, p *tea.Program, collector *metrics.Collector, logger *logging.Logger) {
	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Reload loop shutting down")
			return
		case <-ticker.C:
			doReload(ctx, loader, stateMgr, p, collector, logger)
		}
	}
}

// doReload loads the catalog into state. p may be nil before the program
// starts.
func doReload(ctx context.Context, loader *catalog.Loader, stateMgr *state.Manager, p *tea.Program, collector *metrics.Collector, logger *logging.Logger) {
	start := time.Now()
	result := loader.Load(ctx)
	events := stateMgr.Update(result.Catalog, result.Duration, result.Error)
	collector.ObserveReload(result.Error, events, stateMgr.Snapshot().RiskCounts)

	if result.Error != nil {
		logger.Error("Catalog load failed: %v", result.Error)
		if p != nil {
			p.Send(ui.ErrorMsg{Error: result.Error})
		}
		return
	}

	logger.Debug("Catalog loaded from %s: %d routes, %d chokepoints in %s",
		result.Source, len(result.Catalog.Routes), len(result.Catalog.Chokepoints), logging.Since(start))
	for _, e := range events {
		logger.Info("Catalog change: %s %s %s→%s", e.Type, e.RouteID, e.OldValue, e.NewValue)
	}
	if p != nil {
		p.Send(ui.DataUpdateMsg{Snapshot: stateMgr.Snapshot()})
	}
}
