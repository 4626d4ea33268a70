// Package metrics exposes Prometheus instrumentation for the map renderer and
// catalog reloads.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/state"
)

// Collector bundles the application's metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames           prometheus.Counter
	RenderDuration   prometheus.Histogram
	DrawItems        prometheus.Gauge
	Particles        prometheus.Gauge
	SelectionChanges prometheus.Counter
	Reloads          *prometheus.CounterVec
	CatalogEvents    *prometheus.CounterVec
	RoutesByRisk     *prometheus.GaugeVec
}

// New registers the metrics against reg, defaulting to the global registry
// when nil. Registering twice against the same registry reuses the existing
// collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Frames, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tradeflow_frames_total",
		Help: "Map frames rendered.",
	})); err != nil {
		return nil, err
	}
	if c.RenderDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradeflow_render_duration_seconds",
		Help:    "Time spent building one draw list.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})); err != nil {
		return nil, err
	}
	if c.DrawItems, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tradeflow_draw_items",
		Help: "Primitives in the most recent draw list.",
	})); err != nil {
		return nil, err
	}
	if c.Particles, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tradeflow_particles",
		Help: "Animated particles in the most recent draw list.",
	})); err != nil {
		return nil, err
	}
	if c.SelectionChanges, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tradeflow_route_selections_total",
		Help: "Single-route selection changes reported by the map.",
	})); err != nil {
		return nil, err
	}
	if c.Reloads, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradeflow_catalog_reloads_total",
		Help: "Catalog load attempts, labeled by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.CatalogEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradeflow_catalog_events_total",
		Help: "Route changes detected between catalog loads, labeled by type.",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if c.RoutesByRisk, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tradeflow_routes",
		Help: "Routes in the loaded catalog, labeled by risk level.",
	}, []string{"risk"})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return col, nil
}

// ObserveFrame records one rendered frame.
func (c *Collector) ObserveFrame(d time.Duration, items, particles int) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.RenderDuration.Observe(d.Seconds())
	c.DrawItems.Set(float64(items))
	c.Particles.Set(float64(particles))
}

// ObserveSelection records a single-route selection change.
func (c *Collector) ObserveSelection(string) {
	if c == nil {
		return
	}
	c.SelectionChanges.Inc()
}

// ObserveReload records a catalog load attempt and the resulting state.
func (c *Collector) ObserveReload(err error, events []state.Event, counts [catalog.NumRiskLevels]int) {
	if c == nil {
		return
	}
	if err != nil {
		c.Reloads.WithLabelValues("error").Inc()
		return
	}
	c.Reloads.WithLabelValues("ok").Inc()
	for _, e := range events {
		c.CatalogEvents.WithLabelValues(string(e.Type)).Inc()
	}
	for i, n := range counts {
		c.RoutesByRisk.WithLabelValues(catalog.RiskLevel(i).String()).Set(float64(n))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx ends.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return c.serve(ctx, ln)
}

func (c *Collector) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics serve: %w", err)
	}
}
