package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/mapview"
	"github.com/litescript/ls-tradeflow/internal/state"
)

var _ mapview.FrameObserver = (*Collector)(nil)

func TestObserveFrame(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.ObserveFrame(2*time.Millisecond, 40, 6)
	c.ObserveFrame(time.Millisecond, 30, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Frames))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.DrawItems))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Particles))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RenderDuration))
}

func TestSceneReportsFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	cat, err := catalog.Default()
	require.NoError(t, err)
	scene := mapview.NewScene(cat)
	scene.Observer = c

	vp := mapview.NewViewport()
	vp.SetLayout(800, 400)
	dl := scene.Render(vp, mapview.NewSelection(nil), mapview.NewAnimator(false))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Frames))
	assert.Equal(t, float64(len(dl.Items)), testutil.ToFloat64(c.DrawItems))
	assert.Equal(t, float64(dl.Particles), testutil.ToFloat64(c.Particles))
}

func TestObserveReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	events := []state.Event{
		{Type: state.EventRiskChanged},
		{Type: state.EventRiskChanged},
		{Type: state.EventRouteAdded},
	}
	c.ObserveReload(nil, events, [catalog.NumRiskLevels]int{1, 2, 2, 1})
	c.ObserveReload(errors.New("boom"), nil, [catalog.NumRiskLevels]int{})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reloads.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CatalogEvents.WithLabelValues("RISK_CHANGED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CatalogEvents.WithLabelValues("ROUTE_ADDED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RoutesByRisk.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RoutesByRisk.WithLabelValues("critical")))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveFrame(time.Millisecond, 1, 1)
	c.ObserveSelection("route-1")
	c.ObserveReload(nil, nil, [catalog.NumRiskLevels]int{})
	assert.NotNil(t, c.Handler())
}

func TestNewTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.ObserveSelection("route-1")
	assert.Equal(t, 1.0, testutil.ToFloat64(b.SelectionChanges))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	c.ObserveFrame(time.Millisecond, 12, 3)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "tradeflow_frames_total 1")
	assert.Contains(t, body, "tradeflow_draw_items 12")
	assert.Contains(t, body, "tradeflow_particles 3")
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tradeflow_frames_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
