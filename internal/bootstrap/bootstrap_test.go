package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/config"
	"github.com/go-arcade/sniper/internal/sniper/journal"
	"github.com/go-arcade/sniper/internal/sniper/router"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/purchase"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/internal/sniper/settings"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/cron"
	httpx "github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/pprof"
	"github.com/go-arcade/sniper/pkg/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeVendor struct{}

func (fakeVendor) Configured() bool { return true }

func (fakeVendor) EcoCatalog(context.Context, string) (*ovh.Catalog, error) {
	return &ovh.Catalog{Plans: []ovh.CatalogPlan{{PlanCode: "24sk50", InvoiceName: "KS-A"}}}, nil
}

func (fakeVendor) Availabilities(_ context.Context, planCode string, _ ...string) ([]ovh.Availability, error) {
	return []ovh.Availability{{PlanCode: "24sk50", Datacenters: []ovh.DatacenterStatus{
		{Datacenter: "gra", Availability: "1H-low"},
	}}}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	cfg := settings.New(st, ovh.Conf{}, nil)
	engine := queue.NewEngine(queue.Conf{}, nil, st)
	cat := catalog.NewService(catalog.Conf{RefreshSpec: "@every 1h"}, fakeVendor{}, st, cfg, nil)
	services := &router.Services{
		Settings: cfg,
		Journal:  journal.New(st),
		Queue:    engine,
		History:  purchase.NewHistory(st),
		Catalog:  cat,
		Monitor:  monitor.New(monitor.Conf{}, cat, nil, st),
		Matcher:  matcher.New(matcher.Conf{}, cat, engine, nil, st),
		VPS:      vpsmonitor.New(vpsmonitor.Conf{AutoStart: true}, nil, nil, st),
	}

	httpConf := &httpx.Http{}
	httpConf.SetDefaults()
	sm := shutdown.NewManager()
	app, cleanup, err := NewApp(
		router.NewRouter(httpConf, services, sm),
		&config.AppConfig{Http: *httpConf},
		nil,
		sm,
		services,
		metrics.NewServer(metrics.MetricsConfig{}),
		pprof.NewServer(pprof.PprofConfig{}),
		cron.New(),
		sdktrace.NewTracerProvider(),
	)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func TestNewApp_RegistersJobs(t *testing.T) {
	app := newTestApp(t)

	var names []string
	for _, e := range app.Cron.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{jobFlushJournal, jobRefreshServers}, names)
}

func TestApp_StartAndShutdown(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.Start(context.Background()))
	assert.True(t, app.Queue.Running())
	assert.True(t, app.Matcher.Running())
	// 没有订阅时不自动启动监控
	assert.False(t, app.Monitor.Running())
	assert.False(t, app.VPS.Running())

	// 启动时列表为空，会触发一次刷新
	assert.Eventually(t, func() bool {
		return len(app.Catalog.Snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, app.Shutdown.Shutdown())
	assert.False(t, app.Queue.Running())
	assert.False(t, app.Matcher.Running())
}
