// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/sniper/internal/sniper/config"
	"github.com/go-arcade/sniper/internal/sniper/journal"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/router"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/pkg/cron"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/pprof"
	"github.com/go-arcade/sniper/pkg/shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	jobRefreshServers = "refresh-servers"
	jobFlushJournal   = "flush-journal"
	flushJournalSpec  = "@every 1m"
)

var ProviderSet = wire.NewSet(NewApp, ProvideScheduler)

func ProvideScheduler() *cron.Scheduler {
	return cron.New()
}

// App 持有需要在进程生命周期内启停的组件
type App struct {
	HttpApp  *fiber.App
	Conf     *config.AppConfig
	Logger   *log.Logger
	Shutdown *shutdown.Manager
	Queue    *queue.Engine
	Catalog  *catalog.Service
	Monitor  *monitor.Monitor
	Matcher  *matcher.Matcher
	VPS      *vpsmonitor.Monitor
	Journal  *journal.Journal
	Metrics  *metrics.Server
	Pprof    *pprof.Server
	Cron     *cron.Scheduler
	Tracer   *sdktrace.TracerProvider
}

func NewApp(
	rt *router.Router,
	appConf *config.AppConfig,
	logger *log.Logger,
	sm *shutdown.Manager,
	services *router.Services,
	metricsServer *metrics.Server,
	pprofServer *pprof.Server,
	scheduler *cron.Scheduler,
	tracer *sdktrace.TracerProvider,
) (*App, func(), error) {
	app := &App{
		HttpApp:  rt.Router(),
		Conf:     appConf,
		Logger:   logger,
		Shutdown: sm,
		Queue:    services.Queue,
		Catalog:  services.Catalog,
		Monitor:  services.Monitor,
		Matcher:  services.Matcher,
		VPS:      services.VPS,
		Journal:  services.Journal,
		Metrics:  metricsServer,
		Pprof:    pprofServer,
		Cron:     scheduler,
		Tracer:   tracer,
	}

	// 服务器列表刷新后检查新上架机型
	app.Catalog.OnRefresh(func(ctx context.Context, servers []model.ServerPlan) {
		app.Monitor.CheckNewServers(ctx, servers)
	})

	if err := app.registerJobs(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := app.Journal.Flush(); err != nil {
			log.Warnw("failed to flush journal", "error", err)
		}
		_ = log.Sync()
	}
	return app, cleanup, nil
}

func (app *App) registerJobs() error {
	spec := app.Catalog.Conf().RefreshSpec
	err := app.Cron.AddFunc(jobRefreshServers, spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := app.Catalog.Refresh(ctx); err != nil {
			log.Warnw("scheduled server refresh failed", "source", "servers", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return app.Cron.AddFunc(jobFlushJournal, flushJournalSpec, func() {
		if err := app.Journal.Flush(); err != nil {
			log.Warnw("failed to flush journal", "error", err)
		}
	})
}

// Start 启动后台循环与辅助服务，HTTP 监听由 Run 负责
func (app *App) Start(ctx context.Context) error {
	app.Queue.Start(ctx)
	app.Matcher.Start(ctx)
	if app.Monitor.AutoStart() {
		app.Monitor.Start()
	}
	if app.VPS.AutoStart() {
		app.VPS.Start()
	}
	app.Cron.Start()

	// 首次启动没有缓存时立即拉一次列表
	if len(app.Catalog.Snapshot()) == 0 {
		go func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			if _, err := app.Catalog.Refresh(refreshCtx); err != nil {
				log.Warnw("initial server refresh failed", "source", "servers", "error", err)
			}
		}()
	}

	if err := app.Metrics.Start(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}
	if err := app.Pprof.Start(); err != nil {
		return fmt.Errorf("start pprof server: %w", err)
	}

	app.Shutdown.OnShutdown("cron", app.Cron.Stop)
	app.Shutdown.OnShutdown("matcher", app.Matcher.Stop)
	app.Shutdown.OnShutdown("monitor", func() { app.Monitor.Stop() })
	app.Shutdown.OnShutdown("vps-monitor", func() { app.VPS.Stop() })
	app.Shutdown.OnShutdown("queue", app.Queue.Stop)
	app.Shutdown.OnShutdown("aux-servers", func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Metrics.Stop(stopCtx); err != nil {
			log.Warnw("metrics server shutdown error", "error", err)
		}
		if err := app.Pprof.Stop(stopCtx); err != nil {
			log.Warnw("pprof server shutdown error", "error", err)
		}
	})
	return nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Errorw("failed to start app", "error", err)
		cleanup()
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	httpConf := app.Conf.Http
	go func() {
		addr := fmt.Sprintf("%s:%d", httpConf.Host, httpConf.Port)
		log.Infow("HTTP listener started", "address", addr)
		if err := app.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed", "address", addr, "error", err)
		}
	}()

	sig := <-quit
	log.Infow("received signal, shutting down gracefully", "signal", sig.String())

	// /health 先进入 503，再停 HTTP
	app.Shutdown.OnShutdown("http", func() {
		timeout := time.Duration(httpConf.ShutdownTimeout) * time.Second
		if err := app.HttpApp.ShutdownWithTimeout(timeout); err != nil {
			log.Errorw("HTTP server shutdown error", "error", err)
		} else {
			log.Info("HTTP server shut down gracefully")
		}
	})
	app.Shutdown.Shutdown()
	cancel()

	cleanup()
	log.Info("server shutdown complete")
}
