//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/sniper/internal/bootstrap"
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/config"
	"github.com/go-arcade/sniper/internal/sniper/journal"
	"github.com/go-arcade/sniper/internal/sniper/router"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/control"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/purchase"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/internal/sniper/settings"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/cache"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/pprof"
	"github.com/go-arcade/sniper/pkg/shutdown"
	"github.com/go-arcade/sniper/pkg/trace"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		config.ProviderSet,
		// 基础设施
		store.ProviderSet,
		journal.ProviderSet,
		log.ProviderSet,
		cache.ProviderSet,
		metrics.ProviderSet,
		pprof.ProviderSet,
		shutdown.ProviderSet,
		trace.ProviderSet,
		// 供应商与通知
		notify.ProviderSet,
		ovh.ProviderSet,
		settings.ProviderSet,
		// 业务服务
		catalog.ProviderSet,
		purchase.ProviderSet,
		queue.ProviderSet,
		wire.Bind(new(queue.Purchaser), new(*purchase.Service)),
		monitor.ProviderSet,
		matcher.ProviderSet,
		vpsmonitor.ProviderSet,
		control.ProviderSet,
		// 路由层
		router.ProviderSet,
		// 应用层
		bootstrap.ProviderSet,
	))
}
