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

package config

import (
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/go-arcade/sniper/pkg/cache"
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/pprof"
	"github.com/go-arcade/sniper/pkg/trace"
	"github.com/google/wire"
)

// ProviderSet 提供配置层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideHttpConfig,
	ProvideLogConfig,
	ProvideStoreConfig,
	ProvideOvhConfig,
	ProvideNotifyConfig,
	ProvideQueueConfig,
	ProvideMonitorConfig,
	ProvideVPSMonitorConfig,
	ProvideSniperConfig,
	ProvideCatalogConfig,
	ProvideCacheConfig,
	ProvideMetricsConfig,
	ProvidePprofConfig,
	ProvideTraceConfig,
)

// ProvideConf 提供应用配置
func ProvideConf(configPath string) *AppConfig {
	conf := NewConf(configPath)
	return &conf
}

// ProvideHttpConfig 提供 HTTP 配置
func ProvideHttpConfig(appConf *AppConfig) *http.Http {
	httpConfig := &appConf.Http
	httpConfig.SetDefaults()
	return httpConfig
}

// ProvideLogConfig 未配置的字段沿用日志包默认值
func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	conf := appConf.Log
	def := log.SetDefaults()
	if conf.Output == "" {
		conf.Output = def.Output
	}
	if conf.Path == "" {
		conf.Path = def.Path
	}
	if conf.Filename == "" {
		conf.Filename = def.Filename
	}
	if conf.Level == "" {
		conf.Level = def.Level
	}
	if conf.KeepHours <= 0 {
		conf.KeepHours = def.KeepHours
	}
	if conf.RotateSize <= 0 {
		conf.RotateSize = def.RotateSize
	}
	if conf.RotateNum <= 0 {
		conf.RotateNum = def.RotateNum
	}
	return &conf
}

func ProvideStoreConfig(appConf *AppConfig) store.Conf {
	dir := appConf.App.DataDir
	if dir == "" {
		dir = "data"
	}
	return store.Conf{Dir: dir}
}

func ProvideOvhConfig(appConf *AppConfig) ovh.Conf {
	conf := appConf.Ovh
	conf.SetDefaults()
	return conf
}

func ProvideNotifyConfig(appConf *AppConfig) notify.Conf {
	conf := appConf.Notify
	conf.SetDefaults()
	return conf
}

func ProvideQueueConfig(appConf *AppConfig) queue.Conf {
	conf := appConf.Queue
	conf.SetDefaults()
	return conf
}

func ProvideMonitorConfig(appConf *AppConfig) monitor.Conf {
	conf := appConf.Monitor
	conf.SetDefaults()
	return conf
}

func ProvideVPSMonitorConfig(appConf *AppConfig) vpsmonitor.Conf {
	conf := appConf.VPSMonitor
	conf.SetDefaults()
	return conf
}

func ProvideSniperConfig(appConf *AppConfig) matcher.Conf {
	conf := appConf.Sniper
	conf.SetDefaults()
	return conf
}

func ProvideCatalogConfig(appConf *AppConfig) catalog.Conf {
	conf := appConf.Catalog
	conf.SetDefaults()
	return conf
}

func ProvideCacheConfig(appConf *AppConfig) cache.Conf {
	conf := appConf.Cache
	conf.SetDefaults()
	return conf
}

// ProvideMetricsConfig 提供 Metrics 配置
func ProvideMetricsConfig(appConf *AppConfig) metrics.MetricsConfig {
	metricsConfig := appConf.Metrics
	metricsConfig.SetDefaults()
	return metricsConfig
}

// ProvidePprofConfig 提供 Pprof 配置
func ProvidePprofConfig(appConf *AppConfig) pprof.PprofConfig {
	pprofConfig := appConf.Pprof
	pprofConfig.SetDefaults()
	return pprofConfig
}

func ProvideTraceConfig(appConf *AppConfig) trace.Conf {
	conf := appConf.Trace
	if conf.ServiceName == "" {
		conf.ServiceName = appConf.App.Name
	}
	conf.SetDefaults()
	return conf
}
