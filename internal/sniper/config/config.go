package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/sniper/internal/pkg/notify"
	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/go-arcade/sniper/internal/sniper/service/monitor"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/service/vpsmonitor"
	"github.com/go-arcade/sniper/pkg/cache"
	"github.com/go-arcade/sniper/pkg/http"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/pprof"
	"github.com/go-arcade/sniper/pkg/trace"
	"github.com/spf13/viper"
)

// envPrefix 环境变量前缀，例如 SNIPER_HTTP_PORT 覆盖 http.port
const envPrefix = "SNIPER"

type AppSection struct {
	Name string
	// DataDir JSON 文档的存放目录
	DataDir string
}

type AppConfig struct {
	App        AppSection
	Log        log.Conf
	Http       http.Http
	Ovh        ovh.Conf
	Notify     notify.Conf
	Queue      queue.Conf
	Monitor    monitor.Conf
	VPSMonitor vpsmonitor.Conf
	Sniper     matcher.Conf
	Catalog    catalog.Conf
	Cache      cache.Conf
	Metrics    metrics.MetricsConfig
	Pprof      pprof.PprofConfig
	Trace      trace.Conf
}

var (
	cfg  AppConfig
	mu   sync.RWMutex
	once sync.Once
)

func NewConf(confPath string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confPath)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadConfigFile load config file
func LoadConfigFile(confPath string) (AppConfig, error) {
	var conf AppConfig

	v := viper.New()
	v.SetConfigFile(confPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return conf, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := v.Unmarshal(&conf); err != nil {
		return conf, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("configuration changed, reloading", "path", e.Name)
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			log.Warnw("failed to unmarshal changed configuration", "error", err)
			return
		}
		mu.Lock()
		cfg = next
		mu.Unlock()
	})
	v.WatchConfig()

	log.Infow("config file loaded", "path", confPath)
	return conf, nil
}
