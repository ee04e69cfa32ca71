package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConf = `
[app]
name = "sniper"
dataDir = "/var/lib/sniper"

[http]
port = 5000

[http.auth]
enable = true
apiKey = "s3cret"

[monitor]
checkInterval = 30
autoStart = true

[vpsMonitor]
checkInterval = 300

[cache]
mode = "redis"

[cache.redis]
address = "127.0.0.1:6379"
`

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sniper.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	conf, err := LoadConfigFile(writeConf(t, sampleConf))
	require.NoError(t, err)

	assert.Equal(t, "sniper", conf.App.Name)
	assert.Equal(t, 5000, conf.Http.Port)
	assert.True(t, conf.Http.Auth.Enable)
	assert.Equal(t, "s3cret", conf.Http.Auth.APIKey)
	assert.True(t, conf.Monitor.AutoStart)
	assert.Equal(t, 300, conf.VPSMonitor.CheckInterval)
	assert.Equal(t, "redis", conf.Cache.Mode)
}

func TestLoadConfigFile_EnvOverride(t *testing.T) {
	t.Setenv("SNIPER_HTTP_PORT", "6000")

	conf, err := LoadConfigFile(writeConf(t, sampleConf))
	require.NoError(t, err)
	assert.Equal(t, 6000, conf.Http.Port)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestProviders_ApplyDefaults(t *testing.T) {
	conf, err := LoadConfigFile(writeConf(t, sampleConf))
	require.NoError(t, err)

	// 低于下限的检查间隔被抬到 60 秒
	assert.Equal(t, 60, ProvideMonitorConfig(&conf).CheckInterval)
	assert.Equal(t, 1000, ProvideMonitorConfig(&conf).SubscriptionDelay)
	assert.Equal(t, 300, ProvideVPSMonitorConfig(&conf).CheckInterval)
	assert.Equal(t, 1000, ProvideVPSMonitorConfig(&conf).SubscriptionDelay)
	assert.Equal(t, "/var/lib/sniper", ProvideStoreConfig(&conf).Dir)
	assert.Equal(t, 60, ProvideSniperConfig(&conf).PollInterval)
	assert.Equal(t, 1, ProvideQueueConfig(&conf).TickInterval)
	assert.Equal(t, "@every 2h", ProvideCatalogConfig(&conf).RefreshSpec)

	logConf := ProvideLogConfig(&conf)
	assert.Equal(t, "stdout", logConf.Output)
	assert.Equal(t, "INFO", logConf.Level)

	httpConf := ProvideHttpConfig(&conf)
	assert.Equal(t, 300, httpConf.Auth.TimestampWindow)
	assert.Equal(t, 9090, ProvideMetricsConfig(&conf).Port)
	assert.Equal(t, "/debug/pprof", ProvidePprofConfig(&conf).Path)
}

func TestProvideStoreConfig_DefaultDir(t *testing.T) {
	assert.Equal(t, "data", ProvideStoreConfig(&AppConfig{}).Dir)
}
