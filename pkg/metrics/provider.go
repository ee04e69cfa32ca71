package metrics

import (
	"github.com/google/wire"
)

// ProviderSet is a Wire provider set for metrics
var ProviderSet = wire.NewSet(
	NewMetricsServer,
	ProvideRuntimeSink,
)

// NewMetricsServer creates a new metrics server from config
func NewMetricsServer(config MetricsConfig) *Server {
	server := NewServer(config)
	SetupSniperMetrics(server.GetRegistry())
	return server
}

// ProvideRuntimeSink 提供进程内 go-metrics sink
func ProvideRuntimeSink() (*RuntimeSink, error) {
	return NewRuntimeSink("sniper")
}
