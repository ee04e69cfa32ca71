package metrics

import (
	"time"

	gometrics "github.com/hashicorp/go-metrics"
)

// RuntimeSink 进程内的 go-metrics 汇总，记录各后台循环的耗时与计数，
// 通过 /api/runtime/metrics 暴露给运维
type RuntimeSink struct {
	*gometrics.InmemSink
}

// NewRuntimeSink creates an in-memory sink (10s buckets kept for 1 minute) and
// installs it as the global go-metrics sink.
func NewRuntimeSink(serviceName string) (*RuntimeSink, error) {
	sink := gometrics.NewInmemSink(10*time.Second, time.Minute)
	conf := gometrics.DefaultConfig(serviceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false
	if _, err := gometrics.NewGlobal(conf, sink); err != nil {
		return nil, err
	}
	return &RuntimeSink{InmemSink: sink}, nil
}

// Summary returns the most recent complete interval.
func (s *RuntimeSink) Summary() (any, error) {
	// DisplayMetrics 不读取 request/response
	return s.DisplayMetrics(nil, nil)
}

// MeasureSince records the elapsed time of a loop iteration.
func MeasureSince(key []string, start time.Time) {
	gometrics.MeasureSince(key, start)
}

// IncrCounter bumps a runtime counter.
func IncrCounter(key []string, val float32) {
	gometrics.IncrCounter(key, val)
}
