package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniperMetrics(t *testing.T) {
	server := NewMetricsServer(MetricsConfig{})
	require.NotNil(t, server.GetRegistry())

	before := testutil.ToFloat64(PurchaseAttemptsTotal.WithLabelValues("success"))
	RecordPurchase("success")
	assert.Equal(t, before+1, testutil.ToFloat64(PurchaseAttemptsTotal.WithLabelValues("success")))

	SetQueueTasks([]string{"running", "paused"}, map[string]int{"running": 3})
	assert.Equal(t, float64(3), testutil.ToFloat64(QueueTasks.WithLabelValues("running")))
	assert.Equal(t, float64(0), testutil.ToFloat64(QueueTasks.WithLabelValues("paused")))

	RecordNotification(false)
	ObserveVendorRequest("cart.create", "200", 120*time.Millisecond)

	// 重复调用不会重复注册
	assert.NotPanics(t, func() { SetupSniperMetrics(server.GetRegistry()) })
}

func TestRuntimeSink(t *testing.T) {
	sink, err := NewRuntimeSink("sniper-test")
	require.NoError(t, err)

	MeasureSince([]string{"queue", "tick"}, time.Now().Add(-time.Millisecond))
	IncrCounter([]string{"queue", "evaluated"}, 1)

	summary, err := sink.Summary()
	require.NoError(t, err)
	assert.NotNil(t, summary)
}
