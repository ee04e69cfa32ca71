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

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PurchaseAttemptsTotal counts purchase transactions by result (success, failed, unavailable)
	PurchaseAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniper_purchase_attempts_total",
			Help: "Total number of purchase transactions",
		},
		[]string{"result"},
	)

	// QueueTasks records the queue size per status
	QueueTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sniper_queue_tasks",
			Help: "Number of purchase queue tasks per status",
		},
		[]string{"status"},
	)

	// MonitorEventsTotal counts edge-triggered availability events
	MonitorEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniper_monitor_events_total",
			Help: "Total number of availability change events",
		},
		[]string{"change_type"},
	)

	// SniperMatchesTotal counts newly discovered catalog codes
	SniperMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sniper_config_matches_total",
			Help: "Total number of newly matched catalog plan codes",
		},
	)

	// NotificationsTotal counts operator notifications by result
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniper_notifications_total",
			Help: "Total number of operator notifications",
		},
		[]string{"result"},
	)

	// VendorRequestDurationSeconds measures OVH API latency per operation
	VendorRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sniper_vendor_request_duration_seconds",
			Help:    "Duration of OVH API requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"operation", "status"},
	)

	sniperMetricsOnce sync.Once
)

// SetupSniperMetrics registers the domain collectors once.
func SetupSniperMetrics(registry *prometheus.Registry) {
	sniperMetricsOnce.Do(func() {
		registry.MustRegister(
			PurchaseAttemptsTotal,
			QueueTasks,
			MonitorEventsTotal,
			SniperMatchesTotal,
			NotificationsTotal,
			VendorRequestDurationSeconds,
		)
	})
}

func RecordPurchase(result string) {
	PurchaseAttemptsTotal.WithLabelValues(result).Inc()
}

// SetQueueTasks overwrites the per-status gauge; statuses missing from counts are zeroed.
func SetQueueTasks(statuses []string, counts map[string]int) {
	for _, s := range statuses {
		QueueTasks.WithLabelValues(s).Set(float64(counts[s]))
	}
}

func RecordMonitorEvent(changeType string) {
	MonitorEventsTotal.WithLabelValues(changeType).Inc()
}

func RecordSniperMatches(n int) {
	SniperMatchesTotal.Add(float64(n))
}

func RecordNotification(ok bool) {
	result := "success"
	if !ok {
		result = "failed"
	}
	NotificationsTotal.WithLabelValues(result).Inc()
}

func ObserveVendorRequest(operation, status string, elapsed time.Duration) {
	VendorRequestDurationSeconds.WithLabelValues(operation, status).Observe(elapsed.Seconds())
}
