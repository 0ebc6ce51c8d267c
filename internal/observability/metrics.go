// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Submission metrics
	SubmissionsTotal *prometheus.CounterVec

	// Subscription metrics
	NotificationsTotal  *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
	WSReconnects        prometheus.Counter

	// Health metrics
	HighestSlotSeen prometheus.Gauge
	UptimeSeconds   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solanakit"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_latency_seconds",
			Help:      "JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "Total number of failed JSON-RPC calls by method",
		}, []string{"method"}),

		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "submissions_total",
			Help:      "Total number of transaction submissions by status",
		}, []string{"status"}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "notifications_total",
			Help:      "Total number of subscription notifications by kind",
		}, []string{"kind"}),
		ActiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "active_subscriptions",
			Help:      "Current number of live subscriptions",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),

		HighestSlotSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "highest_slot_seen",
			Help:      "Highest slot number seen",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records one JSON-RPC call's latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCError increments the error counter for a method.
func RecordRPCError(method string) {
	DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
}

// RecordSubmission records one transaction submission outcome.
func RecordSubmission(status string) {
	DefaultMetrics.SubmissionsTotal.WithLabelValues(status).Inc()
}

// RecordNotification increments the notification counter for a kind.
func RecordNotification(kind string) {
	DefaultMetrics.NotificationsTotal.WithLabelValues(kind).Inc()
}

// SetActiveSubscriptions updates the live subscription gauge.
func SetActiveSubscriptions(n int) {
	DefaultMetrics.ActiveSubscriptions.Set(float64(n))
}

// RecordReconnect increments the WebSocket reconnect counter.
func RecordReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// UpdateHighestSlot updates the highest slot seen gauge.
func UpdateHighestSlot(slot uint64) {
	DefaultMetrics.HighestSlotSeen.Set(float64(slot))
}
