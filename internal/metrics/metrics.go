// Package metrics holds the Prometheus collectors shared by the API and the
// worker. Collectors register on the default registry at init time and are
// scraped from GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gittogether"

// HTTPRequests counts HTTP requests by method, route template and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// RealtimeConnections is the number of open realtime connections.
var RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "realtime_connections",
	Help:      "Open realtime connections.",
})

// RealtimeEvents counts inbound realtime events by event name and result code.
var RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "realtime_events_total",
	Help:      "Inbound realtime events by event and result.",
}, []string{"event", "result"})

// RealtimeDroppedFrames counts outbound frames dropped on a full send buffer.
var RealtimeDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "realtime_dropped_frames_total",
	Help:      "Outbound realtime frames dropped because the client send buffer was full.",
})

// ConnectionRequests counts connection-request operations by action and result.
var ConnectionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "connection_requests_total",
	Help:      "Connection request operations by action and result.",
}, []string{"action", "result"})

// Notifications counts notification tasks by kind and result.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notifications_total",
	Help:      "Notification tasks by kind and result.",
}, []string{"kind", "result"})

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
