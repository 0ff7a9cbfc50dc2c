package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Engagement metrics
	ViewsRecordedTotal   prometheus.Counter
	ViewsSuppressedTotal prometheus.Counter
	LikeTogglesTotal     prometheus.Counter

	// Fan-out metrics
	BroadcastsTotal         prometheus.Counter
	WebsocketConnections    prometheus.Gauge
	WebsocketDroppedClients prometheus.Counter

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Analytics ingestion
	AnalyticsEventsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the metrics singleton, registering all collectors on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			ViewsRecordedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "engagement_views_recorded_total",
					Help: "Views that passed dedup and incremented an article",
				},
			),
			ViewsSuppressedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "engagement_views_suppressed_total",
					Help: "Views suppressed by the per-viewer dedup window",
				},
			),
			LikeTogglesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "engagement_like_toggles_total",
					Help: "Like toggle operations applied",
				},
			),
			BroadcastsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fanout_broadcasts_total",
					Help: "Messages broadcast to all connected clients",
				},
			),
			WebsocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "fanout_websocket_connections",
					Help: "Currently connected WebSocket clients",
				},
			),
			WebsocketDroppedClients: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "fanout_websocket_dropped_clients_total",
					Help: "Clients dropped because their send buffer filled",
				},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"client_ip"},
			),
			AnalyticsEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analytics_events_total",
					Help: "Analytics events accepted at the ingestion boundary",
				},
				[]string{"event"},
			),
		}
	})
	return instance
}
