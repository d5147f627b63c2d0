// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SlackRequestDuration tracks outbound Slack Web API call duration.
	SlackRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slack_request_duration_seconds",
			Help:    "Slack Web API call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "outcome"},
	)

	// SlackRequestsTotal tracks outbound Slack Web API calls.
	SlackRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_requests_total",
			Help: "Total Slack Web API calls",
		},
		[]string{"method", "outcome"},
	)

	// FlightRequestsTotal tracks outbound flight API calls.
	FlightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_requests_total",
			Help: "Total flight-data API calls",
		},
		[]string{"operation", "outcome"},
	)

	// CacheLookupsTotal tracks cache hits and misses.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	// StoreMessages tracks the size of the message feed.
	StoreMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_messages",
			Help: "Number of messages in the feed",
		},
	)

	// StoreUnread tracks the unread messages in the feed.
	StoreUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_unread_messages",
			Help: "Number of unread messages in the feed",
		},
	)

	// StoreReloadDuration tracks full feed reload duration.
	StoreReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_reload_duration_seconds",
			Help:    "Full feed reload duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// JournalEventsTotal tracks events written to the JetStream journal.
	JournalEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_events_total",
			Help: "Store events published to the event journal",
		},
		[]string{"type"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// WSConnectionsActive tracks active WebSocket connections.
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSlackRequest records metrics for one Slack Web API call.
func RecordSlackRequest(method, outcome string, duration float64) {
	SlackRequestDuration.WithLabelValues(method, outcome).Observe(duration)
	SlackRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordFlightRequest records metrics for one flight API call.
func RecordFlightRequest(operation, outcome string) {
	FlightRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// SetStoreSize records the current feed size and unread count.
func SetStoreSize(total, unread int) {
	StoreMessages.Set(float64(total))
	StoreUnread.Set(float64(unread))
}

// ObserveReload records the duration of a full feed reload.
func ObserveReload(seconds float64) {
	StoreReloadDuration.Observe(seconds)
}

// RecordJournalEvent records one event written to the journal.
func RecordJournalEvent(eventType string) {
	JournalEventsTotal.WithLabelValues(eventType).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

// IncrementWSConnections increments the active WebSocket connection count.
func IncrementWSConnections() {
	WSConnectionsActive.Inc()
}

// DecrementWSConnections decrements the active WebSocket connection count.
func DecrementWSConnections() {
	WSConnectionsActive.Dec()
}
