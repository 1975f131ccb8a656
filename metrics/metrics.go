// Package metrics declares the Prometheus instruments of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_api_requests_total",
			Help: "Total number of REST requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindflow_api_request_duration_seconds",
			Help:    "REST request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Realtime
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindflow_realtime_connections",
			Help: "Currently open socket connections",
		},
	)

	RealtimeRoomMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindflow_realtime_room_members",
			Help: "Connection/room memberships currently held",
		},
	)

	RealtimeJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_realtime_joins_total",
			Help: "Room join attempts by outcome",
		},
		[]string{"outcome"}, // "joined", "denied", "not_found", "error"
	)

	RealtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_realtime_broadcasts_total",
			Help: "Change batches relayed to room peers",
		},
		[]string{"event"},
	)

	RealtimeDroppedBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_realtime_dropped_batches_total",
			Help: "Change batches dropped before broadcast or persistence",
		},
		[]string{"event", "reason"}, // "not_member", "forbidden", "invalid", "persist_queue_full"
	)

	RealtimeSendDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mindflow_realtime_send_dropped_total",
			Help: "Frames not delivered because a peer's send buffer was full or closed",
		},
	)

	RealtimePersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindflow_realtime_persist_duration_seconds",
			Help:    "Time to fold and save one change batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RealtimePersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_realtime_persist_failures_total",
			Help: "Change batches that failed to persist",
		},
		[]string{"kind"},
	)

	// AI service
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindflow_ai_requests_total",
			Help: "Calls to the text generation service by outcome",
		},
		[]string{"operation", "outcome"},
	)

	AICircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mindflow_ai_circuit_state",
			Help: "Circuit breaker state of the AI client (0=closed, 1=half-open, 2=open)",
		},
	)
)

func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPersist records one realtime fold; err == nil counts as success.
func RecordPersist(kind string, duration time.Duration, err error) {
	RealtimePersistDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		RealtimePersistFailures.WithLabelValues(kind).Inc()
	}
}

func RecordAIRequest(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AIRequests.WithLabelValues(operation, outcome).Inc()
}
