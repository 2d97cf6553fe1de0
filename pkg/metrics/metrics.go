package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker / ledger metrics
	WorkersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forge_workers_total",
			Help: "Total number of known workers by status",
		},
		[]string{"status"},
	)

	WorkerHealthScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forge_worker_health_score",
			Help: "Current health score (0-1) per worker",
		},
		[]string{"worker_id"},
	)

	LedgerIngestErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_ledger_ingest_errors_total",
			Help: "Total number of status files that failed to parse",
		},
	)

	// Health monitor metrics
	HealthCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_health_check_duration_seconds",
			Help:    "Time taken to run a single health check",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"check_kind"},
	)

	HealthCheckFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_health_check_failures_total",
			Help: "Total number of failed health checks by class",
		},
		[]string{"error_class"},
	)

	// Crash recovery metrics
	CrashesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_crashes_total",
			Help: "Total number of crashes observed by worker",
		},
		[]string{"worker_id"},
	)

	RestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_restarts_total",
			Help: "Total number of restart actions by outcome",
		},
		[]string{"action"},
	)

	// Cost ledger metrics
	CostAppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forge_cost_append_duration_seconds",
			Help:    "Time taken to append a cost entry, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	CostAppendRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_cost_append_retries_total",
			Help: "Total number of database_locked retries across all appends",
		},
	)

	CostOverflowBufferSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "forge_cost_overflow_buffer_size",
			Help: "Current number of cost entries pending in the overflow buffer",
		},
	)

	CostTotalUSD = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_cost_total_usd",
			Help: "Cumulative cost in USD recorded by the ledger",
		},
	)

	// Chat pipeline metrics
	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_chat_turns_total",
			Help: "Total number of chat turns by terminal state",
		},
		[]string{"state"},
	)

	ChatTurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forge_chat_turn_duration_seconds",
			Help:    "Duration of a chat turn's provider call",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChatRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_chat_rate_limited_total",
			Help: "Total number of submissions rejected by the rate limiter",
		},
	)

	// Event bus / render scheduler metrics
	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "forge_event_queue_depth",
			Help: "Current depth of the event bus queue",
		},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_events_dropped_total",
			Help: "Total number of non-critical events dropped due to a full queue",
		},
		[]string{"event_type"},
	)

	RenderFrameDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forge_render_frame_duration_seconds",
			Help:    "Time taken to render one coalesced frame",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		WorkersTotal,
		WorkerHealthScore,
		LedgerIngestErrors,
		HealthCheckDuration,
		HealthCheckFailuresTotal,
		CrashesTotal,
		RestartsTotal,
		CostAppendDuration,
		CostAppendRetriesTotal,
		CostOverflowBufferSize,
		CostTotalUSD,
		ChatTurnsTotal,
		ChatTurnDuration,
		ChatRateLimitedTotal,
		EventQueueDepth,
		EventsDroppedTotal,
		RenderFrameDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
