package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of poll cycles by result (count)",
		},
		[]string{"status"},
	)

	PollCycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_ms",
			Help:    "Duration of a poll cycle in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"status"},
	)

	MessagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_processed_total",
			Help: "Total number of channel messages processed by classification outcome (count)",
		},
		[]string{"outcome"},
	)

	UnknownVariantsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "message_unknown_variants_total",
			Help: "Total number of block or element kinds the decoder did not understand (count)",
		},
	)

	TicketsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Total number of tickets created, by how the priority was sent (count)",
		},
		[]string{"priority_mode"},
	)

	TicketsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_failed_total",
			Help: "Total number of ticket creations that failed (count)",
		},
		[]string{"reason"},
	)

	MetadataFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_fallback_total",
			Help: "Total number of times metadata loading used a fallback (count)",
		},
		[]string{"kind"},
	)

	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_requests_total",
			Help: "Total number of requests to remote APIs (count)",
		},
		[]string{"service", "operation", "status"},
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_request_duration_ms",
			Help:    "Duration of remote API requests in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"service", "operation"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "operation"},
	)

	CursorPosition = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cursor_position_seconds",
			Help: "Timestamp of the last processed message per channel (unix seconds)",
		},
		[]string{"channel"},
	)

	CursorOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_operations_total",
			Help: "Total number of cursor store operations (count)",
		},
		[]string{"backend", "operation", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of ticket events published (count)",
		},
		[]string{"topic", "status"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"topic"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_requests_total",
			Help: "Total number of rate limited HTTP route checks by result (count)",
		},
		[]string{"route", "result"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PollCyclesTotal,
			PollCycleDuration,
			MessagesProcessedTotal,
			UnknownVariantsTotal,
			TicketsCreatedTotal,
			TicketsFailedTotal,
			MetadataFallbackTotal,
			RemoteRequestsTotal,
			RemoteRequestDuration,
			RetryAttemptsTotal,
			CursorPosition,
			CursorOperationsTotal,
			CircuitBreakerState,
			CircuitBreakerRequests,
			CircuitBreakerFailures,
			EventsPublishedTotal,
			KafkaWriteDuration,
			RateLimitRequestsTotal,
		)
	})
}

func ObservePollCycle(status string, duration time.Duration) {
	PollCyclesTotal.WithLabelValues(status).Inc()
	PollCycleDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncMessageProcessed(outcome string) {
	MessagesProcessedTotal.WithLabelValues(outcome).Inc()
}

func AddUnknownVariants(n int) {
	UnknownVariantsTotal.Add(float64(n))
}

func IncTicketCreated(priorityMode string) {
	TicketsCreatedTotal.WithLabelValues(priorityMode).Inc()
}

func IncTicketFailed(reason string) {
	TicketsFailedTotal.WithLabelValues(reason).Inc()
}

func IncMetadataFallback(kind string) {
	MetadataFallbackTotal.WithLabelValues(kind).Inc()
}

func ObserveRemoteRequest(service, operation, status string, duration time.Duration) {
	RemoteRequestsTotal.WithLabelValues(service, operation, status).Inc()
	RemoteRequestDuration.WithLabelValues(service, operation).Observe(float64(duration.Milliseconds()))
}

func IncRetryAttempt(service, operation string) {
	RetryAttemptsTotal.WithLabelValues(service, operation).Inc()
}

func SetCursorPosition(channel string, ts float64) {
	CursorPosition.WithLabelValues(channel).Set(ts)
}

func IncCursorOperation(backend, operation, status string) {
	CursorOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

func IncEventPublished(topic, status string) {
	EventsPublishedTotal.WithLabelValues(topic, status).Inc()
}

func ObserveKafkaWriteDuration(topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(topic).Observe(float64(duration.Milliseconds()))
}

func IncRateLimitRequest(route, result string) {
	RateLimitRequestsTotal.WithLabelValues(route, result).Inc()
}
