package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_commands_total",
			Help: "Total number of trade commands processed",
		},
		[]string{"result"},
	)

	executionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trade_engine_execution_seconds",
			Help:    "Time spent processing one trade command",
			Buckets: prometheus.DefBuckets,
		},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trade_engine_queue_depth",
			Help: "Pending entries per queue",
		},
		[]string{"queue"},
	)

	reconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trade_engine_terminal_reconnects_total",
			Help: "Terminal reconnect attempts triggered by failed health checks",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trade_engine_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(executionDuration)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(reconnectsTotal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus metrics endpoint.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordCommand records a processed command by outcome ("filled" or
// "failed") with its processing duration in seconds.
func RecordCommand(result string, seconds float64) {
	commandsTotal.WithLabelValues(result).Inc()
	executionDuration.Observe(seconds)
}

// UpdateQueueDepth updates the pending-entry gauge for a queue.
func UpdateQueueDepth(queue string, depth int) {
	queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordReconnect counts a terminal reconnect attempt.
func RecordReconnect() {
	reconnectsTotal.Inc()
}

// RecordError counts an error by category.
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
