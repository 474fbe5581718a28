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
	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	SignalStrength     prometheus.Histogram
	RefinementFailures prometheus.Counter

	// Risk metrics
	RiskAssessmentsTotal *prometheus.CounterVec
	RiskRejections       *prometheus.CounterVec

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	BacktestDuration  prometheus.Histogram
	TradesSimulated   prometheus.Counter

	// Market data metrics
	QuotesReceived prometheus.Counter
	BarsCompleted  prometheus.Counter
	StreamReconnects prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "equity_signal_lab"
	}

	return &Metrics{
		// Evaluation metrics
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Total number of evaluations by overall signal",
		}, []string{"signal"}),
		SignalStrength: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "signal_strength",
			Help:      "Distribution of signal strength (0-100)",
			Buckets:   []float64{0, 10, 25, 50, 75, 90, 100},
		}),
		RefinementFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "refinement_failures_total",
			Help:      "Total number of refinement collaborator failures (fell back to rule-based signal)",
		}),

		// Risk metrics
		RiskAssessmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "assessments_total",
			Help:      "Total number of risk assessments by outcome",
		}, []string{"outcome"}),
		RiskRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "rejections_total",
			Help:      "Total number of risk rejections by failing check",
		}, []string{"check"}),

		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),

		// Market data metrics
		QuotesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "quotes_received_total",
			Help:      "Total number of quote frames received from the stream",
		}),
		BarsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "bars_completed_total",
			Help:      "Total number of bars folded from quotes",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "stream_reconnects_total",
			Help:      "Total number of stream reconnect attempts",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation records one evaluation outcome.
func RecordEvaluation(signal string, strength float64) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(signal).Inc()
	DefaultMetrics.SignalStrength.Observe(strength)
}

// RecordRefinementFailure increments the refinement failure counter.
func RecordRefinementFailure() {
	DefaultMetrics.RefinementFailures.Inc()
}

// RecordRiskAssessment records a risk assessment; check names the failing
// check and is empty on approval.
func RecordRiskAssessment(approved bool, check string) {
	if approved {
		DefaultMetrics.RiskAssessmentsTotal.WithLabelValues("approved").Inc()
		return
	}
	DefaultMetrics.RiskAssessmentsTotal.WithLabelValues("rejected").Inc()
	DefaultMetrics.RiskRejections.WithLabelValues(check).Inc()
}

// RecordBacktestRun records a completed backtest run.
func RecordBacktestRun(status string, durationSeconds float64, trades int) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
