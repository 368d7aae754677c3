// Package middleware provides cross-cutting concerns for rule tabulation.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tally/internal/ports"
)

// Metric names understood by PrometheusMetrics. Other names fall through to
// the generic operation counter, gauge and histogram vectors.
const (
	MetricTabulation       = "tabulation"
	MetricTabulationsTotal = "tabulations_total"
	MetricTiesTotal        = "ties_total"
	MetricErrorsTotal      = "tabulation_errors_total"
	MetricRounds           = "rounds"
	MetricCandidates       = "election_candidates"
	MetricBallotWeight     = "election_ballot_weight"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks how often each rule runs, how often it needs the tie-break
// policy, how long it takes and how many rounds multi-round rules use.
type PrometheusMetrics struct {
	tabulations      *prometheus.CounterVec
	ties             *prometheus.CounterVec
	ruleRounds       *prometheus.HistogramVec
	electionSize     *prometheus.GaugeVec
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics with reg. A nil reg uses the global Prometheus
// registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Rule-specific metrics.
		tabulations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_tabulations_total",
				Help: "Total number of completed tabulations by rule and outcome.",
			},
			[]string{"rule", "outcome"},
		),
		ties: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_ties_total",
				Help: "Total number of tabulations decided by the tie-break policy.",
			},
			[]string{"rule", "tie_breaker"},
		),
		ruleRounds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_rule_rounds",
				Help:    "Number of rounds used by multi-round rules.",
				Buckets: prometheus.LinearBuckets(1, 1, 12),
			},
			[]string{"rule"},
		),
		electionSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tally_election_size",
				Help: "Candidate count and ballot weight of the last election tabulated.",
			},
			[]string{"election", "dimension"},
		),

		// General execution metrics.
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_execution_duration_seconds",
				Help:    "Execution time of tabulation operations.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"operation", "rule"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_operations_total",
				Help: "Total number of operations performed by the tabulator.",
			},
			[]string{"operation", "status", "rule"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tally_system_state",
				Help: "Current state values reported by the tabulator.",
			},
			[]string{"metric", "rule"},
		),
	}
}

// ruleLabel returns the "rule" label, defaulting to "unknown".
func ruleLabel(labels map[string]string) string {
	if r := labels["rule"]; r != "" {
		return r
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, ruleLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	rule := ruleLabel(labels)

	switch metric {
	case MetricTabulationsTotal:
		pm.tabulations.WithLabelValues(rule, labels["outcome"]).Add(value)
	case MetricTiesTotal:
		pm.ties.WithLabelValues(rule, labels["tie_breaker"]).Add(value)
	case MetricErrorsTotal:
		status := "error"
		if labels["cancelled"] == "true" {
			status = "cancelled"
		}
		pm.operationCounter.WithLabelValues(MetricTabulation, status, rule).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success", rule).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricCandidates, MetricBallotWeight:
		pm.electionSize.WithLabelValues(labels["election"], metric).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric, ruleLabel(labels)).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	rule := ruleLabel(labels)
	if metric == MetricRounds {
		pm.ruleRounds.WithLabelValues(rule).Observe(value)
		return
	}
	pm.executionLatency.WithLabelValues(metric, rule).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
