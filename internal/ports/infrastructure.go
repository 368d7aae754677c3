package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-tally/internal/domain"
)

// MetricsCollector defines the interface for collecting operational metrics.
// infrastructure/middleware provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like tabulations, ties, errors, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like candidates or ballot weight.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like IRV round counts.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// ElectionSource loads elections from some backing store.
// Implementations could read local YAML or TOML files, or any other
// source that can produce a validated candidate set and ballots.
type ElectionSource interface {
	// Load reads and validates the election identified by ref.
	// Data problems are reported as *domain.DataIntegrityError.
	//
	// Example:
	//
	//	election, err := source.Load(ctx, "elections/council.yaml")
	Load(ctx context.Context, ref string) (*domain.Election, error)
}
