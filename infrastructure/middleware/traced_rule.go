package middleware

import (
	"context"
	"maps"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*TracedRule)(nil)

// tracerName is the instrumentation scope for rule spans.
const tracerName = "github.com/ahrav/go-tally/rules"

// TracedRule decorates a Rule with an OpenTelemetry span per tabulation and
// reports the outcome to a MetricsCollector. It holds no per-call state, so
// a single TracedRule is safe for concurrent use whenever the wrapped rule
// is.
type TracedRule struct {
	next    ports.Rule
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// TracedRuleOption configures a TracedRule.
type TracedRuleOption func(*TracedRule)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracedRuleOption {
	return func(tr *TracedRule) { tr.tracer = tp.Tracer(tracerName) }
}

// NewTracedRule wraps next. metrics may be nil, in which case only spans
// are emitted.
func NewTracedRule(next ports.Rule, metrics ports.MetricsCollector, opts ...TracedRuleOption) *TracedRule {
	if next == nil {
		panic("traced rule: next rule is required")
	}
	tr := &TracedRule{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// Name returns the wrapped rule's name.
func (tr *TracedRule) Name() string { return tr.next.Name() }

// Kind returns the wrapped rule's kind.
func (tr *TracedRule) Kind() domain.RuleName { return tr.next.Kind() }

// Validate delegates to the wrapped rule.
func (tr *TracedRule) Validate() error { return tr.next.Validate() }

// Unwrap returns the decorated rule.
func (tr *TracedRule) Unwrap() ports.Rule { return tr.next }

// Tabulate runs the wrapped rule inside a span named "Rule.Tabulate".
func (tr *TracedRule) Tabulate(ctx context.Context, election *domain.Election) (domain.Result, error) {
	ctx, span := tr.tracer.Start(ctx, "Rule.Tabulate")
	defer span.End()

	span.SetAttributes(
		attribute.String("rule.name", tr.next.Name()),
		attribute.String("rule.kind", string(tr.next.Kind())),
	)
	if election != nil {
		span.SetAttributes(
			attribute.String("election.name", election.Name()),
			attribute.Int("election.candidates", election.NumCandidates()),
			attribute.Int64("election.total_weight", election.TotalWeight()),
		)
	}

	start := time.Now()
	res, err := tr.next.Tabulate(ctx, election)
	elapsed := time.Since(start)

	labels := tr.labels()
	if tr.metrics != nil {
		tr.metrics.RecordLatency(MetricTabulation, elapsed, labels)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if tr.metrics != nil {
			re := ports.NewRuleError(tr.next.Name(), "", err)
			labels["cancelled"] = strconv.FormatBool(re.IsCancellation())
			tr.metrics.RecordCounter(MetricErrorsTotal, 1, labels)
		}
		return res, err
	}

	tr.annotate(span, res)
	tr.record(election, res, labels)

	span.SetStatus(codes.Ok, "tabulation completed")
	return res, nil
}

// annotate adds the result to the span.
func (tr *TracedRule) annotate(span trace.Span, res domain.Result) {
	span.SetAttributes(
		attribute.String("result.outcome", string(res.Outcome)),
		attribute.Bool("result.tie", res.Tie),
		attribute.String("result.tie_breaker", string(res.TieBreaker)),
	)
	if res.HasWinner() {
		span.SetAttributes(attribute.String("result.winner", string(*res.Winner)))
	}
	if res.Reason != "" {
		span.SetAttributes(attribute.String("result.reason", res.Reason))
	}

	for _, r := range res.Rounds {
		if len(r.Eliminated) == 0 && !r.Tie {
			continue
		}
		eliminated := make([]string, len(r.Eliminated))
		for i, c := range r.Eliminated {
			eliminated[i] = string(c)
		}
		span.AddEvent("round.completed", trace.WithAttributes(
			attribute.Int("round", r.Round),
			attribute.StringSlice("eliminated", eliminated),
			attribute.Int64("exhausted_weight", r.ExhaustedWeight),
			attribute.Bool("tie", r.Tie),
		))
	}
}

// record reports the result to the metrics collector.
func (tr *TracedRule) record(election *domain.Election, res domain.Result, labels map[string]string) {
	if tr.metrics == nil {
		return
	}

	outcome := maps.Clone(labels)
	outcome["outcome"] = string(res.Outcome)
	tr.metrics.RecordCounter(MetricTabulationsTotal, 1, outcome)

	if res.Tie {
		ties := maps.Clone(labels)
		ties["tie_breaker"] = string(res.TieBreaker)
		tr.metrics.RecordCounter(MetricTiesTotal, 1, ties)
	}
	if len(res.Rounds) > 0 {
		tr.metrics.RecordHistogram(MetricRounds, float64(len(res.Rounds)), labels)
	}
	if election != nil {
		size := map[string]string{"election": election.Name()}
		tr.metrics.RecordGauge(MetricCandidates, float64(election.NumCandidates()), size)
		tr.metrics.RecordGauge(MetricBallotWeight, float64(election.TotalWeight()), size)
	}
}

func (tr *TracedRule) labels() map[string]string {
	return map[string]string{
		"rule": tr.next.Name(),
		"kind": string(tr.next.Kind()),
	}
}
