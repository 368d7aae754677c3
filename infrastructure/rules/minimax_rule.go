package rules

import (
	"context"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*MinimaxRule)(nil)

// MinimaxMetric selects how a pairwise defeat is measured.
type MinimaxMetric string

// Supported defeat measures.
const (
	// MetricWinningVotes measures a defeat by the weight preferring the
	// opponent. Pairings the candidate wins or ties are not defeats.
	MetricWinningVotes MinimaxMetric = "winning_votes"

	// MetricMargins measures a defeat by the opponent's winning margin.
	MetricMargins MinimaxMetric = "margins"
)

// MinimaxConfig defines the configuration parameters for the MinimaxRule.
type MinimaxConfig struct {
	BaseConfig `yaml:",inline"`

	// Metric selects the defeat measure.
	// Options: "winning_votes" (default), "margins".
	Metric MinimaxMetric `yaml:"metric" json:"metric" validate:"required,oneof=winning_votes margins"`
}

// DefaultMinimaxConfig returns a MinimaxConfig measuring winning votes.
func DefaultMinimaxConfig() MinimaxConfig {
	return MinimaxConfig{BaseConfig: DefaultBaseConfig(), Metric: MetricWinningVotes}
}

// MinimaxRule elects the candidate whose worst head-to-head result is the
// mildest. With the winning-votes metric a candidate's score is the largest
// weight behind any opponent that beats it; the smallest score wins. A
// Condorcet winner loses no pairing and is the only candidate scoring 0.
type MinimaxRule struct {
	baseRule
	metric MinimaxMetric
}

// NewMinimaxRule creates a Minimax rule.
func NewMinimaxRule(name string, config MinimaxConfig) (*MinimaxRule, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	base, err := newBaseRule(name, domain.RuleMinimax, config.BaseConfig)
	if err != nil {
		return nil, err
	}
	return &MinimaxRule{baseRule: base, metric: config.Metric}, nil
}

// Validate checks the shared configuration and the metric.
func (r *MinimaxRule) Validate() error {
	if err := r.baseRule.Validate(); err != nil {
		return err
	}
	if r.metric != MetricWinningVotes && r.metric != MetricMargins {
		return fmt.Errorf("unknown minimax metric %q", r.metric)
	}
	return nil
}

// UnmarshalParameters decodes the tie-break settings and the metric.
func (r *MinimaxRule) UnmarshalParameters(params yaml.Node) error {
	config := DefaultMinimaxConfig()

	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	r.config = config.BaseConfig
	r.metric = config.Metric
	return nil
}

// Tabulate computes worst pairwise defeats and selects the minimum.
func (r *MinimaxRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	scores := MinimaxScores(e.Tournament(), r.metric)
	res = r.choose(lowest(e.Candidates(), func(c domain.Candidate) float64 { return scores[c] }), p)
	res.Scores = scores
	return res, nil
}

// MinimaxScores returns every candidate's worst defeat under metric. Only
// pairings the opponent strictly wins count, so a candidate that loses no
// pairing scores 0.
func MinimaxScores(t *domain.Tournament, metric MinimaxMetric) map[domain.Candidate]float64 {
	candidates := t.Candidates()
	scores := make(map[domain.Candidate]float64, len(candidates))
	for _, x := range candidates {
		var worst int64
		for _, y := range candidates {
			if x == y || !t.Beats(y, x) {
				continue
			}
			defeat := t.Count(y, x)
			if metric == MetricMargins {
				defeat = t.Margin(y, x)
			}
			worst = max(worst, defeat)
		}
		scores[x] = float64(worst)
	}
	return scores
}

// CreateMinimaxRule builds a MinimaxRule from a parameter map.
func CreateMinimaxRule(id string, config map[string]any) (*MinimaxRule, error) {
	cfg := DefaultMinimaxConfig()

	rest := maps.Clone(config)
	if metric, ok := rest["metric"]; ok {
		s, ok := metric.(string)
		if !ok {
			return nil, fmt.Errorf("metric must be a string, got %T", metric)
		}
		cfg.Metric = MinimaxMetric(s)
		delete(rest, "metric")
	}

	base, err := baseConfigFromMap(rest)
	if err != nil {
		return nil, err
	}
	cfg.BaseConfig = base

	return NewMinimaxRule(id, cfg)
}
