package rules

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*CopelandRule)(nil)

// CopelandRule scores each candidate one point per head-to-head win and
// half a point per head-to-head tie. The highest score wins; equal scores
// are reported as a tie and resolved by the policy.
type CopelandRule struct {
	baseRule
}

// NewCopelandRule creates a Copeland rule.
func NewCopelandRule(name string, config BaseConfig) (*CopelandRule, error) {
	base, err := newBaseRule(name, domain.RuleCopeland, config)
	if err != nil {
		return nil, err
	}
	return &CopelandRule{baseRule: base}, nil
}

// Tabulate computes Copeland scores from the tournament.
func (r *CopelandRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	scores := CopelandScores(e.Tournament())
	res = r.choose(highest(e.Candidates(), func(c domain.Candidate) float64 { return scores[c] }), p)
	res.Scores = scores
	return res, nil
}

// CopelandScores returns every candidate's Copeland score.
func CopelandScores(t *domain.Tournament) map[domain.Candidate]float64 {
	candidates := t.Candidates()
	scores := make(map[domain.Candidate]float64, len(candidates))
	for _, a := range candidates {
		scores[a] = 0
		for _, b := range candidates {
			if a == b {
				continue
			}
			switch m := t.Margin(a, b); {
			case m > 0:
				scores[a]++
			case m == 0:
				scores[a] += 0.5
			}
		}
	}
	return scores
}
