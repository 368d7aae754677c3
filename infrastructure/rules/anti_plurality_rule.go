package rules

import (
	"context"
	"slices"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*AntiPluralityRule)(nil)

// AntiPluralityRule filters candidates from the last rank position
// backwards. At each position only the candidates named there least often
// survive; the filter stops as soon as one candidate remains. Candidates
// still tied after the first position are decided by the policy.
type AntiPluralityRule struct {
	baseRule
}

// NewAntiPluralityRule creates an anti-plurality rule.
func NewAntiPluralityRule(name string, config BaseConfig) (*AntiPluralityRule, error) {
	base, err := newBaseRule(name, domain.RuleAntiPlurality, config)
	if err != nil {
		return nil, err
	}
	return &AntiPluralityRule{baseRule: base}, nil
}

// Tabulate runs the position filter and reports one round per position.
func (r *AntiPluralityRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	positions := e.PositionCounts()
	remaining := e.Candidates()
	var rounds []domain.RoundLog

	for i := len(positions) - 1; i >= 0 && len(remaining) > 1; i-- {
		counts := restrictTally(positions[i], remaining)
		keep := lowest(remaining, tallyScore(counts))
		eliminated := slices.DeleteFunc(slices.Clone(remaining), func(c domain.Candidate) bool {
			return slices.Contains(keep, c)
		})

		rounds = append(rounds, domain.RoundLog{
			Round:            len(rounds) + 1,
			Tallies:          counts,
			Eliminated:       eliminated,
			ContinuingWeight: positions[i].Sum(),
			ExhaustedWeight:  e.TotalWeight() - positions[i].Sum(),
		})
		remaining = keep
	}

	res = r.choose(remaining, p)
	if len(rounds) > 0 {
		rounds[len(rounds)-1].Tie = res.Tie
	}
	res.Rounds = rounds
	return res, nil
}
