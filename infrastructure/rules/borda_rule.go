package rules

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*BordaRule)(nil)

// BordaRule elects the candidate with the highest Borda score. On each
// ballot a ranked candidate earns one point per candidate ranked below it,
// multiplied by the ballot weight; unranked candidates earn nothing.
type BordaRule struct {
	baseRule
}

// NewBordaRule creates a Borda count rule.
func NewBordaRule(name string, config BaseConfig) (*BordaRule, error) {
	base, err := newBaseRule(name, domain.RuleBorda, config)
	if err != nil {
		return nil, err
	}
	return &BordaRule{baseRule: base}, nil
}

// Tabulate computes Borda scores and selects the maximum.
func (r *BordaRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}
	return r.tabulate(e, p), nil
}

func (r *BordaRule) tabulate(e *domain.Election, p domain.TieBreakPolicy) domain.Result {
	scores := e.BordaScores()
	res := r.choose(highest(e.Candidates(), tallyScore(scores)), p)
	res.Scores = domain.ScoresFromTally(scores)
	return res
}
