package rules

import (
	"context"
	"fmt"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*PluralityRule)(nil)

// PluralityRule elects the candidate with the most first preferences.
// In majority mode the leader only wins with strictly more than half of
// all ballots cast, empty ballots included.
// The rule is stateless and thread-safe for concurrent execution.
type PluralityRule struct {
	baseRule
	requireMajority bool
}

// NewPluralityRule creates a plurality rule.
func NewPluralityRule(name string, config BaseConfig) (*PluralityRule, error) {
	base, err := newBaseRule(name, domain.RulePlurality, config)
	if err != nil {
		return nil, err
	}
	return &PluralityRule{baseRule: base}, nil
}

// NewMajorityRule creates a plurality rule that requires an absolute
// majority of the total ballot weight.
func NewMajorityRule(name string, config BaseConfig) (*PluralityRule, error) {
	base, err := newBaseRule(name, domain.RuleMajority, config)
	if err != nil {
		return nil, err
	}
	return &PluralityRule{baseRule: base, requireMajority: true}, nil
}

// Tabulate counts first preferences and selects the leader.
func (r *PluralityRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	tally := e.FirstPreferences()
	leaders := highest(e.Candidates(), tallyScore(tally))

	if r.requireMajority {
		top := tally[leaders[0]]
		if top <= e.TotalWeight()-top {
			res = r.noWinner(p, fmt.Sprintf("leader has %d of %d ballots, not a majority", top, e.TotalWeight()))
			res.Scores = domain.ScoresFromTally(tally)
			return res, nil
		}
	}

	res = r.choose(leaders, p)
	res.Scores = domain.ScoresFromTally(tally)
	return res, nil
}
