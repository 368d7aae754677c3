package rules

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*BucklinRule)(nil)

// BucklinRule widens the counted rank one position per round. In round r
// each candidate's score is the weight of ballots ranking it at position r
// or better; the first round in which some candidate exceeds half of the
// total weight decides. Several candidates over the threshold are ordered
// by cumulative count, then by the tie-break policy.
type BucklinRule struct {
	baseRule
}

// NewBucklinRule creates a Bucklin rule.
func NewBucklinRule(name string, config BaseConfig) (*BucklinRule, error) {
	base, err := newBaseRule(name, domain.RuleBucklin, config)
	if err != nil {
		return nil, err
	}
	return &BucklinRule{baseRule: base}, nil
}

// Tabulate runs rounds until a candidate holds a majority or ranks run out.
func (r *BucklinRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	candidates := e.Candidates()
	total := e.TotalWeight()
	positions := e.PositionCounts()
	cumulative := make(domain.Tally, len(candidates))
	for _, c := range candidates {
		cumulative[c] = 0
	}

	var rounds []domain.RoundLog
	for i, counts := range positions {
		for c, w := range counts {
			cumulative[c] += w
		}
		// Only ballots long enough to reach this position contribute to it.
		reached := counts.Sum()
		rounds = append(rounds, domain.RoundLog{
			Round:            i + 1,
			Tallies:          cumulative.Clone(),
			ContinuingWeight: reached,
			ExhaustedWeight:  total - reached,
		})

		var over []domain.Candidate
		for _, c := range candidates {
			if cumulative[c] > total-cumulative[c] {
				over = append(over, c)
			}
		}
		if len(over) == 0 {
			continue
		}

		res = r.choose(highest(over, tallyScore(cumulative)), p)
		rounds[len(rounds)-1].Tie = res.Tie
		res.Rounds = rounds
		res.Scores = domain.ScoresFromTally(cumulative)
		return res, nil
	}

	res = r.noWinner(p, "no candidate reached a majority at any rank")
	res.Rounds = rounds
	res.Scores = domain.ScoresFromTally(cumulative)
	return res, nil
}
