package rules

import (
	"context"
	"fmt"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*IRVRule)(nil)

// irvState is the state of an instant-runoff count.
type irvState int

const (
	// irvActive means two or more candidates remain and none holds a
	// majority of the continuing weight.
	irvActive irvState = iota
	// irvMajorityFound is terminal: a candidate holds more than half of
	// the weight still expressing a preference.
	irvMajorityFound
	// irvSingleRemaining is terminal: eliminations left one candidate.
	irvSingleRemaining
	// irvNoCandidates is terminal: there was nobody to elect.
	irvNoCandidates
)

func (s irvState) String() string {
	switch s {
	case irvActive:
		return "active"
	case irvMajorityFound:
		return "majority_found"
	case irvSingleRemaining:
		return "single_remaining"
	case irvNoCandidates:
		return "no_candidates"
	default:
		return fmt.Sprintf("irvState(%d)", int(s))
	}
}

// IRVRule runs an instant-runoff count. Each round tallies first
// preferences among the remaining candidates; a candidate with more than
// half of the continuing weight wins, otherwise the weakest candidate is
// eliminated and the ballots are recounted on the restricted election.
// Ballots whose ranked candidates are all eliminated are exhausted and no
// longer count towards the majority threshold.
//
// Ties for elimination remove the candidate the policy prefers least and
// flag the round. The result's Tie is set when any elimination was decided
// by the policy.
type IRVRule struct {
	baseRule
}

// NewIRVRule creates an instant-runoff rule.
func NewIRVRule(name string, config BaseConfig) (*IRVRule, error) {
	base, err := newBaseRule(name, domain.RuleIRV, config)
	if err != nil {
		return nil, err
	}
	return &IRVRule{baseRule: base}, nil
}

// irvStep is the outcome of one round.
type irvStep struct {
	state  irvState
	winner domain.Candidate
	log    domain.RoundLog
	next   *domain.Election
}

// step runs one round over the current election. total is the ballot
// weight of the original election.
func (r *IRVRule) step(current *domain.Election, round int, total int64, p domain.TieBreakPolicy) (irvStep, error) {
	remaining := current.Candidates()
	if len(remaining) == 0 {
		return irvStep{state: irvNoCandidates}, nil
	}

	tally := current.FirstPreferences()
	continuing := current.ContinuingWeight()
	log := domain.RoundLog{
		Round:            round,
		Tallies:          tally,
		ContinuingWeight: continuing,
		ExhaustedWeight:  total - continuing,
	}

	if len(remaining) == 1 {
		return irvStep{state: irvSingleRemaining, winner: remaining[0], log: log}, nil
	}

	leader := highest(remaining, tallyScore(tally))[0]
	if tally[leader] > continuing-tally[leader] {
		return irvStep{state: irvMajorityFound, winner: leader, log: log}, nil
	}

	weakest := lowest(remaining, tallyScore(tally))
	out := domain.Last(weakest, p)
	log.Eliminated = []domain.Candidate{out}
	log.Tie = len(weakest) > 1

	next, err := current.Without(out)
	if err != nil {
		return irvStep{}, fmt.Errorf("round %d: eliminating %s: %w", round, out, err)
	}
	return irvStep{state: irvActive, log: log, next: next}, nil
}

// Tabulate runs rounds until a terminal state is reached. The context is
// checked between rounds.
func (r *IRVRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	total := e.TotalWeight()
	current := e
	var (
		rounds []domain.RoundLog
		tie    bool
	)

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return domain.Result{}, fmt.Errorf("round %d: %w", round, err)
		}

		s, err := r.step(current, round, total, p)
		if err != nil {
			return domain.Result{}, err
		}

		switch s.state {
		case irvActive:
			rounds = append(rounds, s.log)
			tie = tie || s.log.Tie
			current = s.next
		case irvMajorityFound, irvSingleRemaining:
			rounds = append(rounds, s.log)
			res = r.choose([]domain.Candidate{s.winner}, p)
			res.Tie = tie
			res.Rounds = rounds
			res.Scores = domain.ScoresFromTally(s.log.Tallies)
			return res, nil
		case irvNoCandidates:
			res = r.noWinner(p, "every candidate was eliminated")
			res.Rounds = rounds
			return res, nil
		}
	}
}
