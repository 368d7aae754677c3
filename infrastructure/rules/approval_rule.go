package rules

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*ApprovalRule)(nil)

// ApprovalRule derives approvals from rankings and elects the candidate
// with the most. Two variants exist: top-half approval, where a ballot of
// length L approves its first L/2+1 candidates, and all-ranked approval,
// where every ranked candidate is approved.
type ApprovalRule struct {
	baseRule
	approve func(length int) int
}

// approveTopHalf approves floor(L/2)+1 candidates of a ballot of length L.
func approveTopHalf(length int) int {
	if length == 0 {
		return 0
	}
	return length/2 + 1
}

func approveAllRanked(length int) int { return length }

// NewApprovalTopHalfRule creates the top-half approval rule.
func NewApprovalTopHalfRule(name string, config BaseConfig) (*ApprovalRule, error) {
	base, err := newBaseRule(name, domain.RuleApprovalTopHalf, config)
	if err != nil {
		return nil, err
	}
	return &ApprovalRule{baseRule: base, approve: approveTopHalf}, nil
}

// NewApprovalAllRankedRule creates the approve-everyone-ranked rule.
func NewApprovalAllRankedRule(name string, config BaseConfig) (*ApprovalRule, error) {
	base, err := newBaseRule(name, domain.RuleApprovalAllRanked, config)
	if err != nil {
		return nil, err
	}
	return &ApprovalRule{baseRule: base, approve: approveAllRanked}, nil
}

// Tabulate counts approvals and selects the maximum.
func (r *ApprovalRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	approvals := e.Approvals(r.approve)
	res = r.choose(highest(e.Candidates(), tallyScore(approvals)), p)
	res.Scores = domain.ScoresFromTally(approvals)
	return res, nil
}
