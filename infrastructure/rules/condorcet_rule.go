package rules

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var (
	_ ports.Rule = (*CondorcetRule)(nil)
	_ ports.Rule = (*BlackRule)(nil)
)

// CondorcetRule elects the candidate that strictly beats every other
// candidate head-to-head. A candidate tied with anyone is not a Condorcet
// winner; when no candidate qualifies the result has no winner.
type CondorcetRule struct {
	baseRule
}

// NewCondorcetRule creates a Condorcet rule.
func NewCondorcetRule(name string, config BaseConfig) (*CondorcetRule, error) {
	base, err := newBaseRule(name, domain.RuleCondorcet, config)
	if err != nil {
		return nil, err
	}
	return &CondorcetRule{baseRule: base}, nil
}

// Tabulate looks up the Condorcet winner in the election's tournament.
func (r *CondorcetRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	w, ok := e.Tournament().CondorcetWinner()
	if !ok {
		return r.noWinner(p, "no candidate beats every other candidate head-to-head"), nil
	}
	return r.choose([]domain.Candidate{w}, p), nil
}

// BlackRule elects the Condorcet winner when there is one and otherwise
// falls back to the Borda count.
type BlackRule struct {
	baseRule
	borda *BordaRule
}

// NewBlackRule creates a Black rule. The Borda fallback shares its
// tie-break configuration.
func NewBlackRule(name string, config BaseConfig) (*BlackRule, error) {
	base, err := newBaseRule(name, domain.RuleBlack, config)
	if err != nil {
		return nil, err
	}
	borda, err := NewBordaRule(name, config)
	if err != nil {
		return nil, err
	}
	return &BlackRule{baseRule: base, borda: borda}, nil
}

// UnmarshalParameters updates the rule and its Borda fallback.
func (r *BlackRule) UnmarshalParameters(params yaml.Node) error {
	if err := r.baseRule.UnmarshalParameters(params); err != nil {
		return err
	}
	r.borda.config = r.config
	return nil
}

// Tabulate returns the Condorcet winner or the Borda result.
func (r *BlackRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	if w, ok := e.Tournament().CondorcetWinner(); ok {
		return r.choose([]domain.Candidate{w}, p), nil
	}

	res = r.borda.tabulate(e, p)
	res.Rule = r.kind
	return res, nil
}
