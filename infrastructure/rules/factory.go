package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// ParameterUnmarshaler is implemented by rules that accept YAML parameters.
// Every built-in rule implements it.
type ParameterUnmarshaler interface {
	UnmarshalParameters(params yaml.Node) error
}

// New builds the named rule from a parameter map. The set of rules is
// closed: names outside domain.AllRules fail with domain.ErrUnknownRule.
func New(kind domain.RuleName, id string, config map[string]any) (ports.Rule, error) {
	if kind == domain.RuleMinimax {
		return asRule(CreateMinimaxRule(id, config))
	}

	cfg, err := baseConfigFromMap(config)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", id, err)
	}

	switch kind {
	case domain.RulePlurality:
		return asRule(NewPluralityRule(id, cfg))
	case domain.RuleMajority:
		return asRule(NewMajorityRule(id, cfg))
	case domain.RuleAntiPlurality:
		return asRule(NewAntiPluralityRule(id, cfg))
	case domain.RuleApprovalTopHalf:
		return asRule(NewApprovalTopHalfRule(id, cfg))
	case domain.RuleApprovalAllRanked:
		return asRule(NewApprovalAllRankedRule(id, cfg))
	case domain.RuleBorda:
		return asRule(NewBordaRule(id, cfg))
	case domain.RuleBucklin:
		return asRule(NewBucklinRule(id, cfg))
	case domain.RuleCondorcet:
		return asRule(NewCondorcetRule(id, cfg))
	case domain.RuleBlack:
		return asRule(NewBlackRule(id, cfg))
	case domain.RuleCopeland:
		return asRule(NewCopelandRule(id, cfg))
	case domain.RuleRankedPairs:
		return asRule(NewRankedPairsRule(id, cfg))
	case domain.RuleIRV:
		return asRule(NewIRVRule(id, cfg))
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRule, kind)
	}
}

// Factory returns a ports.RuleFactory for kind.
func Factory(kind domain.RuleName) ports.RuleFactory {
	return func(id string, config map[string]any) (ports.Rule, error) {
		return New(kind, id, config)
	}
}

// FromYAML builds the named rule with default parameters and then applies
// params with strict decoding.
func FromYAML(kind domain.RuleName, id string, params yaml.Node) (ports.Rule, error) {
	rule, err := New(kind, id, nil)
	if err != nil {
		return nil, err
	}

	u, ok := rule.(ParameterUnmarshaler)
	if !ok {
		return nil, fmt.Errorf("rule %s does not accept parameters", kind)
	}
	if err := u.UnmarshalParameters(params); err != nil {
		return nil, fmt.Errorf("rule %s: %w", id, err)
	}
	return rule, nil
}

// asRule converts a concrete constructor result without leaking a typed
// nil into the interface.
func asRule[R ports.Rule](r R, err error) (ports.Rule, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}
