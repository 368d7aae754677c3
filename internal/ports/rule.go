// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
)

// Rule is one configured voting rule. A Rule is a pure function of the
// election it receives: it never modifies the election, keeps no state
// between calls, and is safe for concurrent use.
type Rule interface {
	// Name returns the configured identifier of this rule instance.
	// Two instances of the same Kind may carry different names when they
	// use different parameters.
	Name() string

	// Kind returns the built-in rule this instance implements.
	Kind() domain.RuleName

	// Tabulate applies the rule to the election and returns its Result.
	// A missing winner is reported through Result.Outcome, never as an
	// error. Errors are reserved for invalid configuration and context
	// cancellation.
	//
	// Example:
	//
	//	res, err := rule.Tabulate(ctx, election)
	//	if err != nil {
	//	    return fmt.Errorf("rule %s failed: %w", rule.Name(), err)
	//	}
	Tabulate(ctx context.Context, election *domain.Election) (domain.Result, error)

	// Validate checks that the rule is properly configured.
	// It is typically called once when the rule is constructed from
	// configuration.
	Validate() error
}

// RuleFactory builds a Rule from an identifier and a decoded parameter
// map. Factories validate the parameters and return a ready-to-use Rule.
type RuleFactory func(id string, config map[string]any) (Rule, error)

// RuleRegistry resolves rule names to factories. The set of names is
// closed; registries are populated from domain.AllRules.
type RuleRegistry interface {
	// CreateRule instantiates the named rule with the given parameters.
	// It returns an error wrapping domain.ErrUnknownRule for unknown names.
	CreateRule(kind domain.RuleName, id string, config map[string]any) (Rule, error)

	// SupportedRules lists every rule name the registry can build, in a
	// stable order.
	SupportedRules() []domain.RuleName
}
