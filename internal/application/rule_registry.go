package application

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/infrastructure/rules"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.RuleRegistry = (*DefaultRuleRegistry)(nil)

// DefaultRuleRegistry implements the RuleRegistry interface for the closed
// set of built-in rules. Every name in domain.AllRules has a factory; no
// other name can be registered.
type DefaultRuleRegistry struct {
	// factories maps rule names to their factory functions.
	factories map[domain.RuleName]ports.RuleFactory
	// mu protects concurrent access to the factories map and metrics.
	mu sync.RWMutex
	// metrics, when set, causes every created rule to be wrapped in a
	// traced decorator that reports to it.
	metrics ports.MetricsCollector
}

// NewDefaultRuleRegistry creates a registry with a factory for every
// built-in rule.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	registry := &DefaultRuleRegistry{
		factories: make(map[domain.RuleName]ports.RuleFactory),
	}
	registry.registerBuiltinFactories()
	return registry
}

func (r *DefaultRuleRegistry) registerBuiltinFactories() {
	for _, kind := range domain.AllRules() {
		r.factories[kind] = rules.Factory(kind)
	}
}

// CreateRule creates a new rule instance of the given kind.
// Unknown kinds fail with domain.ErrUnknownRule. An empty id defaults to
// the rule name.
func (r *DefaultRuleRegistry) CreateRule(
	kind domain.RuleName,
	id string,
	config map[string]any,
) (ports.Rule, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	metrics := r.metrics
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRule, kind)
	}

	if id == "" {
		id = string(kind)
	}

	rule, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule %s of type %s: %w", id, kind, err)
	}

	if metrics != nil {
		return middleware.NewTracedRule(rule, metrics), nil
	}
	return rule, nil
}

// SupportedRules returns every rule name the registry can build in the
// order of domain.AllRules.
func (r *DefaultRuleRegistry) SupportedRules() []domain.RuleName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RuleName, 0, len(r.factories))
	for _, kind := range domain.AllRules() {
		if _, ok := r.factories[kind]; ok {
			out = append(out, kind)
		}
	}
	return out
}

// SetMetricsCollector enables tracing and metrics on rules created after
// the call. A nil collector disables them.
func (r *DefaultRuleRegistry) SetMetricsCollector(metrics ports.MetricsCollector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics = metrics
}
