// Package rules provides the built-in voting rules that implement
// the ports.Rule interface for the go-tally tabulation engine.
package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

// Common errors returned by rules.
var (
	// ErrEmptyRuleName is returned when attempting to create a rule with an empty name.
	ErrEmptyRuleName = errors.New("rule name cannot be empty")

	// ErrNilElection is returned when Tabulate is called without an election.
	ErrNilElection = errors.New("election cannot be nil")

	// ErrUnknownParameter is returned when a parameter map contains a key
	// the rule does not understand.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// BaseConfig defines the parameters shared by every rule.
// All fields are validated during rule creation and parameter unmarshaling.
type BaseConfig struct {
	// TieBreaker selects the policy used whenever candidates are tied.
	// Options: "lexicographic", "declaration", "priority".
	TieBreaker domain.TieBreaker `yaml:"tie_breaker" json:"tie_breaker" validate:"required,oneof=lexicographic declaration priority"`

	// Priority lists candidates from most to least preferred for the
	// "priority" tie breaker. Unlisted candidates follow, lexicographically.
	Priority []string `yaml:"priority,omitempty" json:"priority,omitempty" validate:"required_if=TieBreaker priority,dive,required"`
}

// DefaultBaseConfig returns a BaseConfig with lexicographic tie-breaking.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{TieBreaker: domain.TieLexicographic}
}

func (c BaseConfig) priority() []domain.Candidate {
	if len(c.Priority) == 0 {
		return nil
	}
	out := make([]domain.Candidate, len(c.Priority))
	for i, p := range c.Priority {
		out[i] = domain.Candidate(p)
	}
	return out
}

// baseConfigFromMap overlays a decoded parameter map on the defaults.
func baseConfigFromMap(config map[string]any) (BaseConfig, error) {
	cfg := DefaultBaseConfig()
	for key, val := range config {
		switch key {
		case "tie_breaker":
			s, ok := val.(string)
			if !ok {
				return cfg, fmt.Errorf("tie_breaker must be a string, got %T", val)
			}
			cfg.TieBreaker = domain.TieBreaker(s)
		case "priority":
			list, err := stringList(val)
			if err != nil {
				return cfg, fmt.Errorf("priority: %w", err)
			}
			cfg.Priority = list
		default:
			return cfg, fmt.Errorf("%w: %q", ErrUnknownParameter, key)
		}
	}
	return cfg, nil
}

func stringList(val any) ([]string, error) {
	switch v := val.(type) {
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a list of strings, got %T", val)
	}
}

// baseRule carries the identity and tie-break configuration every rule
// shares. Concrete rules embed it and implement Tabulate.
type baseRule struct {
	// name is the unique identifier for this rule instance.
	name string
	// kind is the built-in rule this instance implements.
	kind domain.RuleName
	// config contains the validated configuration parameters.
	config BaseConfig
}

func newBaseRule(name string, kind domain.RuleName, config BaseConfig) (baseRule, error) {
	if name == "" {
		return baseRule{}, ErrEmptyRuleName
	}

	if err := validate.Struct(config); err != nil {
		return baseRule{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return baseRule{name: name, kind: kind, config: config}, nil
}

// Name returns the unique identifier for this rule instance.
func (b *baseRule) Name() string { return b.name }

// Kind returns the built-in rule this instance implements.
func (b *baseRule) Kind() domain.RuleName { return b.kind }

// Config returns the rule's tie-break configuration.
func (b *baseRule) Config() BaseConfig { return b.config }

// Validate checks if the rule is properly configured.
func (b *baseRule) Validate() error {
	if b.name == "" {
		return ErrEmptyRuleName
	}
	if err := validate.Struct(b.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters into the
// rule's configuration struct with strict validation.
// Returns an error if YAML parsing fails or unknown fields are detected.
func (b *baseRule) UnmarshalParameters(params yaml.Node) error {
	config := DefaultBaseConfig()

	if err := decodeStrict(params, &config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}

	b.config = config
	return nil
}

// decodeStrict decodes a YAML node rejecting unknown fields. Node.Decode
// has no strict mode, so the node is re-encoded and read back through a
// Decoder with KnownFields enabled.
func decodeStrict(node yaml.Node, out any) error {
	if node.Kind == 0 {
		return nil
	}
	raw, err := yaml.Marshal(&node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// start checks the context, builds the tie-break policy and settles inputs
// that leave nothing to decide. When done is true, res is the final result.
func (b *baseRule) start(
	ctx context.Context,
	e *domain.Election,
) (p domain.TieBreakPolicy, res domain.Result, done bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Result{}, true, err
	}
	if e == nil {
		return nil, domain.Result{}, true, ErrNilElection
	}

	p, err = domain.NewTieBreakPolicy(b.config.TieBreaker, e, b.config.priority())
	if err != nil {
		return nil, domain.Result{}, true, fmt.Errorf("rule %s: %w", b.name, err)
	}

	switch {
	case e.NumCandidates() == 0:
		res = domain.DegenerateResult(b.kind, "election has no candidates")
	case e.NumCandidates() == 1:
		res = domain.WinnerResult(b.kind, e.Candidates()[0])
	case e.ContinuingWeight() == 0:
		res = domain.DegenerateResult(b.kind, "no ballot ranks any candidate")
	default:
		return p, domain.Result{}, false, nil
	}
	res.TieBreaker = p.Name()
	return p, res, true, nil
}

// choose builds a winner result from the candidates sharing the best
// score. More than one means the policy made the choice.
func (b *baseRule) choose(best []domain.Candidate, p domain.TieBreakPolicy) domain.Result {
	res := domain.WinnerResult(b.kind, domain.First(best, p))
	res.TieBreaker = p.Name()
	if len(best) > 1 {
		res.Tie = true
		res.Tied = domain.SortByPolicy(best, p)
	}
	return res
}

// noWinner builds a no-winner result stamped with the policy name.
func (b *baseRule) noWinner(p domain.TieBreakPolicy, reason string) domain.Result {
	res := domain.NoWinnerResult(b.kind, reason)
	res.TieBreaker = p.Name()
	return res
}

// highest returns the candidates with the maximum score, in input order.
func highest(candidates []domain.Candidate, score func(domain.Candidate) float64) []domain.Candidate {
	return extreme(candidates, score, func(a, b float64) bool { return a > b })
}

// lowest returns the candidates with the minimum score, in input order.
func lowest(candidates []domain.Candidate, score func(domain.Candidate) float64) []domain.Candidate {
	return extreme(candidates, score, func(a, b float64) bool { return a < b })
}

func extreme(
	candidates []domain.Candidate,
	score func(domain.Candidate) float64,
	better func(a, b float64) bool,
) []domain.Candidate {
	var (
		out  []domain.Candidate
		best float64
	)
	for i, c := range candidates {
		s := score(c)
		switch {
		case i == 0 || better(s, best):
			best = s
			out = append(out[:0], c)
		case s == best:
			out = append(out, c)
		}
	}
	return out
}

// tallyScore adapts a Tally for highest and lowest.
func tallyScore(t domain.Tally) func(domain.Candidate) float64 {
	return func(c domain.Candidate) float64 { return float64(t[c]) }
}

// restrictTally keeps only the given candidates.
func restrictTally(t domain.Tally, keep []domain.Candidate) domain.Tally {
	out := make(domain.Tally, len(keep))
	for _, c := range keep {
		out[c] = t[c]
	}
	return out
}
