package application

import (
	"gopkg.in/yaml.v3"
)

// TabulationConfig defines which rules to run and how ties are broken. It
// is the entry point for running several rules against an election from a
// YAML file.
type TabulationConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// TieBreaker is the default policy for every rule that does not set
	// its own. Empty means lexicographic.
	TieBreaker string `yaml:"tie_breaker" validate:"omitempty,tiebreaker"`
	// Priority is the explicit candidate order used with the priority
	// policy.
	Priority []string `yaml:"priority" validate:"required_if=TieBreaker priority,dive,required"`
	// Concurrency caps how many rules run at once. Zero selects the
	// default.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=1024"`
	// Rules lists the rules to run, in report order.
	Rules []RuleConfig `yaml:"rules" validate:"required,min=1,dive"`
	// TopN lists candidate counts for a top-N sweep. Each entry restricts
	// the election to that many leading candidates before re-running the
	// rules.
	TopN []int `yaml:"top_n" validate:"dive,min=2"`
}

// RuleConfig configures a single rule instance.
type RuleConfig struct {
	// ID is the unique name of this rule instance within the config.
	ID string `yaml:"id" validate:"required,min=1,max=100"`
	// Type is the built-in rule to instantiate.
	Type string `yaml:"type" validate:"required,rulename"`
	// Parameters holds rule-specific settings such as tie_breaker,
	// priority, or metric for minimax.
	Parameters yaml.Node `yaml:"parameters"`
}
