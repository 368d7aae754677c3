package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/infrastructure/rules"
	"github.com/ahrav/go-tally/internal/domain"
)

// ValidateRuleParameters checks that params are acceptable for the named
// rule by building a throwaway instance with strict decoding. Unknown keys
// and invalid policy settings are rejected.
func ValidateRuleParameters(kind domain.RuleName, params yaml.Node) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownRule, kind)
	}
	if _, err := rules.FromYAML(kind, string(kind), params); err != nil {
		return fmt.Errorf("invalid parameters for %s: %w", kind, err)
	}
	return nil
}

// registerCustomValidators registers the semver, rulename, and tiebreaker
// tags plus struct-level parameter validation for RuleConfig.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("rulename", validateRuleName); err != nil {
		return fmt.Errorf("failed to register rulename validator: %w", err)
	}
	if err := v.RegisterValidation("tiebreaker", validateTieBreaker); err != nil {
		return fmt.Errorf("failed to register tiebreaker validator: %w", err)
	}
	v.RegisterStructValidation(validateRuleConfig, RuleConfig{})
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateRuleName accepts only built-in rule names.
func validateRuleName(fl validator.FieldLevel) bool {
	return domain.RuleName(fl.Field().String()).Valid()
}

// validateTieBreaker accepts only supported tie-break policy names.
func validateTieBreaker(fl validator.FieldLevel) bool {
	switch domain.TieBreaker(fl.Field().String()) {
	case domain.TieLexicographic, domain.TieDeclaration, domain.TiePriority:
		return true
	default:
		return false
	}
}

// validateRuleConfig decodes the rule's parameters against its type so a
// typo in a parameter name fails at load time.
func validateRuleConfig(sl validator.StructLevel) {
	rc := sl.Current().Interface().(RuleConfig)
	kind := domain.RuleName(rc.Type)
	if !kind.Valid() {
		// Reported by the rulename tag.
		return
	}
	if err := ValidateRuleParameters(kind, rc.Parameters); err != nil {
		sl.ReportError(rc.Parameters, "Parameters", "parameters", "ruleparams", err.Error())
	}
}
