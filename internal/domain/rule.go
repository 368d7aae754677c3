package domain

import "fmt"

// RuleName identifies one of the built-in voting rules. The set is closed:
// every value is listed in AllRules and handled by the rule factory.
type RuleName string

// Built-in voting rules.
const (
	RulePlurality         RuleName = "plurality"
	RuleMajority          RuleName = "majority"
	RuleAntiPlurality     RuleName = "anti_plurality"
	RuleApprovalTopHalf   RuleName = "approval_top_half"
	RuleApprovalAllRanked RuleName = "approval_all_ranked"
	RuleBorda             RuleName = "borda"
	RuleBucklin           RuleName = "bucklin"
	RuleCondorcet         RuleName = "condorcet"
	RuleBlack             RuleName = "black"
	RuleCopeland          RuleName = "copeland"
	RuleMinimax           RuleName = "minimax"
	RuleRankedPairs       RuleName = "ranked_pairs"
	RuleIRV               RuleName = "irv"
)

var allRules = []RuleName{
	RulePlurality,
	RuleMajority,
	RuleAntiPlurality,
	RuleApprovalTopHalf,
	RuleApprovalAllRanked,
	RuleBorda,
	RuleBucklin,
	RuleCondorcet,
	RuleBlack,
	RuleCopeland,
	RuleMinimax,
	RuleRankedPairs,
	RuleIRV,
}

// AllRules returns every built-in rule in a stable order.
func AllRules() []RuleName {
	out := make([]RuleName, len(allRules))
	copy(out, allRules)
	return out
}

// Valid reports whether r names a built-in rule.
func (r RuleName) Valid() bool {
	for _, known := range allRules {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRuleName converts s to a RuleName, failing with ErrUnknownRule.
func ParseRuleName(s string) (RuleName, error) {
	r := RuleName(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, s)
	}
	return r, nil
}

// String implements fmt.Stringer.
func (r RuleName) String() string { return string(r) }
