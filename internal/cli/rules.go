package cli

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/domain"
)

// ruleDescriptions is shown by the rules command.
var ruleDescriptions = map[domain.RuleName]string{
	domain.RulePlurality:         "most first preferences",
	domain.RuleMajority:          "first preferences above half the ballots",
	domain.RuleAntiPlurality:     "fewest last-place rankings",
	domain.RuleApprovalTopHalf:   "approve the top half of each ballot",
	domain.RuleApprovalAllRanked: "approve every ranked candidate",
	domain.RuleBorda:             "positional points, C-1 for first",
	domain.RuleBucklin:           "widen the count until someone has a majority",
	domain.RuleCondorcet:         "beats every other candidate head-to-head",
	domain.RuleBlack:             "Condorcet winner, else Borda",
	domain.RuleCopeland:          "most head-to-head wins minus losses",
	domain.RuleMinimax:           "smallest worst head-to-head defeat",
	domain.RuleRankedPairs:       "lock majorities strongest first, skip cycles",
	domain.RuleIRV:               "eliminate the weakest until a majority",
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the built-in voting rules",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			tbl := newTable("RULE", "DESCRIPTION")
			for _, kind := range application.NewDefaultRuleRegistry().SupportedRules() {
				tbl.add(StyleValue.Render(string(kind)), StyleDim.Render(ruleDescriptions[kind]))
			}
			tbl.render(w)
		},
	}
}
