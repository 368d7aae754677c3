package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type runOptions struct {
	ruleOptions
	format    string
	agreement bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <election-file>",
		Short: "Apply voting rules to an election",
		Long: `Run loads an election file and applies the selected rules to it.

Rules are chosen with --rule or read from a tabulation config (--config).
Without either, every built-in rule runs with the given tie breaker.`,
		Example: `  tally run council.yaml
  tally run council.toml -r irv -r condorcet --tie-breaker declaration
  tally run council.yaml --config rules.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTabulation(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTable, "output format: table, json")
	cmd.Flags().BoolVar(&opts.agreement, "agreement", false, "report whether IRV elects the Condorcet winner")

	return cmd
}

// runOutput is the JSON document printed by run --format json.
type runOutput struct {
	Report            *application.Report    `json:"report"`
	Agreement         *application.Agreement `json:"agreement,omitempty"`
	MostCommonBallot  domain.Ranking         `json:"most_common_ballot,omitempty"`
	WinnerPositionIRV *int                   `json:"irv_winner_position,omitempty"`
}

func runTabulation(cmd *cobra.Command, path string, opts runOptions) error {
	if opts.format != formatTable && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	s, err := opts.newSession(ctx)
	if err != nil {
		return err
	}

	e, err := s.loader.Load(ctx, path)
	if err != nil {
		return err
	}
	logger.Debug("election loaded", "name", e.Name(), "candidates", e.NumCandidates(), "weight", e.TotalWeight())

	prog := newProgress(logger)
	report, tabErr := s.tabulator.TabulateAll(ctx, s.plan.Rules, e)
	if report == nil {
		return tabErr
	}
	prog.done(fmt.Sprintf("Tabulated %d rules", len(report.Entries)))

	out := runOutput{Report: report}
	if opts.agreement {
		if err := addAgreement(cmd, s, e, &out); err != nil {
			return err
		}
	}

	switch opts.format {
	case formatJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	default:
		printReport(cmd.OutOrStdout(), report)
		if out.Agreement != nil {
			printAgreement(cmd.OutOrStdout(), out)
		}
	}

	if err := s.flushMetrics(); err != nil {
		return err
	}
	return tabErr
}

func addAgreement(cmd *cobra.Command, s *session, e *domain.Election, out *runOutput) error {
	a, err := application.CondorcetAgreement(cmd.Context(), s.tabulator, e)
	if err != nil {
		return err
	}
	out.Agreement = &a

	p, err := s.policy(e)
	if err != nil {
		return err
	}
	if mcb, ok := e.MostCommonBallot(p); ok {
		out.MostCommonBallot = mcb
		if a.IRVWinner != nil {
			pos := mcb.Position(*a.IRVWinner)
			out.WinnerPositionIRV = &pos
		}
	}
	return nil
}

func printReport(w io.Writer, r *application.Report) {
	printTitle(w, "%s", r.Election)
	printKeyValue(w, "candidates", strconv.Itoa(len(r.Candidates)))
	printKeyValue(w, "ballots", strconv.FormatInt(r.TotalWeight, 10))
	printKeyValue(w, "report", r.ID)
	printNewline(w)

	t := newTable("RULE", "OUTCOME", "WINNER", "TIE", "ROUNDS", "DETAIL")
	for _, entry := range r.Entries {
		if entry.Error != "" {
			t.add(entry.RuleID, StyleError.Render(iconError+" error"), "-", "-", "-", entry.Error)
			continue
		}
		res := entry.Result
		t.add(
			entry.RuleID,
			outcomeCell(res.Outcome),
			string(res.WinnerOr("-")),
			tieCell(res),
			roundsCell(res),
			res.Reason,
		)
	}
	t.render(w)
}

func printAgreement(w io.Writer, out runOutput) {
	a := out.Agreement
	printNewline(w)
	printKeyValue(w, "irv winner", candidateOr(a.IRVWinner))
	printKeyValue(w, "condorcet", candidateOr(a.CondorcetWinner))
	if a.Agree {
		printKeyValue(w, "agreement", StyleSuccess.Render("yes"))
	} else {
		printKeyValue(w, "agreement", StyleWarning.Render("no"))
	}
	if len(out.MostCommonBallot) > 0 {
		printKeyValue(w, "most common", out.MostCommonBallot.String())
	}
	if out.WinnerPositionIRV != nil && *out.WinnerPositionIRV >= 0 {
		printInfo(w, "IRV winner is ranked %d on the most common ballot", *out.WinnerPositionIRV+1)
	}
}

func outcomeCell(o domain.Outcome) string {
	switch o {
	case domain.OutcomeWinner:
		return StyleSuccess.Render(iconSuccess + " " + string(o))
	case domain.OutcomeNoWinner:
		return StyleWarning.Render(iconWarning + " " + string(o))
	default:
		return StyleDim.Render(string(o))
	}
}

func tieCell(res domain.Result) string {
	if !res.Tie {
		return "-"
	}
	if len(res.Tied) == 0 {
		return StyleWarning.Render(string(res.TieBreaker))
	}
	tied := make([]string, len(res.Tied))
	for i, c := range res.Tied {
		tied[i] = string(c)
	}
	return StyleWarning.Render(fmt.Sprintf("%s (%s)", res.TieBreaker, strings.Join(tied, ",")))
}

func roundsCell(res domain.Result) string {
	if len(res.Rounds) == 0 {
		return "-"
	}
	return StyleNumber.Render(strconv.Itoa(len(res.Rounds)))
}

func candidateOr(c *domain.Candidate) string {
	if c == nil {
		return "-"
	}
	return string(*c)
}
