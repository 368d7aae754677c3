package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
)

type sweepOptions struct {
	ruleOptions
	topN   []int
	format string
}

func newSweepCmd() *cobra.Command {
	var opts sweepOptions

	cmd := &cobra.Command{
		Use:   "sweep <election-file>",
		Short: "Re-run rules on the top-N candidates",
		Long: `Sweep restricts the election to the N candidates with the most first
preferences and applies the rules to each restricted election. N defaults
to the config's top_n list, or to every value from 2 to C-1.`,
		Example: `  tally sweep council.yaml -r irv -r condorcet
  tally sweep council.yaml --top 2 --top 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntSliceVar(&opts.topN, "top", nil, "candidate counts to sweep (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTable, "output format: table, json")

	return cmd
}

func runSweep(cmd *cobra.Command, path string, opts sweepOptions) error {
	if opts.format != formatTable && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	ctx := cmd.Context()
	s, err := opts.newSession(ctx)
	if err != nil {
		return err
	}

	e, err := s.loader.Load(ctx, path)
	if err != nil {
		return err
	}
	p, err := s.policy(e)
	if err != nil {
		return err
	}

	ns := opts.topN
	if len(ns) == 0 {
		ns = s.plan.Config.TopN
	}
	for _, n := range ns {
		if n < 2 {
			return fmt.Errorf("--top values must be >= 2, got %d", n)
		}
	}

	prog := newProgress(loggerFromContext(ctx))
	entries, sweepErr := application.Sweep(ctx, s.tabulator, s.plan.Rules, e, ns, p)
	if len(entries) == 0 && sweepErr != nil {
		return sweepErr
	}
	prog.done(fmt.Sprintf("Swept %d restrictions", len(entries)))

	if opts.format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode sweep: %w", err)
		}
	} else {
		printSweep(cmd.OutOrStdout(), e.Name(), entries)
	}

	return errors.Join(sweepErr, s.flushMetrics())
}

// printSweep prints one row per restriction with a column per rule.
func printSweep(w io.Writer, election string, entries []application.SweepEntry) {
	printTitle(w, "%s", election)
	if len(entries) == 0 {
		printInfo(w, "nothing to sweep: the election has fewer than three candidates")
		return
	}

	header := []string{"N", "CANDIDATES"}
	for _, e := range entries[0].Report.Entries {
		header = append(header, strings.ToUpper(e.RuleID))
	}
	tbl := newTable(header...)

	for _, se := range entries {
		names := make([]string, len(se.Candidates))
		for i, c := range se.Candidates {
			names[i] = string(c)
		}
		row := []string{fmt.Sprint(se.N), strings.Join(names, ",")}
		for _, re := range se.Report.Entries {
			switch {
			case re.Error != "":
				row = append(row, StyleError.Render(iconError))
			case re.Result.Tie:
				row = append(row, StyleWarning.Render(string(re.Result.WinnerOr("-"))+"*"))
			default:
				row = append(row, string(re.Result.WinnerOr("-")))
			}
		}
		tbl.add(row...)
	}
	tbl.render(w)
	printNewline(w)
	printInfo(w, "* decided by tie breaker")
}
