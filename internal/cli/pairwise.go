package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/domain"
)

func newPairwiseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "pairwise <election-file>",
		Short: "Print the head-to-head preference matrix",
		Long: `Pairwise prints, for every ordered pair of candidates, the weight of
ballots preferring the row candidate to the column candidate. A candidate
is preferred when it is ranked and the other is ranked lower or not at all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unknown format %q", format)
			}
			e, err := application.NewElectionLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == formatJSON {
				return writePairwiseJSON(cmd.OutOrStdout(), e)
			}
			printPairwise(cmd.OutOrStdout(), e)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json")
	return cmd
}

type pairwiseJSON struct {
	Election        string             `json:"election"`
	Candidates      []domain.Candidate `json:"candidates"`
	Pairs           []pairJSON         `json:"pairs"`
	CondorcetWinner string             `json:"condorcet_winner,omitempty"`
}

type pairJSON struct {
	A     domain.Candidate `json:"a"`
	B     domain.Candidate `json:"b"`
	Count int64            `json:"count"`
}

func writePairwiseJSON(w io.Writer, e *domain.Election) error {
	t := e.Tournament()
	doc := pairwiseJSON{Election: e.Name(), Candidates: t.Candidates()}
	for _, p := range t.Pairs() {
		doc.Pairs = append(doc.Pairs, pairJSON{A: p.A, B: p.B, Count: p.Count})
	}
	if cw, ok := t.CondorcetWinner(); ok {
		doc.CondorcetWinner = string(cw)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printPairwise(w io.Writer, e *domain.Election) {
	t := e.Tournament()
	cands := t.Candidates()

	printTitle(w, "%s", e.Name())
	header := make([]string, 0, len(cands)+1)
	header = append(header, "")
	for _, c := range cands {
		header = append(header, string(c))
	}
	tbl := newTable(header...)

	for _, a := range cands {
		row := []string{string(a)}
		for _, b := range cands {
			switch {
			case a == b:
				row = append(row, StyleDim.Render("-"))
			case t.Beats(a, b):
				row = append(row, StyleSuccess.Render(strconv.FormatInt(t.Count(a, b), 10)))
			default:
				row = append(row, strconv.FormatInt(t.Count(a, b), 10))
			}
		}
		tbl.add(row...)
	}
	tbl.render(w)

	printNewline(w)
	if cw, ok := t.CondorcetWinner(); ok {
		printKeyValue(w, "condorcet", StyleSuccess.Render(string(cw)))
	} else {
		printKeyValue(w, "condorcet", StyleWarning.Render("none"))
	}
}
