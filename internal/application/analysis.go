package application

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// TopCandidates returns the n candidates with the most first preferences,
// strongest first. Equal counts are ordered by p. When n is at least the
// number of candidates every candidate is returned.
func TopCandidates(e *domain.Election, n int, p domain.TieBreakPolicy) ([]domain.Candidate, error) {
	if e == nil {
		return nil, fmt.Errorf("top candidates: %w", domain.ErrEmptyValue)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: top_n must be >= 1, got %d", domain.ErrInvalidConfiguration, n)
	}

	first := e.FirstPreferences()
	ordered := domain.SortByPolicy(e.Candidates(), p)
	slices.SortStableFunc(ordered, func(a, b domain.Candidate) int {
		return cmp.Compare(first[b], first[a])
	})

	if n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n], nil
}

// SweepEntry is the report for one top-N restriction.
type SweepEntry struct {
	N          int                `json:"n"`
	Candidates []domain.Candidate `json:"candidates"`
	Report     *Report            `json:"report"`
}

// SweepCounts returns the candidate counts Sweep uses by default: every n
// from 2 to C-1.
func SweepCounts(e *domain.Election) []int {
	var ns []int
	for n := 2; n < e.NumCandidates(); n++ {
		ns = append(ns, n)
	}
	return ns
}

// Sweep restricts e to its top n candidates for each n in ns and runs rs
// on every restricted election. An empty ns selects SweepCounts.
func Sweep(
	ctx context.Context,
	t *Tabulator,
	rs []ports.Rule,
	e *domain.Election,
	ns []int,
	p domain.TieBreakPolicy,
) ([]SweepEntry, error) {
	if e == nil {
		return nil, fmt.Errorf("sweep: %w", domain.ErrEmptyValue)
	}
	if len(ns) == 0 {
		ns = SweepCounts(e)
	}

	out := make([]SweepEntry, 0, len(ns))
	for _, n := range ns {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		top, err := TopCandidates(e, n, p)
		if err != nil {
			return out, err
		}
		restricted, err := e.Restrict(top)
		if err != nil {
			return out, fmt.Errorf("top %d: %w", n, err)
		}

		report, err := t.TabulateAll(ctx, rs, restricted)
		out = append(out, SweepEntry{N: n, Candidates: top, Report: report})
		if err != nil {
			return out, fmt.Errorf("top %d: %w", n, err)
		}
	}
	return out, nil
}

// Agreement compares the IRV winner with the Condorcet winner.
type Agreement struct {
	IRVWinner       *domain.Candidate `json:"irv_winner,omitempty"`
	CondorcetWinner *domain.Candidate `json:"condorcet_winner,omitempty"`
	// Agree is true only when both winners exist and are the same.
	Agree bool `json:"agree"`
}

// CondorcetAgreement reports whether IRV elects the Condorcet winner.
func CondorcetAgreement(ctx context.Context, t *Tabulator, e *domain.Election) (Agreement, error) {
	res, err := t.Tabulate(ctx, domain.RuleIRV, e)
	if err != nil {
		return Agreement{}, err
	}

	var a Agreement
	if res.HasWinner() {
		w := *res.Winner
		a.IRVWinner = &w
	}
	if cw, ok := e.Tournament().CondorcetWinner(); ok {
		a.CondorcetWinner = &cw
	}
	a.Agree = a.IRVWinner != nil && a.CondorcetWinner != nil && *a.IRVWinner == *a.CondorcetWinner
	return a, nil
}

// WinnerPosition returns the index of res's winner in the most common
// ballot, or -1 when there is no winner, no ballot, or the winner is not
// ranked on it.
func WinnerPosition(e *domain.Election, res domain.Result, p domain.TieBreakPolicy) int {
	if e == nil || !res.HasWinner() {
		return -1
	}
	mcb, ok := e.MostCommonBallot(p)
	if !ok {
		return -1
	}
	return mcb.Position(*res.Winner)
}
