package rules

import (
	"context"
	"fmt"
	"slices"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Rule = (*RankedPairsRule)(nil)

// RankedPairsRule locks head-to-head results from the strongest margin to
// the weakest, skipping any result that would contradict the ones already
// locked. The winner is the candidate the final lock graph places ahead of
// everyone else.
//
// The result is flagged as a tie when the winner depends on the policy:
// locking every equal-margin group in reverse policy order elects someone
// else.
type RankedPairsRule struct {
	baseRule
}

// NewRankedPairsRule creates a Ranked Pairs rule.
func NewRankedPairsRule(name string, config BaseConfig) (*RankedPairsRule, error) {
	base, err := newBaseRule(name, domain.RuleRankedPairs, config)
	if err != nil {
		return nil, err
	}
	return &RankedPairsRule{baseRule: base}, nil
}

// weightedPair is a pair considered for locking.
type weightedPair struct {
	domain.Pair
	Margin int64
}

// lockOrder returns every pair with a non-negative margin, strongest first.
// Equal margins are ordered by the policy on A, then on B. Zero margins
// appear in both directions.
func lockOrder(t *domain.Tournament, p domain.TieBreakPolicy) []weightedPair {
	var pairs []weightedPair
	for _, pc := range t.Pairs() {
		if m := t.Margin(pc.A, pc.B); m >= 0 {
			pairs = append(pairs, weightedPair{Pair: pc.Pair, Margin: m})
		}
	}

	slices.SortStableFunc(pairs, func(x, y weightedPair) int {
		switch {
		case x.Margin != y.Margin:
			if x.Margin > y.Margin {
				return -1
			}
			return 1
		case x.A != y.A:
			return policyCompare(p, x.A, y.A)
		default:
			return policyCompare(p, x.B, y.B)
		}
	})
	return pairs
}

func policyCompare(p domain.TieBreakPolicy, a, b domain.Candidate) int {
	switch {
	case p.Less(a, b):
		return -1
	case p.Less(b, a):
		return 1
	default:
		return 0
	}
}

// Tabulate builds the lock graph and reads off its source.
func (r *RankedPairsRule) Tabulate(ctx context.Context, e *domain.Election) (domain.Result, error) {
	p, res, done, err := r.start(ctx, e)
	if done {
		return res, err
	}

	order := lockOrder(e.Tournament(), p)
	graph, err := lockPairs(e.Candidates(), order)
	if err != nil {
		return domain.Result{}, fmt.Errorf("rule %s: %w", r.name, err)
	}

	scores := make(map[domain.Candidate]float64, e.NumCandidates())
	for _, c := range e.Candidates() {
		scores[c] = float64(graph.OutDegree(c))
	}

	sources := graph.Sources()
	if len(sources) != 1 {
		res = r.noWinner(p, fmt.Sprintf("lock graph has %d candidates ahead of all others", len(sources)))
		res.Scores = scores
		return res, nil
	}
	winner := sources[0]

	alt, err := lockPairs(e.Candidates(), reverseGroups(order))
	if err != nil {
		return domain.Result{}, fmt.Errorf("rule %s: %w", r.name, err)
	}
	altSources := alt.Sources()

	res = r.choose([]domain.Candidate{winner}, p)
	res.Tie = len(altSources) != 1 || altSources[0] != winner
	res.Scores = scores
	return res, nil
}

// reverseGroups returns a copy of pairs with every run of equal margins in
// reverse order.
func reverseGroups(pairs []weightedPair) []weightedPair {
	out := slices.Clone(pairs)
	for start := 0; start < len(out); {
		end := start
		for end < len(out) && out[end].Margin == out[start].Margin {
			end++
		}
		slices.Reverse(out[start:end])
		start = end
	}
	return out
}

// lockPairs locks pairs in order, skipping any pair whose target already
// reaches its source.
func lockPairs(candidates []domain.Candidate, pairs []weightedPair) (*domain.LockGraph, error) {
	graph := domain.NewLockGraph(candidates)
	for _, pr := range pairs {
		if _, err := graph.Lock(pr.A, pr.B, pr.Margin); err != nil {
			return nil, err
		}
	}
	return graph, nil
}
