package domain

import (
	"fmt"
	"slices"
)

// TieBreaker names a tie-breaking strategy.
type TieBreaker string

// Supported tie-breaking strategies.
const (
	// TieLexicographic prefers the candidate whose identifier sorts first.
	TieLexicographic TieBreaker = "lexicographic"

	// TieDeclaration prefers the candidate declared first in the election.
	TieDeclaration TieBreaker = "declaration"

	// TiePriority prefers candidates by an explicit caller-supplied list.
	// Unlisted candidates come after listed ones, lexicographically.
	TiePriority TieBreaker = "priority"
)

// TieBreakPolicy is a deterministic strict ordering over candidates used
// whenever a rule must pick among equally scored candidates. Winning ties
// go to the first candidate in the ordering; elimination ties remove the
// last one.
type TieBreakPolicy interface {
	// Name identifies the policy in results and logs.
	Name() TieBreaker

	// Less reports whether a is preferred to b when they are tied.
	// It must be a strict total order over the election's candidates.
	Less(a, b Candidate) bool
}

// Lexicographic orders candidates by identifier.
type Lexicographic struct{}

// Name implements TieBreakPolicy.
func (Lexicographic) Name() TieBreaker { return TieLexicographic }

// Less implements TieBreakPolicy.
func (Lexicographic) Less(a, b Candidate) bool { return a < b }

// rankedPolicy orders candidates by an explicit rank table, falling back to
// lexicographic order for candidates the table does not mention.
type rankedPolicy struct {
	name TieBreaker
	rank map[Candidate]int
}

func newRankedPolicy(name TieBreaker, order []Candidate) rankedPolicy {
	rank := make(map[Candidate]int, len(order))
	for i, c := range order {
		if _, ok := rank[c]; !ok {
			rank[c] = i
		}
	}
	return rankedPolicy{name: name, rank: rank}
}

func (p rankedPolicy) Name() TieBreaker { return p.name }

func (p rankedPolicy) Less(a, b Candidate) bool {
	ra, okA := p.rank[a]
	rb, okB := p.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// DeclarationOrder prefers candidates in the order they were declared.
func DeclarationOrder(candidates []Candidate) TieBreakPolicy {
	return newRankedPolicy(TieDeclaration, candidates)
}

// PriorityOrder prefers candidates in the given order.
func PriorityOrder(priority []Candidate) TieBreakPolicy {
	return newRankedPolicy(TiePriority, priority)
}

// NewTieBreakPolicy builds the named policy for an election.
func NewTieBreakPolicy(name TieBreaker, e *Election, priority []Candidate) (TieBreakPolicy, error) {
	switch name {
	case TieLexicographic, "":
		return Lexicographic{}, nil
	case TieDeclaration:
		return DeclarationOrder(e.Candidates()), nil
	case TiePriority:
		if len(priority) == 0 {
			return nil, fmt.Errorf("%w: priority tie breaker requires a priority list", ErrInvalidConfiguration)
		}
		return PriorityOrder(priority), nil
	default:
		return nil, fmt.Errorf("%w: unknown tie breaker %q", ErrInvalidConfiguration, name)
	}
}

// SortByPolicy returns a copy of candidates sorted from most to least
// preferred under p.
func SortByPolicy(candidates []Candidate, p TieBreakPolicy) []Candidate {
	out := slices.Clone(candidates)
	slices.SortFunc(out, func(a, b Candidate) int {
		switch {
		case p.Less(a, b):
			return -1
		case p.Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// First returns the candidate p prefers most. candidates must not be empty.
func First(candidates []Candidate, p TieBreakPolicy) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if p.Less(c, best) {
			best = c
		}
	}
	return best
}

// Last returns the candidate p prefers least. candidates must not be empty.
func Last(candidates []Candidate, p TieBreakPolicy) Candidate {
	worst := candidates[0]
	for _, c := range candidates[1:] {
		if p.Less(worst, c) {
			worst = c
		}
	}
	return worst
}
