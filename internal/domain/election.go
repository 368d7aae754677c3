package domain

import (
	"slices"
	"sync"
)

// Election is an immutable snapshot of a candidate set and its ballots.
// Rules receive an *Election and never modify it; rules that eliminate
// candidates work on elections derived with Restrict. An Election is safe
// for concurrent use by multiple rules.
type Election struct {
	name  string
	store *BallotStore

	tournamentOnce sync.Once
	tournament     *Tournament
}

// NewElection freezes a copy of store into an Election. Later changes to
// store do not affect the election.
func NewElection(name string, store *BallotStore) *Election {
	return &Election{name: name, store: store.clone()}
}

// BuildElection declares candidates and adds ballots in one step, returning
// the first DataIntegrityError encountered.
func BuildElection(name string, candidates []Candidate, ballots []Ballot) (*Election, error) {
	store, err := NewBallotStore(candidates)
	if err != nil {
		return nil, err
	}
	for _, b := range ballots {
		if err := store.Add(b.Ranking, b.Weight); err != nil {
			return nil, err
		}
	}
	return &Election{name: name, store: store}, nil
}

// Name returns the election label.
func (e *Election) Name() string { return e.name }

// Candidates returns the candidates in declaration order.
func (e *Election) Candidates() []Candidate { return e.store.Candidates() }

// NumCandidates returns C, the number of declared candidates.
func (e *Election) NumCandidates() int { return len(e.store.candidates) }

// HasCandidate reports whether c is declared in this election.
func (e *Election) HasCandidate(c Candidate) bool { return e.store.Contains(c) }

// TotalWeight returns the number of ballots cast.
func (e *Election) TotalWeight() int64 { return e.store.TotalWeight() }

// Ballots returns copies of the distinct weighted rankings.
func (e *Election) Ballots() []Ballot { return e.store.Ballots() }

// Restrict derives a new election over subset. See BallotStore.Restrict.
func (e *Election) Restrict(subset []Candidate) (*Election, error) {
	store, err := e.store.Restrict(subset)
	if err != nil {
		return nil, err
	}
	return &Election{name: e.name, store: store}, nil
}

// Without derives a new election with the given candidates removed.
func (e *Election) Without(eliminated ...Candidate) (*Election, error) {
	remaining := slices.DeleteFunc(e.Candidates(), func(c Candidate) bool {
		return slices.Contains(eliminated, c)
	})
	return e.Restrict(remaining)
}

// Tournament returns the pairwise tournament, computing it on first use.
// Concurrent callers share a single computation.
func (e *Election) Tournament() *Tournament {
	e.tournamentOnce.Do(func() {
		e.tournament = computeTournament(e.store)
	})
	return e.tournament
}

// MostCommonBallot returns the ranking with the largest weight. Equal
// weights are resolved by comparing first choices under p, then by first
// insertion. ok is false when there are no ballots.
func (e *Election) MostCommonBallot(p TieBreakPolicy) (Ranking, bool) {
	var (
		best  Ranking
		bestW int64
		found bool
	)
	e.store.each(func(r Ranking, w int64) {
		switch {
		case !found, w > bestW:
			best, bestW, found = r, w, true
		case w == bestW && len(r) > 0 && (len(best) == 0 || p.Less(r[0], best[0])):
			best = r
		}
	})
	return slices.Clone(best), found
}
