// Package domain contains pure, dependency-free domain models and types
// for the tabulation engine.
package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Candidate is an opaque candidate identifier. Candidates are unique within
// an election.
type Candidate string

// Ranking is one voter's ordered preference list, most preferred first.
// A Ranking may be empty or truncated; unlisted candidates are unranked,
// not ranked last.
type Ranking []Candidate

// rankingSep separates candidates in a ranking key. Candidate names may not
// contain it.
const rankingSep = "\x00"

// key returns the map key identifying this ranking.
func (r Ranking) key() string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = string(c)
	}
	return strings.Join(parts, rankingSep)
}

// Position returns the zero-based position of c in the ranking, or -1 if c
// is unranked.
func (r Ranking) Position(c Candidate) int { return slices.Index(r, c) }

// String renders the ranking as "A > B > C".
func (r Ranking) String() string {
	if len(r) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = string(c)
	}
	return strings.Join(parts, " > ")
}

// Ballot is a distinct ranking together with the number of voters who cast
// exactly that ranking.
type Ballot struct {
	// Ranking is the ordered preference list shared by all these voters.
	Ranking Ranking `json:"ranking" yaml:"ranking"`

	// Weight counts the voters who cast this ranking. It is always >= 1.
	Weight int64 `json:"weight" yaml:"weight"`
}

// BallotStore is the weighted collection of distinct rankings cast over a
// declared candidate set. Identical rankings are never split: adding the
// same ranking twice accumulates its weight.
//
// A BallotStore is filled with Add and then handed to NewElection, which
// takes a private copy. It is not safe for concurrent mutation.
type BallotStore struct {
	candidates []Candidate
	index      map[Candidate]int
	entries    map[string]*Ballot
	// order records first insertion so iteration is deterministic.
	order []string
	total int64
}

// NewBallotStore creates an empty store over the given candidate set. It
// returns a DataIntegrityError if a candidate name is empty, contains a NUL
// byte, or is declared twice.
func NewBallotStore(candidates []Candidate) (*BallotStore, error) {
	index := make(map[Candidate]int, len(candidates))
	for i, c := range candidates {
		if c == "" {
			return nil, NewDataIntegrityError(c, nil, "candidate name cannot be empty")
		}
		if strings.Contains(string(c), rankingSep) {
			return nil, NewDataIntegrityError(c, nil, "candidate name contains a NUL byte")
		}
		if _, dup := index[c]; dup {
			return nil, NewDataIntegrityError(c, nil, "duplicate candidate")
		}
		index[c] = i
	}

	return &BallotStore{
		candidates: slices.Clone(candidates),
		index:      index,
		entries:    make(map[string]*Ballot),
	}, nil
}

// Add records weight voters casting ranking. It fails with a
// DataIntegrityError if the weight is not positive, if the total would
// exceed MaxTotalWeight, if the ranking names a candidate outside the
// declared set, or if a candidate appears twice.
func (s *BallotStore) Add(ranking Ranking, weight int64) error {
	if weight < 1 {
		return NewDataIntegrityError("", ranking, fmt.Sprintf("weight must be >= 1, got %d", weight))
	}
	if limit := s.MaxTotalWeight(); weight > limit-s.total {
		return NewDataIntegrityError("", ranking,
			fmt.Sprintf("total weight would exceed %d", limit))
	}

	seen := make(map[Candidate]struct{}, len(ranking))
	for _, c := range ranking {
		if _, ok := s.index[c]; !ok {
			return NewDataIntegrityError(c, ranking, "unknown candidate")
		}
		if _, dup := seen[c]; dup {
			return NewDataIntegrityError(c, ranking, "candidate ranked more than once")
		}
		seen[c] = struct{}{}
	}

	s.add(ranking, weight)
	return nil
}

// add merges a ranking that is already known to be valid.
func (s *BallotStore) add(ranking Ranking, weight int64) {
	k := ranking.key()
	if b, ok := s.entries[k]; ok {
		b.Weight += weight
	} else {
		s.entries[k] = &Ballot{Ranking: slices.Clone(ranking), Weight: weight}
		s.order = append(s.order, k)
	}
	s.total += weight
}

// MaxTotalWeight is the largest total the store accepts. It keeps doubled
// tallies and Borda scores, which reach total times (candidates-1), within
// int64.
func (s *BallotStore) MaxTotalWeight() int64 {
	return math.MaxInt64 / int64(max(2, len(s.candidates)))
}

// TotalWeight returns the number of ballots cast, empty ballots included.
func (s *BallotStore) TotalWeight() int64 { return s.total }

// Len returns the number of distinct rankings.
func (s *BallotStore) Len() int { return len(s.order) }

// Candidates returns a copy of the declared candidates in declaration order.
func (s *BallotStore) Candidates() []Candidate { return slices.Clone(s.candidates) }

// Contains reports whether c is a declared candidate.
func (s *BallotStore) Contains(c Candidate) bool {
	_, ok := s.index[c]
	return ok
}

// Weight returns the weight recorded for exactly this ranking, or 0.
func (s *BallotStore) Weight(ranking Ranking) int64 {
	if b, ok := s.entries[ranking.key()]; ok {
		return b.Weight
	}
	return 0
}

// Ballots returns copies of the stored ballots in first-insertion order.
func (s *BallotStore) Ballots() []Ballot {
	out := make([]Ballot, 0, len(s.order))
	for _, k := range s.order {
		b := s.entries[k]
		out = append(out, Ballot{Ranking: slices.Clone(b.Ranking), Weight: b.Weight})
	}
	return out
}

// each calls fn for every stored ballot without copying. fn must not retain
// or modify the ranking.
func (s *BallotStore) each(fn func(r Ranking, weight int64)) {
	for _, k := range s.order {
		b := s.entries[k]
		fn(b.Ranking, b.Weight)
	}
}

// Restrict returns a new store over subset whose rankings keep only the
// candidates in subset, in their original relative order. Rankings that
// become identical are merged and the total weight never changes. The
// subset keeps the store's declaration order; naming a candidate outside
// the store fails with a DataIntegrityError.
func (s *BallotStore) Restrict(subset []Candidate) (*BallotStore, error) {
	keep := make(map[Candidate]struct{}, len(subset))
	for _, c := range subset {
		if _, ok := s.index[c]; !ok {
			return nil, NewDataIntegrityError(c, nil, "restrict to unknown candidate")
		}
		keep[c] = struct{}{}
	}

	candidates := make([]Candidate, 0, len(keep))
	for _, c := range s.candidates {
		if _, ok := keep[c]; ok {
			candidates = append(candidates, c)
		}
	}

	out, err := NewBallotStore(candidates)
	if err != nil {
		return nil, err
	}

	s.each(func(r Ranking, w int64) {
		filtered := make(Ranking, 0, len(r))
		for _, c := range r {
			if _, ok := keep[c]; ok {
				filtered = append(filtered, c)
			}
		}
		out.add(filtered, w)
	})

	return out, nil
}

// clone returns a deep copy of the store.
func (s *BallotStore) clone() *BallotStore {
	out, _ := NewBallotStore(s.candidates)
	s.each(func(r Ranking, w int64) { out.add(r, w) })
	return out
}
