package domain

import "slices"

// Pair is an ordered candidate pair (A, B) with A != B.
type Pair struct {
	A Candidate
	B Candidate
}

// PairCount is the weight of ballots preferring A to B.
type PairCount struct {
	Pair
	Count int64
}

// Tournament holds head-to-head preference counts for every ordered pair
// of candidates. A is preferred to B on a ballot when A is ranked and B is
// either unranked or ranked after A. Tournaments are read-only.
type Tournament struct {
	candidates []Candidate
	index      map[Candidate]int
	counts     [][]int64
}

// computeTournament records each ballot's rank positions once and then
// credits every ranked candidate against all candidates below or absent.
func computeTournament(s *BallotStore) *Tournament {
	n := len(s.candidates)
	counts := make([][]int64, n)
	for i := range counts {
		counts[i] = make([]int64, n)
	}

	pos := make([]int, n)
	s.each(func(r Ranking, w int64) {
		for i := range pos {
			pos[i] = -1
		}
		for i, c := range r {
			pos[s.index[c]] = i
		}
		for i, c := range r {
			a := s.index[c]
			for b := 0; b < n; b++ {
				if b != a && (pos[b] < 0 || pos[b] > i) {
					counts[a][b] += w
				}
			}
		}
	})

	index := make(map[Candidate]int, n)
	for c, i := range s.index {
		index[c] = i
	}
	return &Tournament{
		candidates: slices.Clone(s.candidates),
		index:      index,
		counts:     counts,
	}
}

// Candidates returns the candidates covered by the tournament.
func (t *Tournament) Candidates() []Candidate { return slices.Clone(t.candidates) }

// Count returns the weight of ballots preferring a to b. Unknown candidates
// and a == b yield 0.
func (t *Tournament) Count(a, b Candidate) int64 {
	i, okA := t.index[a]
	j, okB := t.index[b]
	if !okA || !okB {
		return 0
	}
	return t.counts[i][j]
}

// Margin returns Count(a, b) - Count(b, a).
func (t *Tournament) Margin(a, b Candidate) int64 { return t.Count(a, b) - t.Count(b, a) }

// Beats reports whether a strictly beats b head-to-head.
func (t *Tournament) Beats(a, b Candidate) bool { return t.Margin(a, b) > 0 }

// Pairs returns every ordered pair in declaration order of A, then B.
func (t *Tournament) Pairs() []PairCount {
	n := len(t.candidates)
	out := make([]PairCount, 0, n*(n-1))
	for i, a := range t.candidates {
		for j, b := range t.candidates {
			if i == j {
				continue
			}
			out = append(out, PairCount{Pair: Pair{A: a, B: b}, Count: t.counts[i][j]})
		}
	}
	return out
}

// AsMap returns the tournament as a pair-keyed map.
func (t *Tournament) AsMap() map[Pair]int64 {
	pairs := t.Pairs()
	out := make(map[Pair]int64, len(pairs))
	for _, p := range pairs {
		out[p.Pair] = p.Count
	}
	return out
}

// CondorcetWinner returns the candidate that strictly beats every other
// candidate. A single candidate wins vacuously. ok is false when no such
// candidate exists.
func (t *Tournament) CondorcetWinner() (Candidate, bool) {
	for i, a := range t.candidates {
		wins := true
		for j := range t.candidates {
			if i != j && t.counts[i][j] <= t.counts[j][i] {
				wins = false
				break
			}
		}
		if wins {
			return a, true
		}
	}
	return "", false
}
