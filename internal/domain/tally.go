package domain

// Tally maps each candidate to a weighted count. Every candidate of the
// election is present, zero counts included.
type Tally map[Candidate]int64

func newTally(candidates []Candidate) Tally {
	t := make(Tally, len(candidates))
	for _, c := range candidates {
		t[c] = 0
	}
	return t
}

// Clone returns a copy of the tally.
func (t Tally) Clone() Tally {
	out := make(Tally, len(t))
	for c, v := range t {
		out[c] = v
	}
	return out
}

// Sum returns the total of all counts.
func (t Tally) Sum() int64 {
	var sum int64
	for _, v := range t {
		sum += v
	}
	return sum
}

// FirstPreferences returns each candidate's first-place weight.
func (e *Election) FirstPreferences() Tally {
	t := newTally(e.store.candidates)
	e.store.each(func(r Ranking, w int64) {
		if len(r) > 0 {
			t[r[0]] += w
		}
	})
	return t
}

// ContinuingWeight returns the weight of ballots that rank at least one
// candidate.
func (e *Election) ContinuingWeight() int64 {
	var sum int64
	e.store.each(func(r Ranking, w int64) {
		if len(r) > 0 {
			sum += w
		}
	})
	return sum
}

// PositionCounts returns, for each zero-based rank position below C, the
// weight of ballots naming each candidate at that position.
func (e *Election) PositionCounts() []Tally {
	out := make([]Tally, len(e.store.candidates))
	for i := range out {
		out[i] = newTally(e.store.candidates)
	}
	e.store.each(func(r Ranking, w int64) {
		for i, c := range r {
			out[i][c] += w
		}
	})
	return out
}

// CumulativeCounts returns each candidate's weight of appearances at rank
// positions < depth.
func (e *Election) CumulativeCounts(depth int) Tally {
	t := newTally(e.store.candidates)
	e.store.each(func(r Ranking, w int64) {
		for i, c := range r {
			if i >= depth {
				break
			}
			t[c] += w
		}
	})
	return t
}

// BordaScores credits each ranked candidate with weight times the number of
// candidates ranked below it on the ballot. Unranked candidates earn nothing.
func (e *Election) BordaScores() Tally {
	t := newTally(e.store.candidates)
	e.store.each(func(r Ranking, w int64) {
		for i, c := range r {
			t[c] += w * int64(len(r)-1-i)
		}
	})
	return t
}

// Approvals counts, for each candidate, the weight of ballots approving it.
// approve returns how many leading candidates a ballot of the given length
// approves.
func (e *Election) Approvals(approve func(length int) int) Tally {
	t := newTally(e.store.candidates)
	e.store.each(func(r Ranking, w int64) {
		n := max(0, min(approve(len(r)), len(r)))
		for _, c := range r[:n] {
			t[c] += w
		}
	})
	return t
}
