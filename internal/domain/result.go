package domain

// Outcome classifies a tabulation result.
type Outcome string

// Possible tabulation outcomes. None of them is an error.
const (
	// OutcomeWinner means the rule selected a winner.
	OutcomeWinner Outcome = "winner"

	// OutcomeNoWinner means the rule's defining condition was not met,
	// for example no Condorcet winner or no majority.
	OutcomeNoWinner Outcome = "no_winner"

	// OutcomeDegenerate means the input leaves nothing to decide, such as
	// an election without candidates.
	OutcomeDegenerate Outcome = "degenerate"
)

// RoundLog captures one round of a multi-round rule such as IRV or Bucklin.
type RoundLog struct {
	// Round is the 1-based round number.
	Round int `json:"round"`

	// Tallies holds the per-candidate counts for this round.
	Tallies Tally `json:"tallies"`

	// Eliminated lists candidates removed at the end of this round.
	Eliminated []Candidate `json:"eliminated,omitempty"`

	// ContinuingWeight is the weight of ballots still expressing a
	// preference among the remaining candidates.
	ContinuingWeight int64 `json:"continuing_weight"`

	// ExhaustedWeight is the weight of ballots whose ranked candidates have
	// all been eliminated.
	ExhaustedWeight int64 `json:"exhausted_weight"`

	// Tie is true when this round's decision was made by the tie-break policy.
	Tie bool `json:"tie,omitempty"`
}

// Result is the outcome of applying one rule to one election.
type Result struct {
	// Rule identifies the rule that produced this result.
	Rule RuleName `json:"rule"`

	// Outcome classifies the result.
	Outcome Outcome `json:"outcome"`

	// Winner is the selected candidate. It is nil unless Outcome is
	// OutcomeWinner.
	Winner *Candidate `json:"winner,omitempty"`

	// Tie reports that the winner was chosen by the tie-break policy among
	// equally placed candidates rather than forced by the ballots.
	Tie bool `json:"tie"`

	// Tied lists the candidates the policy chose among when Tie is set.
	// It stays empty when the tie arose in an intermediate step, such as an
	// IRV elimination or the ordering of equal ranked-pairs majorities.
	Tied []Candidate `json:"tied,omitempty"`

	// TieBreaker names the policy that was in effect.
	TieBreaker TieBreaker `json:"tie_breaker,omitempty"`

	// Scores holds the rule's final per-candidate scores when it has any.
	Scores map[Candidate]float64 `json:"scores,omitempty"`

	// Rounds is the complete round log for multi-round rules.
	Rounds []RoundLog `json:"rounds,omitempty"`

	// Reason gives a short explanation for non-winner outcomes.
	Reason string `json:"reason,omitempty"`
}

// HasWinner reports whether the result names a winner.
func (r Result) HasWinner() bool { return r.Outcome == OutcomeWinner && r.Winner != nil }

// WinnerOr returns the winner, or fallback when there is none.
func (r Result) WinnerOr(fallback Candidate) Candidate {
	if r.HasWinner() {
		return *r.Winner
	}
	return fallback
}

// WinnerResult builds a result naming c as the winner.
func WinnerResult(rule RuleName, c Candidate) Result {
	return Result{Rule: rule, Outcome: OutcomeWinner, Winner: &c}
}

// NoWinnerResult builds a result for an unmet rule condition.
func NoWinnerResult(rule RuleName, reason string) Result {
	return Result{Rule: rule, Outcome: OutcomeNoWinner, Reason: reason}
}

// DegenerateResult builds a result for input that leaves nothing to decide.
func DegenerateResult(rule RuleName, reason string) Result {
	return Result{Rule: rule, Outcome: OutcomeDegenerate, Reason: reason}
}

// ScoresFromTally converts integer counts to result scores.
func ScoresFromTally(t Tally) map[Candidate]float64 {
	out := make(map[Candidate]float64, len(t))
	for c, v := range t {
		out[c] = float64(v)
	}
	return out
}
