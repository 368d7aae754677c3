package rules

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

func ballot(weight int64, names ...domain.Candidate) domain.Ballot {
	return domain.Ballot{Ranking: domain.Ranking(names), Weight: weight}
}

func mustElection(t testing.TB, candidates []domain.Candidate, ballots ...domain.Ballot) *domain.Election {
	t.Helper()
	e, err := domain.BuildElection("test", candidates, ballots)
	require.NoError(t, err)
	return e
}

// scenarioA: 3 x (X,Y,Z), 2 x (Y,Z,X), 2 x (Z,Y,X).
func scenarioA(t testing.TB) *domain.Election {
	return mustElection(t, []domain.Candidate{"X", "Y", "Z"},
		ballot(3, "X", "Y", "Z"),
		ballot(2, "Y", "Z", "X"),
		ballot(2, "Z", "Y", "X"),
	)
}

// scenarioB: a single candidate with one ballot of weight 5.
func scenarioB(t testing.TB) *domain.Election {
	return mustElection(t, []domain.Candidate{"A"}, ballot(5, "A"))
}

// scenarioC: no candidates and no ballots.
func scenarioC(t testing.TB) *domain.Election {
	return mustElection(t, nil)
}

// scenarioD: A>B, B>C, C>A, each by a margin of one.
func scenarioD(t testing.TB, candidates ...domain.Candidate) *domain.Election {
	if len(candidates) == 0 {
		candidates = []domain.Candidate{"A", "B", "C"}
	}
	return mustElection(t, candidates,
		ballot(1, "A", "B", "C"),
		ballot(1, "B", "C", "A"),
		ballot(1, "C", "A", "B"),
	)
}

func mustRule(t testing.TB, kind domain.RuleName, config map[string]any) ports.Rule {
	t.Helper()
	r, err := New(kind, string(kind), config)
	require.NoError(t, err)
	return r
}

func tabulate(t testing.TB, r ports.Rule, e *domain.Election) domain.Result {
	t.Helper()
	res, err := r.Tabulate(context.Background(), e)
	require.NoError(t, err)
	return res
}

func winnerOf(res domain.Result) domain.Candidate { return res.WinnerOr("") }

// randomElection builds an election with random ballots. complete forces
// every ballot to rank all candidates.
func randomElection(t testing.TB, rng *rand.Rand, numCandidates, numBallots int, complete bool) *domain.Election {
	t.Helper()
	candidates := make([]domain.Candidate, numCandidates)
	for i := range candidates {
		candidates[i] = domain.Candidate(fmt.Sprintf("c%d", i))
	}
	ballots := make([]domain.Ballot, 0, numBallots)
	for i := 0; i < numBallots; i++ {
		perm := rng.Perm(numCandidates)
		length := numCandidates
		if !complete {
			length = rng.Intn(numCandidates + 1)
		}
		r := make(domain.Ranking, length)
		for j := range r {
			r[j] = candidates[perm[j]]
		}
		ballots = append(ballots, domain.Ballot{Ranking: r, Weight: int64(1 + rng.Intn(4))})
	}
	return mustElection(t, candidates, ballots...)
}
