package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

func ballot(weight int64, names ...domain.Candidate) domain.Ballot {
	return domain.Ballot{Ranking: domain.Ranking(names), Weight: weight}
}

// testElection: 3 x (X,Y,Z), 2 x (Y,Z,X), 2 x (Z,Y,X). Y is the Condorcet
// winner, X leads on first preferences.
func testElection(t testing.TB) *domain.Election {
	t.Helper()
	e, err := domain.BuildElection("scenario-a", []domain.Candidate{"X", "Y", "Z"}, []domain.Ballot{
		ballot(3, "X", "Y", "Z"),
		ballot(2, "Y", "Z", "X"),
		ballot(2, "Z", "Y", "X"),
	})
	require.NoError(t, err)
	return e
}

// cycleElection: A>B, B>C, C>A, each by one.
func cycleElection(t testing.TB) *domain.Election {
	t.Helper()
	e, err := domain.BuildElection("cycle", []domain.Candidate{"A", "B", "C"}, []domain.Ballot{
		ballot(1, "A", "B", "C"),
		ballot(1, "B", "C", "A"),
		ballot(1, "C", "A", "B"),
	})
	require.NoError(t, err)
	return e
}
