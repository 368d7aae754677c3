package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElection_SnapshotsStore(t *testing.T) {
	store, err := NewBallotStore([]Candidate{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, store.Add(Ranking{"A", "B"}, 2))

	e := NewElection("snapshot", store)
	require.NoError(t, store.Add(Ranking{"B", "A"}, 5))

	assert.Equal(t, "snapshot", e.Name())
	assert.Equal(t, int64(2), e.TotalWeight())
	assert.Len(t, e.Ballots(), 1)
}

func TestBuildElection_RejectsBadBallot(t *testing.T) {
	_, err := BuildElection("bad", []Candidate{"A", "B"}, []Ballot{
		{Ranking: Ranking{"A"}, Weight: 1},
		{Ranking: Ranking{"C"}, Weight: 1},
	})
	require.Error(t, err)

	var die *DataIntegrityError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, Candidate("C"), die.Candidate)
}

func TestElection_Without(t *testing.T) {
	e := scenarioA(t)

	reduced, err := e.Without("X")
	require.NoError(t, err)

	assert.Equal(t, []Candidate{"Y", "Z"}, reduced.Candidates())
	assert.Equal(t, 2, reduced.NumCandidates())
	assert.False(t, reduced.HasCandidate("X"))
	assert.Equal(t, Tally{"Y": 5, "Z": 2}, reduced.FirstPreferences())
	assert.Equal(t, e.TotalWeight(), reduced.TotalWeight())

	// The source election is unaffected.
	assert.Equal(t, 3, e.NumCandidates())
	assert.Equal(t, Tally{"X": 3, "Y": 2, "Z": 2}, e.FirstPreferences())
}

func TestElection_RestrictToEmptySet(t *testing.T) {
	e := scenarioA(t)

	empty, err := e.Restrict(nil)
	require.NoError(t, err)
	assert.Zero(t, empty.NumCandidates())
	assert.Zero(t, empty.ContinuingWeight())
	assert.Equal(t, int64(7), empty.TotalWeight())
}

func TestElection_TournamentComputedOnce(t *testing.T) {
	e := scenarioA(t)

	const workers = 16
	got := make([]*Tournament, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = e.Tournament()
		}(i)
	}
	wg.Wait()

	for _, tr := range got {
		assert.Same(t, got[0], tr)
	}
}

func TestElection_MostCommonBallot(t *testing.T) {
	t.Run("largest weight", func(t *testing.T) {
		r, ok := scenarioA(t).MostCommonBallot(Lexicographic{})
		require.True(t, ok)
		assert.Equal(t, Ranking{"X", "Y", "Z"}, r)
	})

	t.Run("equal weights use the policy on first choice", func(t *testing.T) {
		e, err := BuildElection("tied", []Candidate{"A", "B"}, []Ballot{
			{Ranking: Ranking{"B", "A"}, Weight: 2},
			{Ranking: Ranking{"A", "B"}, Weight: 2},
		})
		require.NoError(t, err)

		r, ok := e.MostCommonBallot(Lexicographic{})
		require.True(t, ok)
		assert.Equal(t, Ranking{"A", "B"}, r)

		r, ok = e.MostCommonBallot(PriorityOrder([]Candidate{"B"}))
		require.True(t, ok)
		assert.Equal(t, Ranking{"B", "A"}, r)
	})

	t.Run("no ballots", func(t *testing.T) {
		e, err := BuildElection("none", []Candidate{"A"}, nil)
		require.NoError(t, err)
		_, ok := e.MostCommonBallot(Lexicographic{})
		assert.False(t, ok)
	})
}
