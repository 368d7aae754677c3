package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBallotStore(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		wantErr    string
	}{
		{name: "valid candidates", candidates: []Candidate{"A", "B", "C"}},
		{name: "no candidates", candidates: nil},
		{name: "duplicate candidate", candidates: []Candidate{"A", "B", "A"}, wantErr: "duplicate candidate"},
		{name: "empty name", candidates: []Candidate{"A", ""}, wantErr: "candidate name cannot be empty"},
		{name: "NUL byte", candidates: []Candidate{"A\x00B"}, wantErr: "NUL byte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewBallotStore(tt.candidates)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDataIntegrity)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.candidates), len(store.Candidates()))
			assert.Zero(t, store.TotalWeight())
		})
	}
}

func TestBallotStore_Add(t *testing.T) {
	tests := []struct {
		name    string
		ranking Ranking
		weight  int64
		wantErr string
	}{
		{name: "full ranking", ranking: Ranking{"A", "B", "C"}, weight: 2},
		{name: "truncated ranking", ranking: Ranking{"B"}, weight: 1},
		{name: "empty ranking", ranking: Ranking{}, weight: 4},
		{name: "unknown candidate", ranking: Ranking{"A", "Z"}, weight: 1, wantErr: "unknown candidate"},
		{name: "repeated candidate", ranking: Ranking{"A", "B", "A"}, weight: 1, wantErr: "ranked more than once"},
		{name: "zero weight", ranking: Ranking{"A"}, weight: 0, wantErr: "weight must be >= 1"},
		{name: "negative weight", ranking: Ranking{"A"}, weight: -3, wantErr: "weight must be >= 1"},
		{name: "weight above limit", ranking: Ranking{"A"}, weight: math.MaxInt64, wantErr: "total weight would exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewBallotStore([]Candidate{"A", "B", "C"})
			require.NoError(t, err)

			err = store.Add(tt.ranking, tt.weight)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDataIntegrity)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, store.TotalWeight(), "failed add must not change the store")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.weight, store.TotalWeight())
			assert.Equal(t, tt.weight, store.Weight(tt.ranking))
		})
	}
}

func TestBallotStore_AddRejectsOverflowingTotal(t *testing.T) {
	store, err := NewBallotStore([]Candidate{"A", "B", "C"})
	require.NoError(t, err)
	limit := store.MaxTotalWeight()
	assert.Equal(t, int64(math.MaxInt64/3), limit)

	require.NoError(t, store.Add(Ranking{"A"}, limit-1))
	require.NoError(t, store.Add(Ranking{"B"}, 1))
	assert.Equal(t, limit, store.TotalWeight())

	err = store.Add(Ranking{"A"}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
	assert.Equal(t, limit, store.TotalWeight(), "failed add must not change the store")
	assert.Equal(t, limit-1, store.Weight(Ranking{"A"}))
}

func TestBallotStore_AddMergesIdenticalRankings(t *testing.T) {
	store, err := NewBallotStore([]Candidate{"A", "B"})
	require.NoError(t, err)

	require.NoError(t, store.Add(Ranking{"A", "B"}, 2))
	require.NoError(t, store.Add(Ranking{"B"}, 1))
	require.NoError(t, store.Add(Ranking{"A", "B"}, 3))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, int64(5), store.Weight(Ranking{"A", "B"}))
	assert.Equal(t, int64(6), store.TotalWeight())
	assert.Equal(t, []Ballot{
		{Ranking: Ranking{"A", "B"}, Weight: 5},
		{Ranking: Ranking{"B"}, Weight: 1},
	}, store.Ballots())
}

func TestBallotStore_Restrict(t *testing.T) {
	store, err := NewBallotStore([]Candidate{"A", "B", "C"})
	require.NoError(t, err)
	require.NoError(t, store.Add(Ranking{"A", "B", "C"}, 3))
	require.NoError(t, store.Add(Ranking{"C", "B", "A"}, 2))
	require.NoError(t, store.Add(Ranking{"B", "A"}, 1))
	require.NoError(t, store.Add(Ranking{"C"}, 4))

	t.Run("filters and merges rankings", func(t *testing.T) {
		restricted, err := store.Restrict([]Candidate{"A", "B"})
		require.NoError(t, err)

		assert.Equal(t, []Candidate{"A", "B"}, restricted.Candidates())
		assert.Equal(t, store.TotalWeight(), restricted.TotalWeight())
		assert.Equal(t, int64(3), restricted.Weight(Ranking{"A", "B"}))
		assert.Equal(t, int64(3), restricted.Weight(Ranking{"B", "A"}), "C>B>A and B>A merge")
		assert.Equal(t, int64(4), restricted.Weight(Ranking{}), "C-only ballots become empty")
	})

	t.Run("keeps declaration order regardless of subset order", func(t *testing.T) {
		restricted, err := store.Restrict([]Candidate{"C", "A"})
		require.NoError(t, err)
		assert.Equal(t, []Candidate{"A", "C"}, restricted.Candidates())
	})

	t.Run("full candidate set is identity on weight", func(t *testing.T) {
		restricted, err := store.Restrict(store.Candidates())
		require.NoError(t, err)
		assert.Equal(t, store.Ballots(), restricted.Ballots())
		assert.Equal(t, store.TotalWeight(), restricted.TotalWeight())
	})

	t.Run("unknown candidate", func(t *testing.T) {
		_, err := store.Restrict([]Candidate{"A", "Q"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDataIntegrity)
	})

	t.Run("original store untouched", func(t *testing.T) {
		assert.Equal(t, 4, store.Len())
		assert.Equal(t, int64(10), store.TotalWeight())
	})
}

func TestBallotStore_BallotsAreCopies(t *testing.T) {
	store, err := NewBallotStore([]Candidate{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, store.Add(Ranking{"A", "B"}, 1))

	ballots := store.Ballots()
	ballots[0].Ranking[0] = "B"
	ballots[0].Weight = 99

	assert.Equal(t, int64(1), store.Weight(Ranking{"A", "B"}))
}

func TestRanking_String(t *testing.T) {
	assert.Equal(t, "A > B", Ranking{"A", "B"}.String())
	assert.Equal(t, "(empty)", Ranking{}.String())
	assert.Equal(t, 1, Ranking{"A", "B"}.Position("B"))
	assert.Equal(t, -1, Ranking{"A"}.Position("B"))
}
