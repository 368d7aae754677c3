package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

func TestCondorcetRule_Tabulate(t *testing.T) {
	tests := []struct {
		name        string
		election    *domain.Election
		wantOutcome domain.Outcome
		wantWinner  domain.Candidate
	}{
		{name: "scenario A", election: scenarioA(t), wantOutcome: domain.OutcomeWinner, wantWinner: "Y"},
		{name: "cycle", election: scenarioD(t), wantOutcome: domain.OutcomeNoWinner},
		{
			name: "head-to-head tie blocks a win",
			election: mustElection(t, []domain.Candidate{"A", "B", "C"},
				ballot(1, "A", "B", "C"),
				ballot(1, "B", "A", "C"),
			),
			wantOutcome: domain.OutcomeNoWinner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tabulate(t, mustRule(t, domain.RuleCondorcet, nil), tt.election)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.False(t, res.Tie)
			if tt.wantOutcome == domain.OutcomeWinner {
				assert.Equal(t, tt.wantWinner, *res.Winner)
			} else {
				assert.Nil(t, res.Winner)
			}
		})
	}
}

func TestBlackRule_Tabulate(t *testing.T) {
	t.Run("Condorcet winner", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleBlack, nil), scenarioA(t))
		assert.Equal(t, domain.Candidate("Y"), winnerOf(res))
		assert.Nil(t, res.Scores)
	})

	t.Run("falls back to Borda", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleBlack, nil), scenarioD(t))

		assert.Equal(t, domain.RuleBlack, res.Rule)
		assert.Equal(t, domain.Candidate("A"), winnerOf(res))
		assert.True(t, res.Tie)
		assert.Equal(t, map[domain.Candidate]float64{"A": 3, "B": 3, "C": 3}, res.Scores)
	})

	t.Run("fallback follows unmarshaled parameters", func(t *testing.T) {
		r, err := NewBlackRule("black", DefaultBaseConfig())
		require.NoError(t, err)

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("tie_breaker: priority\npriority: [C]\n"), &node))
		require.NoError(t, r.UnmarshalParameters(*node.Content[0]))

		res := tabulate(t, r, scenarioD(t))
		assert.Equal(t, domain.Candidate("C"), winnerOf(res))
		assert.Equal(t, domain.TiePriority, res.TieBreaker)
	})
}

func TestCopelandRule_Tabulate(t *testing.T) {
	t.Run("scenario A", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleCopeland, nil), scenarioA(t))

		assert.Equal(t, domain.Candidate("Y"), winnerOf(res))
		assert.False(t, res.Tie)
		assert.Equal(t, map[domain.Candidate]float64{"X": 0, "Y": 2, "Z": 1}, res.Scores)
	})

	t.Run("cycle ties everyone", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleCopeland, nil), scenarioD(t))

		assert.Equal(t, domain.Candidate("A"), winnerOf(res))
		assert.True(t, res.Tie)
		assert.Equal(t, []domain.Candidate{"A", "B", "C"}, res.Tied)
	})

	t.Run("head-to-head ties score half", func(t *testing.T) {
		e := mustElection(t, []domain.Candidate{"A", "B", "C"},
			ballot(1, "A", "B", "C"),
			ballot(1, "B", "A", "C"),
		)
		scores := CopelandScores(e.Tournament())
		assert.Equal(t, map[domain.Candidate]float64{"A": 1.5, "B": 1.5, "C": 0}, scores)
	})
}

func TestMinimaxRule_Tabulate(t *testing.T) {
	t.Run("scenario A", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleMinimax, nil), scenarioA(t))

		assert.Equal(t, domain.Candidate("Y"), winnerOf(res))
		assert.Equal(t, map[domain.Candidate]float64{"X": 4, "Y": 0, "Z": 5}, res.Scores)
	})

	t.Run("cycle is a tie", func(t *testing.T) {
		res := tabulate(t, mustRule(t, domain.RuleMinimax, nil), scenarioD(t))

		assert.Equal(t, domain.Candidate("A"), winnerOf(res))
		assert.True(t, res.Tie)
	})

	t.Run("truncated ballots elect the Condorcet winner", func(t *testing.T) {
		// W beats L 7-6 and X 5-3. Raw opposition would favor X (5 against
		// W's 6) because most ballots leave X unranked; only defeats count.
		e := mustElection(t, []domain.Candidate{"L", "W", "X"},
			ballot(5, "L"),
			ballot(1, "X", "L"),
			ballot(5, "W"),
			ballot(2, "X", "W"),
		)
		w, ok := e.Tournament().CondorcetWinner()
		require.True(t, ok)
		require.Equal(t, domain.Candidate("W"), w)

		votes := tabulate(t, mustRule(t, domain.RuleMinimax, nil), e)
		margins := tabulate(t, mustRule(t, domain.RuleMinimax, map[string]any{"metric": "margins"}), e)

		assert.Equal(t, w, winnerOf(votes))
		assert.False(t, votes.Tie)
		assert.Equal(t, map[domain.Candidate]float64{"L": 7, "W": 0, "X": 5}, votes.Scores)
		assert.Equal(t, w, winnerOf(margins))
		assert.Equal(t, map[domain.Candidate]float64{"L": 1, "W": 0, "X": 2}, margins.Scores)
	})

	t.Run("won pairings are not defeats", func(t *testing.T) {
		// c2 beats c1 8-6 and c0 10-8, but 8 voters prefer c0 to it.
		e := mustElection(t, []domain.Candidate{"c0", "c1", "c2"},
			ballot(4, "c0"),
			ballot(2, "c1", "c2", "c0"),
			ballot(4, "c2", "c1", "c0"),
			ballot(1, "c2", "c1"),
			ballot(3, "c2"),
			ballot(4, "c1", "c0"),
		)
		res := tabulate(t, mustRule(t, domain.RuleMinimax, nil), e)

		assert.Equal(t, domain.Candidate("c2"), winnerOf(res))
		assert.False(t, res.Tie)
		assert.Equal(t, map[domain.Candidate]float64{"c0": 11, "c1": 8, "c2": 0}, res.Scores)
	})
}

func TestMinimaxRule_Config(t *testing.T) {
	t.Run("invalid metric", func(t *testing.T) {
		_, err := New(domain.RuleMinimax, "mm", map[string]any{"metric": "opposition"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})

	t.Run("metric must be a string", func(t *testing.T) {
		_, err := New(domain.RuleMinimax, "mm", map[string]any{"metric": 3})
		assert.Error(t, err)
	})

	t.Run("yaml parameters", func(t *testing.T) {
		r, err := NewMinimaxRule("mm", DefaultMinimaxConfig())
		require.NoError(t, err)

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("tie_breaker: declaration\nmetric: margins\n"), &node))
		require.NoError(t, r.UnmarshalParameters(*node.Content[0]))

		assert.Equal(t, MetricMargins, r.metric)
		assert.Equal(t, domain.TieDeclaration, r.Config().TieBreaker)
		assert.NoError(t, r.Validate())
	})

	t.Run("yaml rejects unknown fields", func(t *testing.T) {
		r, err := NewMinimaxRule("mm", DefaultMinimaxConfig())
		require.NoError(t, err)

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("metrc: margins\n"), &node))
		assert.Error(t, r.UnmarshalParameters(*node.Content[0]))
	})
}
