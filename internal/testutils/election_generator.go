// Package testutils provides synthetic election generators for tests,
// fuzzing and benchmarks. It is not part of the public API.
package testutils

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-tally/internal/domain"
)

// Culture selects how synthetic voters form their rankings.
type Culture string

const (
	// CultureImpartial draws every ranking uniformly at random.
	CultureImpartial Culture = "impartial"

	// CulturePolarized splits voters between two opposed reference
	// orders and perturbs each ballot with adjacent swaps.
	CulturePolarized Culture = "polarized"
)

// ElectionProfile describes a synthetic election.
type ElectionProfile struct {
	// Name is the election name.
	Name string `validate:"required"`

	// Candidates is the number of candidates, named C01, C02, ...
	Candidates int `validate:"min=1,max=99"`

	// Voters is the number of ballots cast. Identical rankings are merged,
	// so the election's TotalWeight equals Voters.
	Voters int `validate:"min=0"`

	// TruncateProb is the chance that a ballot is cut after a random
	// position. Cut ballots may be empty.
	TruncateProb float64 `validate:"min=0,max=1"`

	// SwapProb is the per-position chance of an adjacent swap under
	// CulturePolarized.
	SwapProb float64 `validate:"min=0,max=1"`

	Culture Culture `validate:"required,oneof=impartial polarized"`
}

// DefaultElectionProfile returns a mid-sized impartial election.
func DefaultElectionProfile() ElectionProfile {
	return ElectionProfile{
		Name:         "synthetic",
		Candidates:   5,
		Voters:       1000,
		TruncateProb: 0.2,
		SwapProb:     0.3,
		Culture:      CultureImpartial,
	}
}

var profileValidator = validator.New()

// CandidateNames returns the names GenerateBallots uses for n candidates.
func CandidateNames(n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate(fmt.Sprintf("C%02d", i+1))
	}
	return out
}

// GenerateBallots draws p.Voters ballots. The seed parameter controls
// randomization; a fixed value gives reproducible output.
func GenerateBallots(p ElectionProfile, seed int64) ([]domain.Candidate, []domain.Ballot, error) {
	if err := profileValidator.Struct(p); err != nil {
		return nil, nil, fmt.Errorf("invalid election profile: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	candidates := CandidateNames(p.Candidates)
	reversed := slices.Clone(candidates)
	slices.Reverse(reversed)

	ballots := make([]domain.Ballot, 0, p.Voters)
	for i := 0; i < p.Voters; i++ {
		var ranking domain.Ranking
		switch p.Culture {
		case CulturePolarized:
			ref := candidates
			if rng.Intn(2) == 1 {
				ref = reversed
			}
			ranking = perturb(rng, ref, p.SwapProb)
		default:
			ranking = shuffle(rng, candidates)
		}

		if rng.Float64() < p.TruncateProb {
			ranking = ranking[:rng.Intn(len(ranking)+1)]
		}
		ballots = append(ballots, domain.Ballot{Ranking: ranking, Weight: 1})
	}
	return candidates, ballots, nil
}

// GenerateElection builds an election from GenerateBallots.
func GenerateElection(p ElectionProfile, seed int64) (*domain.Election, error) {
	candidates, ballots, err := GenerateBallots(p, seed)
	if err != nil {
		return nil, err
	}
	return domain.BuildElection(p.Name, candidates, ballots)
}

func shuffle(rng *rand.Rand, candidates []domain.Candidate) domain.Ranking {
	r := domain.Ranking(slices.Clone(candidates))
	rng.Shuffle(len(r), func(i, j int) { r[i], r[j] = r[j], r[i] })
	return r
}

func perturb(rng *rand.Rand, ref []domain.Candidate, swapProb float64) domain.Ranking {
	r := domain.Ranking(slices.Clone(ref))
	for i := 0; i+1 < len(r); i++ {
		if rng.Float64() < swapProb {
			r[i], r[i+1] = r[i+1], r[i]
		}
	}
	return r
}
