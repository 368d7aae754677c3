// Command generate_elections writes a synthetic election file for
// benchmarks and manual testing.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/testutils"
)

func main() {
	def := testutils.DefaultElectionProfile()
	var (
		name       = flag.String("name", def.Name, "Election name")
		candidates = flag.Int("candidates", def.Candidates, "Number of candidates")
		voters     = flag.Int("voters", def.Voters, "Number of ballots")
		truncate   = flag.Float64("truncate", def.TruncateProb, "Probability a ballot is truncated")
		swap       = flag.Float64("swap", def.SwapProb, "Adjacent swap probability for the polarized culture")
		culture    = flag.String("culture", string(def.Culture), "Voter model: impartial or polarized")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		outputPath = flag.String("output", "testdata/elections/synthetic.yaml", "Output file path (.yaml, .yml or .toml)")
	)
	flag.Parse()

	profile := testutils.ElectionProfile{
		Name:         *name,
		Candidates:   *candidates,
		Voters:       *voters,
		TruncateProb: *truncate,
		SwapProb:     *swap,
		Culture:      testutils.Culture(*culture),
	}

	file, err := buildFile(profile, *seed)
	if err != nil {
		log.Fatalf("Failed to generate election: %v", err)
	}

	format, err := application.FormatFromPath(*outputPath)
	if err != nil {
		log.Fatalf("Invalid output path: %v", err)
	}
	if err := save(file, format, *outputPath); err != nil {
		log.Fatalf("Failed to save election: %v", err)
	}

	fmt.Printf("Generated election:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Candidates: %d\n", len(file.Candidates))
	fmt.Printf("- Voters: %d\n", *voters)
	fmt.Printf("- Distinct rankings: %d\n", len(file.Ballots))
	fmt.Printf("- Seed: %d\n", *seed)
}

// buildFile generates ballots and merges identical rankings the same way
// the election loader does.
func buildFile(p testutils.ElectionProfile, seed int64) (*application.ElectionFile, error) {
	e, err := testutils.GenerateElection(p, seed)
	if err != nil {
		return nil, err
	}

	file := &application.ElectionFile{Name: e.Name()}
	for _, c := range e.Candidates() {
		file.Candidates = append(file.Candidates, string(c))
	}
	for _, b := range e.Ballots() {
		ranking := make([]string, len(b.Ranking))
		for i, c := range b.Ranking {
			ranking[i] = string(c)
		}
		w := b.Weight
		file.Ballots = append(file.Ballots, application.BallotEntry{Ranking: ranking, Weight: &w})
	}
	return file, nil
}

func save(file *application.ElectionFile, format application.Format, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case application.FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(file); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
	default:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write election file: %w", err)
	}
	return nil
}
