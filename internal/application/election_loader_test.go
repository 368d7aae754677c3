package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

const councilYAML = `
name: city-council-2023
candidates: [X, Y, Z]
ballots:
  - ranking: [X, Y, Z]
    weight: 3
  - ranking: [Y, Z, X]
    weight: 2
  - ranking: [Z, Y, X]
    weight: 2
`

const councilTOML = `
name = "city-council-2023"
candidates = ["X", "Y", "Z"]

[[ballots]]
ranking = ["X", "Y", "Z"]
weight = 3

[[ballots]]
ranking = ["Y", "Z", "X"]
weight = 2

[[ballots]]
ranking = ["Z", "Y", "X"]
weight = 2
`

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "e.yaml", want: FormatYAML},
		{path: "dir/e.YML", want: FormatYAML},
		{path: "e.toml", want: FormatTOML},
		{path: "e.csv", wantErr: true},
		{path: "noext", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElectionLoader_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{name: "yaml", format: FormatYAML, data: councilYAML},
		{name: "toml", format: FormatTOML, data: councilTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewElectionLoader()
			e, err := l.LoadFromReader(context.Background(), strings.NewReader(tt.data), tt.format, "fallback")
			require.NoError(t, err)

			assert.Equal(t, "city-council-2023", e.Name())
			assert.Equal(t, []domain.Candidate{"X", "Y", "Z"}, e.Candidates())
			assert.Equal(t, int64(7), e.TotalWeight())
			assert.Equal(t, testElection(t).Tournament().AsMap(), e.Tournament().AsMap())
		})
	}
}

func TestElectionLoader_Defaults(t *testing.T) {
	l := NewElectionLoader()
	e, err := l.LoadFromReader(context.Background(), strings.NewReader(`
candidates: [A, B]
ballots:
  - ranking: [A, B]
  - ranking: [A, B]
  - ranking: []
`), FormatYAML, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "fallback", e.Name(), "unnamed elections take the fallback name")
	assert.Equal(t, int64(3), e.TotalWeight(), "omitted weight counts as 1")
	assert.Len(t, e.Ballots(), 2, "identical rankings merge")
}

func TestElectionLoader_Errors(t *testing.T) {
	tests := []struct {
		name           string
		format         Format
		data           string
		wantIntegrity  bool
		wantSuggestion domain.Candidate
		wantErr        string
	}{
		{
			name:           "unknown candidate with suggestion",
			format:         FormatYAML,
			data:           "candidates: [Alice, Bob]\nballots:\n  - ranking: [Alise, Bob]\n",
			wantIntegrity:  true,
			wantSuggestion: "Alice",
			wantErr:        `did you mean "Alice"?`,
		},
		{
			name:          "unknown candidate without suggestion",
			format:        FormatYAML,
			data:          "candidates: [Alice, Bob]\nballots:\n  - ranking: [Zebediah]\n",
			wantIntegrity: true,
			wantErr:       "unknown candidate",
		},
		{
			name:          "repeated candidate",
			format:        FormatYAML,
			data:          "candidates: [A, B]\nballots:\n  - ranking: [A, A]\n",
			wantIntegrity: true,
			wantErr:       "ballot 1",
		},
		{
			name:          "zero weight",
			format:        FormatYAML,
			data:          "candidates: [A, B]\nballots:\n  - ranking: [A]\n    weight: 0\n",
			wantIntegrity: true,
			wantErr:       "weight must be >= 1",
		},
		{
			name:          "duplicate candidate",
			format:        FormatYAML,
			data:          "candidates: [A, B, A]\n",
			wantIntegrity: true,
			wantErr:       "duplicate candidate",
		},
		{
			name:    "empty candidate name",
			format:  FormatYAML,
			data:    "candidates: [A, \"\"]\n",
			wantErr: "'required' tag",
		},
		{
			name:    "unknown yaml field",
			format:  FormatYAML,
			data:    "candidates: [A]\nvoters: 3\n",
			wantErr: "field voters not found",
		},
		{
			name:    "unknown toml field",
			format:  FormatTOML,
			data:    "candidates = [\"A\"]\nvoters = 3\n",
			wantErr: "unknown fields voters",
		},
		{
			name:    "malformed toml",
			format:  FormatTOML,
			data:    "candidates = [",
			wantErr: "TOML decode failed",
		},
		{
			name:    "unsupported format",
			format:  "csv",
			data:    "A,B",
			wantErr: "unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewElectionLoader()
			_, err := l.LoadFromReader(context.Background(), strings.NewReader(tt.data), tt.format, "e")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var die *domain.DataIntegrityError
			assert.Equal(t, tt.wantIntegrity, errors.As(err, &die))
			if tt.wantIntegrity {
				assert.ErrorIs(t, err, domain.ErrDataIntegrity)
				assert.Equal(t, tt.wantSuggestion, die.Suggestion)
			}
		})
	}
}

func TestElectionLoader_FoldCase(t *testing.T) {
	l := NewElectionLoader()

	t.Run("matches folded names", func(t *testing.T) {
		e, err := l.LoadFromReader(context.Background(), strings.NewReader(`
candidates: [Straße, Bob]
options:
  fold_case: true
ballots:
  - ranking: [STRASSE, bob]
    weight: 2
  - ranking: [straße]
`), FormatYAML, "folded")
		require.NoError(t, err)
		assert.Equal(t, int64(3), e.FirstPreferences()["Straße"])
		assert.Equal(t, int64(3), e.Tournament().Count("Straße", "Bob"), "a truncated ballot prefers listed over unlisted")
	})

	t.Run("case matters without the option", func(t *testing.T) {
		_, err := l.LoadFromReader(context.Background(), strings.NewReader(`
candidates: [Bob]
ballots:
  - ranking: [bob]
`), FormatYAML, "strict")
		var die *domain.DataIntegrityError
		require.True(t, errors.As(err, &die))
		assert.Equal(t, domain.Candidate("Bob"), die.Suggestion)
	})

	t.Run("colliding candidates", func(t *testing.T) {
		_, err := l.LoadFromReader(context.Background(), strings.NewReader(`
candidates: [bob, BOB]
options:
  fold_case: true
`), FormatYAML, "collide")
		require.ErrorIs(t, err, domain.ErrDataIntegrity)
		assert.Contains(t, err.Error(), "case folding")
	})
}

func TestElectionLoader_Load(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "council.yaml")
	tomlPath := filepath.Join(dir, "council.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("candidates: [A, B]\nballots:\n  - ranking: [B]\n"), 0o600))
	require.NoError(t, os.WriteFile(tomlPath, []byte(councilTOML), 0o600))

	var source ports.ElectionSource = NewElectionLoader()
	ctx := context.Background()

	t.Run("yaml named after file", func(t *testing.T) {
		e, err := source.Load(ctx, yamlPath)
		require.NoError(t, err)
		assert.Equal(t, "council", e.Name())
	})

	t.Run("toml", func(t *testing.T) {
		e, err := source.Load(ctx, tomlPath)
		require.NoError(t, err)
		assert.Equal(t, "city-council-2023", e.Name())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := source.Load(ctx, filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := source.Load(ctx, filepath.Join(dir, "ballots.csv"))
		assert.ErrorIs(t, err, ports.ErrUnsupportedFormat)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := source.Load(cctx, yamlPath)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestElectionLoader_CacheAndSingleflight(t *testing.T) {
	metrics := newCountingMetrics()
	l := NewElectionLoader(WithLoaderMetrics(metrics))
	ctx := context.Background()

	const n = 12
	results := make([]*domain.Election, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := l.LoadFromReader(ctx, strings.NewReader(councilYAML), FormatYAML, "c")
			assert.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	for _, e := range results[1:] {
		assert.Same(t, results[0], e)
	}
	assert.Equal(t, 1, metrics.get("elections_loaded"), "the file is parsed once")

	l.ClearCache()
	again, err := l.LoadFromReader(ctx, strings.NewReader(councilYAML), FormatYAML, "c")
	require.NoError(t, err)
	assert.NotSame(t, results[0], again)
	assert.Equal(t, 2, metrics.get("elections_loaded"))
}
