package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.ElectionSource = (*ElectionLoader)(nil)

// minSuggestionSimilarity is the lowest normalized similarity at which an
// unknown ballot name gets a "did you mean" suggestion.
const minSuggestionSimilarity = 0.5

// Format identifies an election file encoding.
type Format string

// Supported election file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ElectionFile is the on-disk form of an election.
type ElectionFile struct {
	// Name identifies the election. Files without one are named after
	// the file.
	Name string `yaml:"name" toml:"name" validate:"max=255"`
	// Candidates lists the candidates in declaration order.
	Candidates []string `yaml:"candidates" toml:"candidates" validate:"dive,required"`
	// Ballots lists the ballots. Identical rankings are merged.
	Ballots []BallotEntry `yaml:"ballots" toml:"ballots"`
	// Options controls how ballot names are matched to candidates.
	Options ElectionOptions `yaml:"options" toml:"options"`
}

// BallotEntry is one weighted ranking in an election file.
type BallotEntry struct {
	Ranking []string `yaml:"ranking" toml:"ranking"`
	// Weight defaults to 1 when omitted.
	Weight *int64 `yaml:"weight" toml:"weight"`
}

// ElectionOptions holds per-file loading options.
type ElectionOptions struct {
	// FoldCase matches ballot names to candidates after Unicode case
	// folding.
	FoldCase bool `yaml:"fold_case" toml:"fold_case"`
}

// ElectionLoader reads YAML and TOML election files into validated
// elections. Elections are immutable, so identical inputs share one
// cached instance.
type ElectionLoader struct {
	validator *validator.Validate
	metrics   ports.MetricsCollector

	cache   map[string]*domain.Election
	cacheMu sync.RWMutex
	sf      singleflight.Group
}

// ElectionLoaderOption configures an ElectionLoader.
type ElectionLoaderOption func(*ElectionLoader)

// WithLoaderMetrics reports loads and cache hits to metrics.
func WithLoaderMetrics(metrics ports.MetricsCollector) ElectionLoaderOption {
	return func(l *ElectionLoader) { l.metrics = metrics }
}

// NewElectionLoader creates a loader with an empty cache.
func NewElectionLoader(opts ...ElectionLoaderOption) *ElectionLoader {
	l := &ElectionLoader{
		validator: validator.New(),
		cache:     make(map[string]*domain.Election),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements ports.ElectionSource by reading the file at ref.
func (l *ElectionLoader) Load(ctx context.Context, ref string) (*domain.Election, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatFromPath(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read election file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	return l.load(ctx, data, format, name)
}

// LoadFromReader reads an election in the given format from r. name is
// used when the document does not name the election.
func (l *ElectionLoader) LoadFromReader(ctx context.Context, r io.Reader, format Format, name string) (*domain.Election, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return l.load(ctx, data, format, name)
}

func (l *ElectionLoader) load(ctx context.Context, data []byte, format Format, name string) (*domain.Election, error) {
	key := cacheKey(data, format, name)

	v, err, shared := l.sf.Do(key, func() (any, error) {
		if e, ok := l.getCached(key); ok {
			l.count("election_cache_hits")
			return e, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := l.parse(data, format)
		if err != nil {
			return nil, err
		}
		if file.Name == "" {
			file.Name = name
		}

		e, err := l.build(file)
		if err != nil {
			return nil, err
		}

		l.putCached(key, e)
		l.count("elections_loaded")
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.count("election_loads_shared")
	}

	e, ok := v.(*domain.Election)
	if !ok {
		return nil, ports.NewCacheError(key, "load", ports.ErrCacheCorrupted)
	}
	return e, nil
}

// parse decodes data strictly and validates the result.
func (l *ElectionLoader) parse(data []byte, format Format) (*ElectionFile, error) {
	var file ElectionFile

	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("YAML decode failed: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("TOML decode failed: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("TOML decode failed: unknown fields %s", strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedFormat, format)
	}

	if err := l.validator.Struct(&file); err != nil {
		return nil, fmt.Errorf("election validation failed: %w", err)
	}
	return &file, nil
}

// build resolves ballot names and fills the ballot store.
func (l *ElectionLoader) build(file *ElectionFile) (*domain.Election, error) {
	candidates := make([]domain.Candidate, len(file.Candidates))
	for i, c := range file.Candidates {
		candidates[i] = domain.Candidate(c)
	}

	store, err := domain.NewBallotStore(candidates)
	if err != nil {
		return nil, err
	}

	resolver, err := newNameResolver(candidates, file.Options.FoldCase)
	if err != nil {
		return nil, err
	}

	for i, b := range file.Ballots {
		ranking, err := resolver.resolve(b.Ranking)
		if err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i+1, err)
		}
		weight := int64(1)
		if b.Weight != nil {
			weight = *b.Weight
		}
		if err := store.Add(ranking, weight); err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i+1, err)
		}
	}

	return domain.NewElection(file.Name, store), nil
}

// ClearCache drops every cached election.
func (l *ElectionLoader) ClearCache() {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	l.cache = make(map[string]*domain.Election)
}

func (l *ElectionLoader) getCached(key string) (*domain.Election, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()

	e, ok := l.cache[key]
	return e, ok
}

func (l *ElectionLoader) putCached(key string, e *domain.Election) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	l.cache[key] = e
}

func (l *ElectionLoader) count(metric string) {
	if l.metrics != nil {
		l.metrics.RecordCounter(metric, 1, map[string]string{"rule": "loader"})
	}
}

func cacheKey(data []byte, format Format, name string) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// nameResolver maps ballot names to declared candidates.
type nameResolver struct {
	foldCase bool
	// caser is per resolver since a cases.Caser must not be shared
	// between goroutines.
	caser    cases.Caser
	declared []domain.Candidate
	byKey    map[string]domain.Candidate
}

func newNameResolver(candidates []domain.Candidate, foldCase bool) (*nameResolver, error) {
	r := &nameResolver{
		foldCase: foldCase,
		caser:    cases.Fold(),
		declared: candidates,
		byKey:    make(map[string]domain.Candidate, len(candidates)),
	}
	for _, c := range candidates {
		k := r.key(string(c))
		if prev, dup := r.byKey[k]; dup {
			return nil, domain.NewDataIntegrityError(c, nil,
				fmt.Sprintf("candidate collides with %q under case folding", prev))
		}
		r.byKey[k] = c
	}
	return r, nil
}

func (r *nameResolver) key(name string) string {
	if r.foldCase {
		return r.caser.String(name)
	}
	return name
}

func (r *nameResolver) resolve(names []string) (domain.Ranking, error) {
	ranking := make(domain.Ranking, len(names))
	for i, n := range names {
		c, ok := r.byKey[r.key(n)]
		if !ok {
			raw := make(domain.Ranking, len(names))
			for j, m := range names {
				raw[j] = domain.Candidate(m)
			}
			err := domain.NewDataIntegrityError(domain.Candidate(n), raw, "unknown candidate")
			err.Suggestion = r.suggest(n)
			return nil, err
		}
		ranking[i] = c
	}
	return ranking, nil
}

// suggest returns the declared candidate closest to name by Levenshtein
// distance, or "" when none is similar enough. Ties go to the earliest
// declared candidate.
func (r *nameResolver) suggest(name string) domain.Candidate {
	type scored struct {
		c   domain.Candidate
		sim float64
		idx int
	}
	target := r.key(name)
	var best []scored
	for i, c := range r.declared {
		key := r.key(string(c))
		maxLen := max(utf8.RuneCountInString(target), utf8.RuneCountInString(key))
		if maxLen == 0 {
			continue
		}
		sim := 1 - float64(levenshtein.ComputeDistance(target, key))/float64(maxLen)
		if sim >= minSuggestionSimilarity {
			best = append(best, scored{c: c, sim: sim, idx: i})
		}
	}
	if len(best) == 0 {
		return ""
	}
	sort.SliceStable(best, func(i, j int) bool {
		if best[i].sim != best[j].sim {
			return best[i].sim > best[j].sim
		}
		return best[i].idx < best[j].idx
	})
	return best[0].c
}
