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
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// Plan is a validated tabulation config with its rules built.
// Plans are cached and shared; callers must not modify them.
type Plan struct {
	Config *TabulationConfig
	Rules  []ports.Rule
}

// ConfigLoader parses, validates, and caches tabulation configs.
// Use ConfigLoader to load configs from files or readers; identical
// configs are built once.
type ConfigLoader struct {
	// validator performs struct tag and custom validation.
	validator *validator.Validate
	// registry builds the configured rules.
	registry ports.RuleRegistry
	// cache stores built plans indexed by SHA256 of the normalized config.
	cache   map[string]*Plan
	cacheMu sync.RWMutex
	// sf prevents duplicate builds when goroutines load the same config.
	sf singleflight.Group
}

// NewConfigLoader creates a config loader that builds rules through
// registry. A nil registry uses NewDefaultRuleRegistry.
func NewConfigLoader(registry ports.RuleRegistry) (*ConfigLoader, error) {
	if registry == nil {
		registry = NewDefaultRuleRegistry()
	}

	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator: v,
		registry:  registry,
		cache:     make(map[string]*Plan),
	}, nil
}

// load parses data, then builds or reuses the cached plan.
func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Plan, error) {
	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := cl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if plan, ok := cl.getCachedPlan(hash); ok {
			return plan, nil
		}

		if err := cl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		plan, err := cl.buildPlan(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to build plan: %w", err)
		}

		cl.cachePlan(hash, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	plan, ok := v.(*Plan)
	if !ok {
		return nil, ports.NewCacheError(hash, "load", ports.ErrCacheCorrupted)
	}
	return plan, nil
}

// LoadFromFile loads a tabulation config from a YAML file.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Plan, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ports.NewConfigError(path, ports.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return cl.load(ctx, data)
}

// LoadFromReader loads a tabulation config from r.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.load(ctx, data)
}

// parseYAML decodes data strictly; unknown fields are errors.
func (cl *ConfigLoader) parseYAML(data []byte) (*TabulationConfig, error) {
	var config TabulationConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct validation and then the cross-field checks.
func (cl *ConfigLoader) validateConfig(config *TabulationConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := cl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// validateSemantics checks rules that struct tags cannot express.
func (cl *ConfigLoader) validateSemantics(config *TabulationConfig) error {
	verr := domain.NewValidationError("TabulationConfig")

	seen := make(map[string]struct{}, len(config.Rules))
	for _, rc := range config.Rules {
		if _, dup := seen[rc.ID]; dup {
			verr.AddError(fmt.Sprintf("duplicate rule id %q", rc.ID))
		}
		seen[rc.ID] = struct{}{}
	}

	if len(config.Priority) > 0 && domain.TieBreaker(config.TieBreaker) != domain.TiePriority {
		verr.AddError("priority is only used with tie_breaker: priority")
	}

	topN := make(map[int]struct{}, len(config.TopN))
	for _, n := range config.TopN {
		if _, dup := topN[n]; dup {
			verr.AddError(fmt.Sprintf("duplicate top_n value %d", n))
		}
		topN[n] = struct{}{}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// buildPlan creates every configured rule. Rules inherit the config's
// tie_breaker and priority unless their parameters set them.
func (cl *ConfigLoader) buildPlan(ctx context.Context, config *TabulationConfig) (*Plan, error) {
	plan := &Plan{Config: config, Rules: make([]ports.Rule, 0, len(config.Rules))}

	for _, rc := range config.Rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rule, err := cl.createRule(config, rc)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rc.ID, err)
		}
		plan.Rules = append(plan.Rules, rule)
	}
	return plan, nil
}

// createRule merges defaults into the rule's parameters and builds it.
// The config's priority list only applies to rules using the priority
// policy.
func (cl *ConfigLoader) createRule(config *TabulationConfig, rc RuleConfig) (ports.Rule, error) {
	params := make(map[string]any)
	if rc.Parameters.Kind != 0 {
		if err := rc.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	if _, ok := params["tie_breaker"]; !ok && config.TieBreaker != "" {
		params["tie_breaker"] = config.TieBreaker
	}
	_, hasPriority := params["priority"]
	if !hasPriority && params["tie_breaker"] == string(domain.TiePriority) && len(config.Priority) > 0 {
		params["priority"] = config.Priority
	}

	return cl.registry.CreateRule(domain.RuleName(rc.Type), rc.ID, params)
}

// calculateConfigHash hashes the re-encoded config so formatting
// differences in the source do not defeat the cache.
func (cl *ConfigLoader) calculateConfigHash(config *TabulationConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (cl *ConfigLoader) getCachedPlan(hash string) (*Plan, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	plan, ok := cl.cache[hash]
	return plan, ok
}

func (cl *ConfigLoader) cachePlan(hash string, plan *Plan) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = plan
}

// ClearCache drops every cached plan.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Plan)
}
