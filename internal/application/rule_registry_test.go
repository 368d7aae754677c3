package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/internal/domain"
)

// countingMetrics counts calls per metric name.
type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) inc(metric string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metric]++
}

func (m *countingMetrics) get(metric string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[metric]
}

func (m *countingMetrics) RecordLatency(op string, _ time.Duration, _ map[string]string) { m.inc(op) }
func (m *countingMetrics) RecordCounter(metric string, _ float64, _ map[string]string)   { m.inc(metric) }
func (m *countingMetrics) RecordGauge(metric string, _ float64, _ map[string]string)     { m.inc(metric) }
func (m *countingMetrics) RecordHistogram(metric string, _ float64, _ map[string]string) {
	m.inc(metric)
}

func TestNewDefaultRuleRegistry(t *testing.T) {
	registry := NewDefaultRuleRegistry()

	assert.NotNil(t, registry.factories)
	assert.Equal(t, domain.AllRules(), registry.SupportedRules())
}

func TestDefaultRuleRegistry_CreateRule(t *testing.T) {
	registry := NewDefaultRuleRegistry()

	tests := []struct {
		name     string
		kind     domain.RuleName
		id       string
		config   map[string]any
		wantName string
		wantErr  error
	}{
		{name: "irv with defaults", kind: domain.RuleIRV, id: "city", wantName: "city"},
		{name: "empty id uses rule name", kind: domain.RuleBorda, wantName: "borda"},
		{
			name:     "minimax with metric",
			kind:     domain.RuleMinimax,
			id:       "mm",
			config:   map[string]any{"metric": "margins"},
			wantName: "mm",
		},
		{
			name:     "priority policy",
			kind:     domain.RuleCopeland,
			id:       "cope",
			config:   map[string]any{"tie_breaker": "priority", "priority": []any{"Z", "Y"}},
			wantName: "cope",
		},
		{name: "unknown rule", kind: "schulze", id: "s", wantErr: domain.ErrUnknownRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := registry.CreateRule(tt.kind, tt.id, tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rule.Name())
			assert.Equal(t, tt.kind, rule.Kind())
			assert.NoError(t, rule.Validate())
		})
	}

	t.Run("invalid parameters are wrapped", func(t *testing.T) {
		_, err := registry.CreateRule(domain.RuleIRV, "bad", map[string]any{"tie_breaker": "coin_flip"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create rule bad of type irv")
	})
}

func TestDefaultRuleRegistry_SetMetricsCollector(t *testing.T) {
	registry := NewDefaultRuleRegistry()
	metrics := newCountingMetrics()
	registry.SetMetricsCollector(metrics)

	rule, err := registry.CreateRule(domain.RulePlurality, "plural", nil)
	require.NoError(t, err)
	assert.IsType(t, &middleware.TracedRule{}, rule)

	e := testElection(t)
	_, err = rule.Tabulate(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.get(middleware.MetricTabulationsTotal))

	registry.SetMetricsCollector(nil)
	plain, err := registry.CreateRule(domain.RulePlurality, "plural", nil)
	require.NoError(t, err)
	_, isTraced := plain.(*middleware.TracedRule)
	assert.False(t, isTraced)
}

func TestDefaultRuleRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewDefaultRuleRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, kind := range registry.SupportedRules() {
				_, err := registry.CreateRule(kind, "", nil)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			registry.SetMetricsCollector(newCountingMetrics())
		}()
	}
	wg.Wait()
}
