package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// ruleOptions selects the rules a command applies. Rules come either from
// a tabulation config file or from --rule flags; with neither, every
// built-in rule runs.
type ruleOptions struct {
	config      string
	rules       []string
	tieBreaker  string
	priority    []string
	concurrency int
	metricsFile string
}

func (o *ruleOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "tabulation config file (YAML)")
	f.StringSliceVarP(&o.rules, "rule", "r", nil, "rule to apply (repeatable; default all)")
	f.StringVar(&o.tieBreaker, "tie-breaker", string(domain.TieLexicographic),
		"tie-break policy: lexicographic, declaration, priority")
	f.StringSliceVar(&o.priority, "priority", nil, "candidate order for the priority tie breaker")
	f.IntVar(&o.concurrency, "concurrency", 0, "rules to run at once (0 = default)")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	cmd.MarkFlagsMutuallyExclusive("config", "rule")
	cmd.MarkFlagsMutuallyExclusive("config", "tie-breaker")
	cmd.MarkFlagsMutuallyExclusive("config", "priority")
}

// session holds the collaborators one command invocation uses.
type session struct {
	registry  *application.DefaultRuleRegistry
	loader    *application.ElectionLoader
	tabulator *application.Tabulator
	plan      *application.Plan

	metricsReg  *prometheus.Registry
	metricsFile string
}

// newSession wires the registry, loaders and tabulator and resolves the
// rule plan. Metrics are collected only when a metrics file is requested.
func (o *ruleOptions) newSession(ctx context.Context) (*session, error) {
	s := &session{
		registry:    application.NewDefaultRuleRegistry(),
		metricsFile: o.metricsFile,
	}

	var loaderOpts []application.ElectionLoaderOption
	if o.metricsFile != "" {
		s.metricsReg = prometheus.NewRegistry()
		m := middleware.NewPrometheusMetrics(s.metricsReg)
		s.registry.SetMetricsCollector(m)
		loaderOpts = append(loaderOpts, application.WithLoaderMetrics(m))
	}
	s.loader = application.NewElectionLoader(loaderOpts...)

	plan, err := o.resolvePlan(ctx, s.registry)
	if err != nil {
		return nil, err
	}
	s.plan = plan

	concurrency := o.concurrency
	if concurrency == 0 {
		concurrency = plan.Config.Concurrency
	}
	s.tabulator = application.NewTabulator(s.registry,
		application.WithLogger(loggerFromContext(ctx)),
		application.WithConcurrency(concurrency),
	)
	return s, nil
}

func (o *ruleOptions) resolvePlan(ctx context.Context, registry ports.RuleRegistry) (*application.Plan, error) {
	if o.config != "" {
		loader, err := application.NewConfigLoader(registry)
		if err != nil {
			return nil, err
		}
		return loader.LoadFromFile(ctx, o.config)
	}

	kinds := registry.SupportedRules()
	if len(o.rules) > 0 {
		kinds = make([]domain.RuleName, len(o.rules))
		for i, r := range o.rules {
			kinds[i] = domain.RuleName(r)
		}
	}

	params := map[string]any{"tie_breaker": o.tieBreaker}
	if len(o.priority) > 0 {
		params["priority"] = o.priority
	}

	cfg := &application.TabulationConfig{
		Version:    "1.0.0",
		TieBreaker: o.tieBreaker,
		Priority:   o.priority,
	}
	plan := &application.Plan{Config: cfg}
	for _, kind := range kinds {
		rule, err := registry.CreateRule(kind, string(kind), params)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, application.RuleConfig{ID: string(kind), Type: string(kind)})
		plan.Rules = append(plan.Rules, rule)
	}
	return plan, nil
}

// policy returns the plan's default tie-break policy for e.
func (s *session) policy(e *domain.Election) (domain.TieBreakPolicy, error) {
	cfg := s.plan.Config
	priority := make([]domain.Candidate, len(cfg.Priority))
	for i, p := range cfg.Priority {
		priority[i] = domain.Candidate(p)
	}
	return domain.NewTieBreakPolicy(domain.TieBreaker(cfg.TieBreaker), e, priority)
}

// flushMetrics writes the collected metrics in the Prometheus text format.
func (s *session) flushMetrics() error {
	if s.metricsReg == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.metricsReg); err != nil {
		return ports.NewMetricsError(s.metricsFile, "write", err)
	}
	return nil
}
