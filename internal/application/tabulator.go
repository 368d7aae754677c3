// Package application wires rules, configuration and election loading into
// tabulation runs, and provides the analyses built on top of them.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-tally/infrastructure/rules"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// DefaultConcurrency returns the default number of rules TabulateAll runs
// at once.
func DefaultConcurrency() int { return runtime.NumCPU() * 2 }

// Tabulator applies configured rules to elections. It owns no election
// state; one Tabulator can serve any number of concurrent callers.
type Tabulator struct {
	registry    ports.RuleRegistry
	logger      *log.Logger
	concurrency int
}

// TabulatorOption configures a Tabulator.
type TabulatorOption func(*Tabulator)

// WithLogger sets the logger used for per-rule debug events.
func WithLogger(l *log.Logger) TabulatorOption {
	return func(t *Tabulator) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithConcurrency limits how many rules TabulateAll runs at once.
// Values below 1 select DefaultConcurrency.
func WithConcurrency(n int) TabulatorOption {
	return func(t *Tabulator) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// NewTabulator creates a tabulator that builds rules through registry.
// A nil registry uses NewDefaultRuleRegistry.
func NewTabulator(registry ports.RuleRegistry, opts ...TabulatorOption) *Tabulator {
	if registry == nil {
		registry = NewDefaultRuleRegistry()
	}
	t := &Tabulator{
		registry:    registry,
		logger:      log.New(io.Discard),
		concurrency: DefaultConcurrency(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Registry returns the registry the tabulator builds rules from.
func (t *Tabulator) Registry() ports.RuleRegistry { return t.registry }

// Tabulate applies the named rule with its default parameters.
func (t *Tabulator) Tabulate(ctx context.Context, kind domain.RuleName, e *domain.Election) (domain.Result, error) {
	rule, err := t.registry.CreateRule(kind, "", nil)
	if err != nil {
		return domain.Result{}, err
	}
	return t.Run(ctx, rule, e)
}

// Run applies a configured rule. Rule failures are returned as
// *ports.RuleError.
func (t *Tabulator) Run(ctx context.Context, rule ports.Rule, e *domain.Election) (domain.Result, error) {
	name := electionName(e)
	t.logger.Debug("tabulating", "rule", rule.Name(), "election", name)

	start := time.Now()
	res, err := rule.Tabulate(ctx, e)
	if err != nil {
		t.logger.Debug("rule failed", "rule", rule.Name(), "err", err)
		return res, ports.NewRuleError(rule.Name(), name, err)
	}

	t.logger.Debug("tabulated",
		"rule", rule.Name(),
		"outcome", res.Outcome,
		"winner", res.WinnerOr("-"),
		"tie", res.Tie,
		"rounds", len(res.Rounds),
		"elapsed", time.Since(start).Round(time.Microsecond),
	)
	return res, nil
}

// ReportEntry is the result of one rule within a Report.
type ReportEntry struct {
	// RuleID is the configured name of the rule.
	RuleID string `json:"rule_id"`

	// Result is the rule's result. It is the zero Result when Error is set.
	Result domain.Result `json:"result"`

	// Elapsed is the time the rule took.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Error holds the failure message when the rule failed.
	Error string `json:"error,omitempty"`
}

// Report collects the results of several rules applied to one election.
type Report struct {
	ID          string             `json:"id"`
	Election    string             `json:"election"`
	Candidates  []domain.Candidate `json:"candidates"`
	TotalWeight int64              `json:"total_weight"`
	CreatedAt   time.Time          `json:"created_at"`
	Entries     []ReportEntry      `json:"entries"`
}

// Entry returns the entry for the rule with the given id.
func (r *Report) Entry(id string) (ReportEntry, bool) {
	for _, e := range r.Entries {
		if e.RuleID == id {
			return e, true
		}
	}
	return ReportEntry{}, false
}

// Winners maps each rule id to its winner. Rules without a winner are
// omitted.
func (r *Report) Winners() map[string]domain.Candidate {
	out := make(map[string]domain.Candidate, len(r.Entries))
	for _, e := range r.Entries {
		if e.Error == "" && e.Result.HasWinner() {
			out[e.RuleID] = *e.Result.Winner
		}
	}
	return out
}

// TabulateAll applies every rule to e concurrently and returns their
// results in the order of rs. A failing rule does not stop the others; the
// returned error joins every rule's *ports.RuleError and the report still
// holds the successful results.
func (t *Tabulator) TabulateAll(ctx context.Context, rs []ports.Rule, e *domain.Election) (*Report, error) {
	if e == nil {
		return nil, rules.ErrNilElection
	}

	report := &Report{
		ID:          uuid.NewString(),
		Election:    e.Name(),
		Candidates:  e.Candidates(),
		TotalWeight: e.TotalWeight(),
		CreatedAt:   time.Now().UTC(),
		Entries:     make([]ReportEntry, len(rs)),
	}
	errs := make([]error, len(rs))

	var g errgroup.Group
	g.SetLimit(t.concurrency)

	for i, rule := range rs {
		i, rule := i, rule
		g.Go(func() error {
			start := time.Now()
			res, err := t.Run(ctx, rule, e)
			entry := ReportEntry{RuleID: rule.Name(), Result: res, Elapsed: time.Since(start)}
			if err != nil {
				entry.Result = domain.Result{}
				entry.Error = err.Error()
				errs[i] = err
			}
			report.Entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	t.logger.Debug("report complete", "id", report.ID, "rules", len(rs))

	if err := errors.Join(errs...); err != nil {
		return report, fmt.Errorf("tabulating %s: %w", e.Name(), err)
	}
	return report, nil
}

func electionName(e *domain.Election) string {
	if e == nil {
		return ""
	}
	return e.Name()
}
