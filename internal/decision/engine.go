// Package decision composes the registered claim rules into a single ordered
// pass and aggregates their results into a risk score and verdict.
package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"claimguard/internal/claims/models"
	"claimguard/internal/decision/metrics"
	"claimguard/internal/rules"
)

var tracer = otel.Tracer("claimguard/decision")

// Engine runs every registered rule against one input. It holds no mutable
// state after construction and is safe for concurrent use.
type Engine struct {
	rules   []rules.Rule
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock overrides the clock used to stamp EvaluatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides report ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine registers rules in the order given. That order is the order of
// checks in every report.
func NewEngine(registered []rules.Rule, opts ...Option) (*Engine, error) {
	seen := make(map[string]bool, len(registered))
	for _, r := range registered {
		if seen[r.Name()] {
			return nil, fmt.Errorf("rule %s registered twice", r.Name())
		}
		seen[r.Name()] = true
	}
	e := &Engine{
		rules:  append([]rules.Rule(nil), registered...),
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rules returns the registered rules in evaluation order.
func (e *Engine) Rules() []rules.Rule {
	return append([]rules.Rule(nil), e.rules...)
}

// Evaluate runs all rules concurrently and returns the report. Rules are pure,
// so the result depends only on the input; EvaluatedAt and ID are the only
// fields that differ between calls with equal input.
func (e *Engine) Evaluate(ctx context.Context, in rules.Input) models.RuleReport {
	ctx, span := tracer.Start(ctx, "decision.Evaluate", trace.WithAttributes(
		attribute.String("claim.id", in.Claim.ID),
		attribute.Int("rules.count", len(e.rules)),
	))
	defer span.End()
	start := time.Now()

	checks := make([]models.RuleCheckResult, len(e.rules))
	// runRule recovers panics and never returns an error, so Wait cannot fail.
	var g errgroup.Group
	for i, r := range e.rules {
		g.Go(func() error {
			checks[i] = e.runRule(ctx, r, in)
			return nil
		})
	}
	_ = g.Wait()

	score, verdict := Aggregate(checks)
	report := models.RuleReport{
		ID:          e.newID(),
		Checks:      checks,
		RiskScore:   score,
		Verdict:     verdict,
		EvaluatedAt: e.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("report.verdict", string(verdict)),
		attribute.Int("report.risk_score", score),
	)
	e.metrics.ObserveEvaluateLatency(time.Since(start))
	e.metrics.IncrementVerdict(string(verdict))
	for _, c := range checks {
		e.metrics.IncrementCheckOutcome(c.RuleName, string(c.Outcome))
	}
	return report
}

// runRule isolates a single check so a panicking rule degrades to Warn instead
// of aborting the pass.
func (e *Engine) runRule(ctx context.Context, r rules.Rule, in rules.Input) (res models.RuleCheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.ErrorContext(ctx, "rule panicked",
				"rule", r.Name(),
				"claim_id", in.Claim.ID,
				"panic", fmt.Sprint(rec),
			)
			e.metrics.IncrementRulePanic(r.Name())
			res = models.RuleCheckResult{
				RuleName:    r.Name(),
				Outcome:     models.OutcomeWarn,
				Explanation: "rule could not be evaluated",
			}
		}
	}()
	res = r.Check(in)
	res.RuleName = r.Name()
	return res
}
