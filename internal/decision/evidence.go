package decision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"claimguard/internal/claims/models"
	"claimguard/internal/decision/metrics"
	"claimguard/internal/decision/ports"
	"claimguard/internal/rules"
	"claimguard/pkg/platform/sentinel"
)

// DefaultLookupTimeout bounds each external lookup when none is configured.
const DefaultLookupTimeout = 2 * time.Second

// Evidence is what the external collaborators could tell us about a claim.
// A nil Policy or Vision is recorded in Degraded with the reason.
type Evidence struct {
	Policy    *models.PolicyRecord
	Vision    *models.VisionAssessment
	Degraded  []string
	FetchedAt time.Time
	Latencies EvidenceLatencies
}

type EvidenceLatencies struct {
	Policy time.Duration
	Vision time.Duration
}

// Input assembles the rule input for the claim.
func (e Evidence) Input(claim models.Claim) rules.Input {
	return rules.Input{Claim: claim, Policy: e.Policy, Vision: e.Vision}
}

// Gatherer fetches the policy record and vision assessment in parallel.
type Gatherer struct {
	policies ports.PolicyDirectory
	vision   ports.VisionProvider
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type GathererOption func(*Gatherer)

// WithLookupTimeout bounds each lookup. Non-positive values keep the default.
func WithLookupTimeout(d time.Duration) GathererOption {
	return func(g *Gatherer) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithGathererLogger(logger *slog.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

func WithGathererMetrics(m *metrics.Metrics) GathererOption {
	return func(g *Gatherer) {
		g.metrics = m
	}
}

func NewGatherer(policies ports.PolicyDirectory, vision ports.VisionProvider, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		policies: policies,
		vision:   vision,
		timeout:  DefaultLookupTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather never fails: lookups that miss, time out or error become degraded
// signals and nil inputs, which the rules turn into Warn results.
func (g *Gatherer) Gather(ctx context.Context, claim *models.Claim) Evidence {
	ctx, span := tracer.Start(ctx, "decision.Gather")
	defer span.End()

	ev := Evidence{FetchedAt: time.Now()}
	var policySignal, visionSignal string

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		start := time.Now()
		lctx, cancel := context.WithTimeout(gctx, g.timeout)
		defer cancel()
		record, err := g.policies.Lookup(lctx, claim.PolicyNumber)
		ev.Latencies.Policy = time.Since(start)
		g.metrics.ObserveEvidenceLatency("policy", ev.Latencies.Policy)
		if err != nil {
			policySignal = classify(err, lctx, models.SignalPolicyNotFound, models.SignalPolicyLookupTimeout, models.SignalPolicyUnavailable)
			g.logger.WarnContext(ctx, "policy lookup degraded",
				"claim_id", claim.ID,
				"policy_number", claim.PolicyNumber,
				"signal", policySignal,
				"error", err,
			)
			return nil
		}
		ev.Policy = &record
		return nil
	})

	if !claim.HasImage() {
		visionSignal = models.SignalNoEvidenceImage
	} else if g.vision == nil {
		visionSignal = models.SignalAssessmentUnavailable
	} else {
		group.Go(func() error {
			start := time.Now()
			lctx, cancel := context.WithTimeout(gctx, g.timeout)
			defer cancel()
			assessment, err := g.vision.Assess(lctx, claim.ImageRef)
			ev.Latencies.Vision = time.Since(start)
			g.metrics.ObserveEvidenceLatency("vision", ev.Latencies.Vision)
			if err != nil {
				visionSignal = classify(err, lctx, "", models.SignalAssessmentTimeout, models.SignalAssessmentUnavailable)
				g.logger.WarnContext(ctx, "vision assessment degraded",
					"claim_id", claim.ID,
					"signal", visionSignal,
					"error", err,
				)
				return nil
			}
			ev.Vision = &assessment
			return nil
		})
	}

	_ = group.Wait()

	for _, sig := range []string{policySignal, visionSignal} {
		if sig != "" {
			ev.Degraded = append(ev.Degraded, sig)
			g.metrics.IncrementDegraded(sig)
		}
	}
	return ev
}

func classify(err error, lctx context.Context, notFound, timeout, unavailable string) string {
	switch {
	case notFound != "" && errors.Is(err, sentinel.ErrNotFound):
		return notFound
	case errors.Is(err, sentinel.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(lctx.Err(), context.DeadlineExceeded):
		return timeout
	default:
		return unavailable
	}
}
