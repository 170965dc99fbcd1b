package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"claimguard/internal/claims/models"
	dErrors "claimguard/pkg/domain-errors"
)

// BatchResult is the outcome of one claim in a batch.
type BatchResult struct {
	ClaimID   string         `json:"claim_id"`
	State     models.State   `json:"state,omitempty"`
	Verdict   models.Verdict `json:"verdict,omitempty"`
	RiskScore *int           `json:"risk_score,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
	Error     error          `json:"-"`
}

// BatchEvaluate evaluates ids with at most workers in flight (the configured
// default when workers < 1). Cancellation is honoured between claims only: a
// claim that has started runs to completion so its report is never partially
// applied, and claims not yet started are returned as skipped. The returned
// error is ctx.Err() when the batch was cut short.
func (s *Service) BatchEvaluate(ctx context.Context, ids []string, workers int, actor models.Actor) ([]BatchResult, error) {
	ctx, span := tracer.Start(ctx, "claims.BatchEvaluate")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveBatch(start)

	if workers < 1 {
		workers = s.cfg.BatchWorkers
	}
	if actor.IsZero() {
		actor = models.SystemActor
	}

	results := make([]BatchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, id := range ids {
		results[i].ClaimID = id
		if ctx.Err() != nil {
			results[i].Skipped = true
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].Skipped = true
				return nil
			}
			claim, err := s.Evaluate(context.WithoutCancel(ctx), id, actor)
			if err != nil {
				results[i].Error = err
				return nil
			}
			results[i].State = claim.State
			if r := claim.LatestReport(); r != nil {
				score := r.RiskScore
				results[i].Verdict = r.Verdict
				results[i].RiskScore = &score
			}
			return nil
		})
	}
	_ = g.Wait()

	failed, skipped := 0, 0
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Error != nil:
			failed++
		}
	}
	s.logger.InfoContext(ctx, "batch evaluation finished",
		"claims", len(ids),
		"failed", failed,
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err := ctx.Err(); err != nil {
		return results, dErrors.Wrap(err, dErrors.CodeTimeout, "batch evaluation cancelled")
	}
	return results, nil
}
