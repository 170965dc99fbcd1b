package service

import (
	"context"
	"iter"

	"claimguard/internal/claims/models"
)

// Get returns the claim with its report history and audit trail.
func (s *Service) Get(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.claims.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load claim")
	}
	return claim, nil
}

// List streams claim summaries matching filter. Nothing is read until the
// caller ranges over the sequence.
func (s *Service) List(ctx context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error] {
	return func(yield func(models.ClaimSummary, error) bool) {
		for summary, err := range s.claims.List(ctx, filter) {
			if err != nil {
				yield(models.ClaimSummary{}, translate(err, "failed to list claims"))
				return
			}
			if !yield(summary, nil) {
				return
			}
		}
	}
}

// Stats aggregates the dashboard figures over every claim matching filter.
func (s *Service) Stats(ctx context.Context, filter models.ClaimFilter) (models.ClaimStats, error) {
	filter.Limit = 0
	stats := models.NewClaimStats()
	for summary, err := range s.List(ctx, filter) {
		if err != nil {
			return models.ClaimStats{}, err
		}
		stats.Add(summary)
	}
	return stats, nil
}
