package ports

import (
	"context"

	"claimguard/internal/claims/models"
)

// PolicyDirectory resolves policy numbers. Lookup returns an error wrapping
// sentinel.ErrNotFound when the policy does not exist.
type PolicyDirectory interface {
	Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error)
}

// VisionProvider scores an evidence image. Failures wrap sentinel.ErrUnavailable
// or sentinel.ErrTimeout.
type VisionProvider interface {
	Assess(ctx context.Context, imageRef string) (models.VisionAssessment, error)
}
