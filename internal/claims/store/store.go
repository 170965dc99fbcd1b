// Package store persists claims with optimistic concurrency. Every committed
// update bumps Claim.Version; an update computed from a stale version fails
// with sentinel.ErrConflict and leaves the stored claim untouched.
package store

import "claimguard/internal/claims/models"

// Mutator edits a private copy of the claim. Returning an error aborts the
// update without persisting anything.
type Mutator func(c *models.Claim) error
