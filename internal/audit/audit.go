// Package audit delivers committed claim audit entries to durable stores.
//
// The claim record already carries its audit trail, persisted atomically with
// every transition. This package is the outbound copy: a buffered publisher
// that retries stores until they accept each entry, and the stores themselves
// (memory, PostgreSQL, Kafka). Stores must treat a repeated entry ID as a
// no-op because retries re-send whole batches.
package audit

import (
	"context"
	"errors"

	"claimguard/internal/claims/models"
)

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entries ...models.AuditEntry) error
}

// Reader lists the entries recorded for a claim, oldest first.
type Reader interface {
	ListByClaim(ctx context.Context, claimID string) ([]models.AuditEntry, error)
}

// ErrBufferFull is returned by Record when the publisher is at capacity.
// The entry is still part of the claim's own trail.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("audit publisher closed")

// Tee appends to every store and joins their errors.
func Tee(stores ...Store) Store {
	return tee(stores)
}

type tee []Store

func (t tee) Append(ctx context.Context, entries ...models.AuditEntry) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, entries...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
