package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimguard/internal/claims/models"
)

// Materializer consumes the audit topic into a Store. Offsets are committed
// only after the store accepted every record of a poll, so a crash replays
// entries and the store's ID idempotency absorbs the duplicates.
type Materializer struct {
	client *kgo.Client
	store  Store
	logger *slog.Logger
	retry  time.Duration
}

func NewMaterializer(client *kgo.Client, store Store, logger *slog.Logger) *Materializer {
	return &Materializer{client: client, store: store, logger: logger, retry: time.Second}
}

// Run polls until ctx is cancelled or the client is closed.
func (m *Materializer) Run(ctx context.Context) error {
	for {
		fetches := m.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		for _, fe := range fetches.Errors() {
			m.logger.WarnContext(ctx, "audit fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		var entries []models.AuditEntry
		fetches.EachRecord(func(r *kgo.Record) {
			if e, ok := m.decode(ctx, r); ok {
				entries = append(entries, e)
			}
		})
		if fetches.NumRecords() == 0 {
			continue
		}

		if err := m.appendWithRetry(ctx, entries); err != nil {
			return nil
		}
		if err := m.client.CommitUncommittedOffsets(ctx); err != nil {
			m.logger.WarnContext(ctx, "audit offset commit failed", "error", err)
		}
		m.logger.DebugContext(ctx, "materialized audit entries", "count", len(entries))
	}
}

// appendWithRetry holds the poll loop until the store accepts entries. It
// returns an error only when ctx ends first.
func (m *Materializer) appendWithRetry(ctx context.Context, entries []models.AuditEntry) error {
	backoff := m.retry
	for {
		err := m.store.Append(ctx, entries...)
		if err == nil {
			return nil
		}
		m.logger.ErrorContext(ctx, "failed to materialize audit entries",
			"count", len(entries),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

// decode returns the entry carried by r. Malformed records are logged and
// skipped so they do not block the partition.
func (m *Materializer) decode(ctx context.Context, r *kgo.Record) (models.AuditEntry, bool) {
	e, err := DecodeRecord(r.Value)
	if err != nil {
		m.logger.ErrorContext(ctx, "skipping malformed audit record",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
			"key", string(r.Key),
			"error", err,
		)
		return models.AuditEntry{}, false
	}
	return e, true
}

// DecodeRecord parses and validates one audit topic value.
func DecodeRecord(value []byte) (models.AuditEntry, error) {
	var e models.AuditEntry
	if err := json.Unmarshal(value, &e); err != nil {
		return models.AuditEntry{}, fmt.Errorf("unmarshal audit entry: %w", err)
	}
	switch {
	case e.ID == "":
		return models.AuditEntry{}, errors.New("audit entry missing id")
	case e.ClaimID == "":
		return models.AuditEntry{}, errors.New("audit entry missing claim_id")
	case e.Action == "":
		return models.AuditEntry{}, errors.New("audit entry missing action")
	case !e.NewState.IsValid():
		return models.AuditEntry{}, fmt.Errorf("audit entry has invalid new_state %q", e.NewState)
	}
	return e, nil
}
