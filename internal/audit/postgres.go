package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"claimguard/internal/claims/models"
	txcontext "claimguard/pkg/platform/tx"
)

// PostgresStore writes entries to the audit_entries table. Inserts are
// idempotent on the entry ID.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entries ...models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		for _, e := range entries {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal audit entry %s: %w", e.ID, err)
			}
			_, err = s.execer(ctx).ExecContext(ctx, `
				INSERT INTO audit_entries (id, claim_id, occurred_at, action, prior_state, new_state, actor_id, payload)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING`,
				e.ID, e.ClaimID, e.Timestamp, string(e.Action), string(e.PriorState),
				string(e.NewState), e.Actor.ID, payload,
			)
			if err != nil {
				return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListByClaim(ctx context.Context, claimID string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM audit_entries
		WHERE claim_id = $1
		ORDER BY occurred_at, recorded_at, id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var e models.AuditEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
