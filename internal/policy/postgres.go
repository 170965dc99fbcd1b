package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

// PostgresDirectory reads policies from the policies table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error) {
	var (
		r     models.PolicyRecord
		limit int64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT number, coverage_limit, status, valid_from, valid_to, insured_name
		FROM policies WHERE number = $1`, normalize(policyNumber),
	).Scan(&r.Number, &limit, &r.Status, &r.ValidFrom, &r.ValidTo, &r.InsuredName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PolicyRecord{}, fmt.Errorf("policy %s: %w", policyNumber, sentinel.ErrNotFound)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return models.PolicyRecord{}, fmt.Errorf("lookup policy: %w", sentinel.ErrTimeout)
		}
		return models.PolicyRecord{}, fmt.Errorf("lookup policy: %w: %w", sentinel.ErrUnavailable, err)
	}
	r.CoverageLimit = models.Money(limit)
	r.ValidFrom = models.DateOnly(r.ValidFrom)
	r.ValidTo = models.DateOnly(r.ValidTo)
	return r, nil
}

// Upsert inserts or replaces a policy record.
func (d *PostgresDirectory) Upsert(ctx context.Context, r models.PolicyRecord) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO policies (number, coverage_limit, status, valid_from, valid_to, insured_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (number) DO UPDATE SET
			coverage_limit = EXCLUDED.coverage_limit,
			status = EXCLUDED.status,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to,
			insured_name = EXCLUDED.insured_name`,
		normalize(r.Number), int64(r.CoverageLimit), string(r.Status),
		models.DateOnly(r.ValidFrom), models.DateOnly(r.ValidTo), r.InsuredName,
	)
	if err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	return nil
}
