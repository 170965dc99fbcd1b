package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
	txcontext "claimguard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists claims in a single row each. Reports and the audit
// trail live in JSONB columns so a transition and its audit entry commit
// together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const claimColumns = `id, policy_number, incident_date, location, claimed_amount, reported_severity,
	collision_type, vehicle_count, description, image_ref, signals, state, reports, audit_trail,
	version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, claim *models.Claim) error {
	if claim.Version == 0 {
		claim.Version = 1
	}
	row, err := toRow(claim)
	if err != nil {
		return err
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`, risk_score, verdict)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		claim.ID, claim.PolicyNumber, models.DateOnly(claim.IncidentDate), claim.Location, int64(claim.ClaimedAmount),
		string(claim.ReportedSeverity), string(claim.CollisionType), claim.VehicleCount, claim.Description,
		claim.ImageRef, row.signals, string(claim.State), row.reports, row.auditTrail,
		claim.Version, claim.CreatedAt, claim.UpdatedAt, row.riskScore, row.verdict,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("claim %s: %w", claim.ID, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Claim, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return claim, nil
}

// Update reads the row, applies mutate and writes it back guarded by the
// version it read.
func (s *PostgresStore) Update(ctx context.Context, id string, mutate Mutator) (*models.Claim, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := current.Version
	if err := mutate(current); err != nil {
		return nil, err
	}
	current.ID = id
	current.Version = readVersion + 1

	row, err := toRow(current)
	if err != nil {
		return nil, err
	}
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE claims SET
			policy_number = $3, incident_date = $4, location = $5, claimed_amount = $6,
			reported_severity = $7, collision_type = $8, vehicle_count = $9, description = $10,
			image_ref = $11, signals = $12, state = $13, reports = $14, audit_trail = $15,
			risk_score = $16, verdict = $17, updated_at = $18, version = version + 1
		WHERE id = $1 AND version = $2`,
		id, readVersion, current.PolicyNumber, models.DateOnly(current.IncidentDate), current.Location,
		int64(current.ClaimedAmount), string(current.ReportedSeverity), string(current.CollisionType),
		current.VehicleCount, current.Description, current.ImageRef, row.signals, string(current.State),
		row.reports, row.auditTrail, row.riskScore, row.verdict, current.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("claim %s at version %d: %w", id, readVersion, sentinel.ErrConflict)
	}
	return current, nil
}

// List streams matching summaries newest first. State, severity and date
// filters run in SQL; the fuzzy search and limit are applied while streaming.
func (s *PostgresStore) List(ctx context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error] {
	filter.Normalize()
	return func(yield func(models.ClaimSummary, error) bool) {
		query, args := listQuery(filter)
		rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
		if err != nil {
			yield(models.ClaimSummary{}, fmt.Errorf("list claims: %w", err))
			return
		}
		defer rows.Close()

		emitted := 0
		for rows.Next() {
			var (
				summary   models.ClaimSummary
				amount    int64
				riskScore sql.NullInt64
				verdict   sql.NullString
			)
			if err := rows.Scan(&summary.ID, &summary.PolicyNumber, &summary.IncidentDate, &amount,
				&summary.ReportedSeverity, &summary.State, &riskScore, &verdict,
				&summary.CreatedAt, &summary.UpdatedAt); err != nil {
				yield(models.ClaimSummary{}, fmt.Errorf("scan claim summary: %w", err))
				return
			}
			summary.ClaimedAmount = models.Money(amount)
			if riskScore.Valid {
				score := int(riskScore.Int64)
				summary.RiskScore = &score
			}
			summary.Verdict = models.Verdict(verdict.String)
			if filter.Search != "" && !filter.Matches(summary) {
				continue
			}
			if !yield(summary, nil) {
				return
			}
			emitted++
			if filter.Limit > 0 && emitted >= filter.Limit {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.ClaimSummary{}, fmt.Errorf("iterate claims: %w", err))
		}
	}
}

func listQuery(f models.ClaimFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, st := range f.States {
			states[i] = string(st)
		}
		add("state = ANY($%d)", pq.Array(states))
	}
	if len(f.Severities) > 0 {
		sevs := make([]string, len(f.Severities))
		for i, sv := range f.Severities {
			sevs[i] = string(sv)
		}
		add("reported_severity = ANY($%d)", pq.Array(sevs))
	}
	if !f.IncidentFrom.IsZero() {
		add("incident_date >= $%d", models.DateOnly(f.IncidentFrom))
	}
	if !f.IncidentTo.IsZero() {
		add("incident_date <= $%d", models.DateOnly(f.IncidentTo))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, policy_number, incident_date, claimed_amount, reported_severity, state,
		risk_score, verdict, created_at, updated_at FROM claims`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if f.Search == "" && f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

type claimRow struct {
	signals    []byte
	reports    []byte
	auditTrail []byte
	riskScore  sql.NullInt64
	verdict    sql.NullString
}

func toRow(c *models.Claim) (claimRow, error) {
	var row claimRow
	var err error
	if row.signals, err = json.Marshal(nonNil(c.Signals)); err != nil {
		return row, fmt.Errorf("marshal signals: %w", err)
	}
	if row.reports, err = json.Marshal(nonNil(c.Reports)); err != nil {
		return row, fmt.Errorf("marshal reports: %w", err)
	}
	if row.auditTrail, err = json.Marshal(nonNil(c.AuditTrail)); err != nil {
		return row, fmt.Errorf("marshal audit trail: %w", err)
	}
	if r := c.LatestReport(); r != nil {
		row.riskScore = sql.NullInt64{Int64: int64(r.RiskScore), Valid: true}
		row.verdict = sql.NullString{String: string(r.Verdict), Valid: true}
	}
	return row, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		c                           models.Claim
		amount                      int64
		signals, reports, auditJSON []byte
	)
	if err := row.Scan(&c.ID, &c.PolicyNumber, &c.IncidentDate, &c.Location, &amount,
		&c.ReportedSeverity, &c.CollisionType, &c.VehicleCount, &c.Description, &c.ImageRef,
		&signals, &c.State, &reports, &auditJSON, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ClaimedAmount = models.Money(amount)
	c.IncidentDate = models.DateOnly(c.IncidentDate)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	if err := json.Unmarshal(signals, &c.Signals); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	if err := json.Unmarshal(reports, &c.Reports); err != nil {
		return nil, fmt.Errorf("unmarshal reports: %w", err)
	}
	if err := json.Unmarshal(auditJSON, &c.AuditTrail); err != nil {
		return nil, fmt.Errorf("unmarshal audit trail: %w", err)
	}
	if len(c.Signals) == 0 {
		c.Signals = nil
	}
	return &c, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
