package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

// PostgresStore persists periods and confirmations via pgx. Expected schema:
//
//	CREATE TABLE payroll_periods (
//	    id         TEXT PRIMARY KEY,
//	    tenant_id  TEXT NOT NULL,
//	    start_date TIMESTAMPTZ NOT NULL,
//	    end_date   TIMESTAMPTZ NOT NULL,
//	    revision   INTEGER NOT NULL DEFAULT 1,
//	    lines      JSONB NOT NULL DEFAULT '[]'
//	);
//	CREATE INDEX payroll_periods_tenant_idx ON payroll_periods (tenant_id, start_date);
//
//	CREATE TABLE payroll_confirmations (
//	    tenant_id    TEXT NOT NULL,
//	    period_id    TEXT NOT NULL REFERENCES payroll_periods (id),
//	    doc_key      TEXT NOT NULL,
//	    employee_id  TEXT NOT NULL,
//	    revision     INTEGER NOT NULL,
//	    confirmed_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (tenant_id, period_id, doc_key)
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func (s *PostgresStore) CreatePeriod(ctx context.Context, period domain.PayrollPeriod) (domain.PayrollPeriod, error) {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if period.Revision < 1 {
		period.Revision = 1
	}
	lines, err := json.Marshal(period.Lines)
	if err != nil {
		return domain.PayrollPeriod{}, fmt.Errorf("marshal payroll lines: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO payroll_periods (id, tenant_id, start_date, end_date, revision, lines)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		period.ID, period.TenantID, period.StartDate, period.EndDate, period.Revision, lines)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.PayrollPeriod{}, sentinel.ErrConflict
		}
		return domain.PayrollPeriod{}, fmt.Errorf("insert payroll period: %w", err)
	}
	return period, nil
}

func (s *PostgresStore) GetPeriod(ctx context.Context, tenantID, id string) (domain.PayrollPeriod, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, start_date, end_date, revision, lines
		FROM payroll_periods
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	return scanPeriod(row)
}

func (s *PostgresStore) ListPeriods(ctx context.Context, tenantID string) ([]domain.PayrollPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, start_date, end_date, revision, lines
		FROM payroll_periods
		WHERE tenant_id = $1
		ORDER BY start_date, id`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list payroll periods: %w", err)
	}
	defer rows.Close()

	var listed []domain.PayrollPeriod
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		listed = append(listed, period)
	}
	return listed, rows.Err()
}

func (s *PostgresStore) BumpRevision(ctx context.Context, tenantID, id string) (domain.PayrollPeriod, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE payroll_periods
		SET revision = revision + 1
		WHERE tenant_id = $1 AND id = $2
		RETURNING id, tenant_id, start_date, end_date, revision, lines`,
		tenantID, id)
	return scanPeriod(row)
}

func (s *PostgresStore) PutConfirmation(ctx context.Context, tenantID, periodID string, confirmation domain.PayrollConfirmation) (domain.PayrollConfirmation, error) {
	confirmation.PeriodID = periodID
	key := ConfirmationKey(confirmation.EmployeeID, confirmation.Revision)

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO payroll_confirmations (tenant_id, period_id, doc_key, employee_id, revision, confirmed_at)
		SELECT $1, id, $3, $4, $5, $6 FROM payroll_periods WHERE tenant_id = $1 AND id = $2
		ON CONFLICT (tenant_id, period_id, doc_key)
		DO UPDATE SET confirmed_at = EXCLUDED.confirmed_at`,
		tenantID, periodID, key, confirmation.EmployeeID, confirmation.Revision, confirmation.ConfirmedAt)
	if err != nil {
		return domain.PayrollConfirmation{}, fmt.Errorf("put confirmation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.PayrollConfirmation{}, sentinel.ErrNotFound
	}
	return confirmation, nil
}

func (s *PostgresStore) ListConfirmations(ctx context.Context, tenantID, periodID string) ([]domain.PayrollConfirmation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT period_id, employee_id, revision, confirmed_at
		FROM payroll_confirmations
		WHERE tenant_id = $1 AND period_id = $2
		ORDER BY doc_key`,
		tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	defer rows.Close()

	var listed []domain.PayrollConfirmation
	for rows.Next() {
		var c domain.PayrollConfirmation
		if err := rows.Scan(&c.PeriodID, &c.EmployeeID, &c.Revision, &c.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan confirmation: %w", err)
		}
		listed = append(listed, c)
	}
	return listed, rows.Err()
}

func scanPeriod(row pgx.Row) (domain.PayrollPeriod, error) {
	var period domain.PayrollPeriod
	var lines []byte
	err := row.Scan(&period.ID, &period.TenantID, &period.StartDate, &period.EndDate, &period.Revision, &lines)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PayrollPeriod{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.PayrollPeriod{}, fmt.Errorf("scan payroll period: %w", err)
	}
	if err := json.Unmarshal(lines, &period.Lines); err != nil {
		return domain.PayrollPeriod{}, fmt.Errorf("decode payroll lines: %w", err)
	}
	return period, nil
}
