package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
)

// PostgresStore persists clock events in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE time_events (
//	    id            UUID PRIMARY KEY,
//	    tenant_id     TEXT NOT NULL,
//	    employee_id   TEXT NOT NULL,
//	    employee_name TEXT NOT NULL,
//	    action        TEXT NOT NULL CHECK (action IN ('in', 'out')),
//	    ts_millis     BIGINT NOT NULL,
//	    site_name     TEXT NOT NULL,
//	    lat           DOUBLE PRECISION,
//	    lng           DOUBLE PRECISION,
//	    note          TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX time_events_tenant_ts ON time_events (tenant_id, ts_millis);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts all events in one transaction so synthesized override pairs
// land atomically.
func (s *PostgresStore) Append(ctx context.Context, tenantID string, events ...domain.TimeEvent) ([]domain.TimeEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	appended := make([]domain.TimeEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		ev.TenantID = tenantID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO time_events (id, tenant_id, employee_id, employee_name, action, ts_millis, site_name, lat, lng, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			ev.ID, ev.TenantID, ev.EmployeeID, ev.EmployeeName, string(ev.Action),
			ev.Timestamp, ev.SiteName, ev.Lat, ev.Lng, ev.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
		appended = append(appended, ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return appended, nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]domain.TimeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, employee_id, employee_name, action, ts_millis, site_name, lat, lng, note
		FROM time_events
		WHERE tenant_id = $1
		ORDER BY ts_millis ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.TimeEvent
	for rows.Next() {
		var ev domain.TimeEvent
		var action string
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.EmployeeID, &ev.EmployeeName,
			&action, &ev.Timestamp, &ev.SiteName, &ev.Lat, &ev.Lng, &ev.Note); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		parsed, err := domain.ParseAction(action)
		if err != nil {
			return nil, fmt.Errorf("stored event %s: %w", ev.ID, err)
		}
		ev.Action = parsed
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Remove(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM time_events WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("remove event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove event: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Patch(ctx context.Context, tenantID, id string, patch domain.EventPatch) (domain.TimeEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE time_events
		SET note = COALESCE($3, note),
		    lat  = COALESCE($4, lat),
		    lng  = COALESCE($5, lng)
		WHERE tenant_id = $1 AND id = $2
		RETURNING id, tenant_id, employee_id, employee_name, action, ts_millis, site_name, lat, lng, note`,
		tenantID, id, patch.Note, patch.Lat, patch.Lng)

	var ev domain.TimeEvent
	var action string
	err := row.Scan(&ev.ID, &ev.TenantID, &ev.EmployeeID, &ev.EmployeeName,
		&action, &ev.Timestamp, &ev.SiteName, &ev.Lat, &ev.Lng, &ev.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TimeEvent{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.TimeEvent{}, fmt.Errorf("patch event: %w", err)
	}
	ev.Action = domain.Action(action)
	return ev, nil
}
