//go:build integration

package events_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"shiftledger/internal/domain"
	"shiftledger/internal/events"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/testutil/containers"
)

const timeEventsSchema = `
CREATE TABLE IF NOT EXISTS time_events (
    id            UUID PRIMARY KEY,
    tenant_id     TEXT NOT NULL,
    employee_id   TEXT NOT NULL,
    employee_name TEXT NOT NULL,
    action        TEXT NOT NULL CHECK (action IN ('in', 'out')),
    ts_millis     BIGINT NOT NULL,
    site_name     TEXT NOT NULL,
    lat           DOUBLE PRECISION,
    lng           DOUBLE PRECISION,
    note          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS time_events_tenant_ts ON time_events (tenant_id, ts_millis);`

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *events.PostgresStore
	ctx   context.Context
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())

	db, err := sql.Open("postgres", pg.DSN)
	require.NoError(s.T(), err)
	s.db = db
	s.ctx = context.Background()

	_, err = db.ExecContext(s.ctx, timeEventsSchema)
	require.NoError(s.T(), err)
	s.store = events.NewPostgresStore(db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE time_events`)
	require.NoError(s.T(), err)
}

func (s *PostgresStoreSuite) event(emp string, action domain.Action, at time.Time) domain.TimeEvent {
	return domain.TimeEvent{
		EmployeeID: emp, EmployeeName: emp, Action: action,
		Timestamp: at.UnixMilli(), SiteName: "siteA",
	}
}

func (s *PostgresStoreSuite) TestAppendListRoundTrip() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appended, err := s.store.Append(s.ctx, tenant,
		s.event("e1", domain.ActionOut, base.Add(8*time.Hour)),
		s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)
	require.Len(s.T(), appended, 2)
	assert.NotEmpty(s.T(), appended[0].ID)

	listed, err := s.store.List(s.ctx, tenant)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2)
	assert.Equal(s.T(), domain.ActionIn, listed[0].Action, "listed ascending by timestamp")
	assert.Equal(s.T(), domain.ActionOut, listed[1].Action)
}

func (s *PostgresStoreSuite) TestTenantsAreIsolated() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	_, err := s.store.Append(s.ctx, tenant, s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	listed, err := s.store.List(s.ctx, "globex")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), listed)
}

func (s *PostgresStoreSuite) TestRemove() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appended, err := s.store.Append(s.ctx, tenant, s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.store.Remove(s.ctx, tenant, appended[0].ID))
	assert.ErrorIs(s.T(), s.store.Remove(s.ctx, tenant, appended[0].ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPatchCoalescesNilFields() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	lat, lng := 40.7, -74.0
	ev := s.event("e1", domain.ActionIn, base)
	ev.Lat, ev.Lng = &lat, &lng
	appended, err := s.store.Append(s.ctx, tenant, ev)
	require.NoError(s.T(), err)

	note := "badge reader down"
	patched, err := s.store.Patch(s.ctx, tenant, appended[0].ID, domain.EventPatch{Note: &note})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "badge reader down", patched.Note)
	require.NotNil(s.T(), patched.Lat)
	assert.Equal(s.T(), 40.7, *patched.Lat, "unpatched coordinates survive")
}

func (s *PostgresStoreSuite) TestPatchUnknownID() {
	_, err := s.store.Patch(s.ctx, tenant, "3b64a1d4-0000-0000-0000-000000000000", domain.EventPatch{})
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}
