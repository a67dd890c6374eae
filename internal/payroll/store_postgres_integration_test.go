//go:build integration

package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"shiftledger/internal/domain"
	"shiftledger/internal/payroll"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/testutil/containers"
)

const payrollSchema = `
CREATE TABLE IF NOT EXISTS payroll_periods (
    id         TEXT PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    start_date TIMESTAMPTZ NOT NULL,
    end_date   TIMESTAMPTZ NOT NULL,
    revision   INTEGER NOT NULL DEFAULT 1,
    lines      JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS payroll_periods_tenant_idx ON payroll_periods (tenant_id, start_date);

CREATE TABLE IF NOT EXISTS payroll_confirmations (
    tenant_id    TEXT NOT NULL,
    period_id    TEXT NOT NULL REFERENCES payroll_periods (id),
    doc_key      TEXT NOT NULL,
    employee_id  TEXT NOT NULL,
    revision     INTEGER NOT NULL,
    confirmed_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tenant_id, period_id, doc_key)
);`

type PostgresPayrollSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *payroll.PostgresStore
	ctx   context.Context
}

func (s *PostgresPayrollSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())
	s.ctx = context.Background()

	pool, err := pgxpool.New(s.ctx, pg.DSN)
	require.NoError(s.T(), err)
	s.pool = pool

	_, err = pool.Exec(s.ctx, payrollSchema)
	require.NoError(s.T(), err)
	s.store = payroll.NewPostgresStore(pool)
}

func (s *PostgresPayrollSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresPayrollSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE payroll_confirmations, payroll_periods`)
	require.NoError(s.T(), err)
}

func (s *PostgresPayrollSuite) period(id string) domain.PayrollPeriod {
	return domain.PayrollPeriod{
		ID:        id,
		TenantID:  tenant,
		StartDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		Lines:     []domain.PayrollLine{{EmployeeID: "emp1", EmployeeName: "Dana", Minutes: 480, Amount: 160}},
	}
}

func (s *PostgresPayrollSuite) TestCreateGetRoundTrip() {
	created, err := s.store.CreatePeriod(s.ctx, s.period("p1"))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, created.Revision)

	fetched, err := s.store.GetPeriod(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	require.Len(s.T(), fetched.Lines, 1)
	assert.EqualValues(s.T(), 480, fetched.Lines[0].Minutes)
}

func (s *PostgresPayrollSuite) TestCreateDuplicateConflicts() {
	_, err := s.store.CreatePeriod(s.ctx, s.period("p1"))
	require.NoError(s.T(), err)
	_, err = s.store.CreatePeriod(s.ctx, s.period("p1"))
	assert.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PostgresPayrollSuite) TestBumpIsAtomicAndMonotonic() {
	_, err := s.store.CreatePeriod(s.ctx, s.period("p1"))
	require.NoError(s.T(), err)

	bumped, err := s.store.BumpRevision(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, bumped.Revision)

	_, err = s.store.BumpRevision(s.ctx, tenant, "missing")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PostgresPayrollSuite) TestConfirmationsSurviveBump() {
	_, err := s.store.CreatePeriod(s.ctx, s.period("p1"))
	require.NoError(s.T(), err)

	confirmedAt := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	_, err = s.store.PutConfirmation(s.ctx, tenant, "p1", domain.PayrollConfirmation{
		EmployeeID: "emp1", Revision: 1, ConfirmedAt: confirmedAt,
	})
	require.NoError(s.T(), err)

	_, err = s.store.BumpRevision(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)

	_, err = s.store.PutConfirmation(s.ctx, tenant, "p1", domain.PayrollConfirmation{
		EmployeeID: "emp1", Revision: 2, ConfirmedAt: confirmedAt.Add(24 * time.Hour),
	})
	require.NoError(s.T(), err)

	listed, err := s.store.ListConfirmations(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2, "doc keys differ by revision")
	assert.Equal(s.T(), 1, listed[0].Revision)
	assert.Equal(s.T(), 2, listed[1].Revision)
}

func (s *PostgresPayrollSuite) TestPutConfirmationUpsertsSameRevision() {
	_, err := s.store.CreatePeriod(s.ctx, s.period("p1"))
	require.NoError(s.T(), err)

	first := time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC)
	_, err = s.store.PutConfirmation(s.ctx, tenant, "p1", domain.PayrollConfirmation{
		EmployeeID: "emp1", Revision: 1, ConfirmedAt: first,
	})
	require.NoError(s.T(), err)
	_, err = s.store.PutConfirmation(s.ctx, tenant, "p1", domain.PayrollConfirmation{
		EmployeeID: "emp1", Revision: 1, ConfirmedAt: first.Add(time.Hour),
	})
	require.NoError(s.T(), err)

	listed, err := s.store.ListConfirmations(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 1)
	assert.True(s.T(), listed[0].ConfirmedAt.Equal(first.Add(time.Hour)))
}

func (s *PostgresPayrollSuite) TestPutConfirmationUnknownPeriod() {
	_, err := s.store.PutConfirmation(s.ctx, tenant, "missing", domain.PayrollConfirmation{
		EmployeeID: "emp1", Revision: 1, ConfirmedAt: time.Now(),
	})
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func TestPostgresPayrollSuite(t *testing.T) {
	suite.Run(t, new(PostgresPayrollSuite))
}
