package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"shiftledger/internal/domain"
	"shiftledger/internal/payroll"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/requestcontext"
	"shiftledger/pkg/testutil"
)

const tenant = "acme"

type PayrollSuite struct {
	suite.Suite
	store   *payroll.InMemoryStore
	service *payroll.Service
	ctx     context.Context
}

func (s *PayrollSuite) SetupTest() {
	s.store = payroll.NewInMemoryStore()
	s.service = payroll.NewService(s.store, testutil.Logger())
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC))
}

func (s *PayrollSuite) finalize(id string) domain.PayrollPeriod {
	period, err := s.service.Finalize(s.ctx, domain.PayrollPeriod{
		ID:        id,
		TenantID:  tenant,
		StartDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(s.T(), err)
	return period
}

func (s *PayrollSuite) TestFinalizeStartsAtRevisionOne() {
	period := s.finalize("p1")
	assert.Equal(s.T(), 1, period.Revision)
}

func (s *PayrollSuite) TestFinalizeRejectsInvertedRange() {
	_, err := s.service.Finalize(s.ctx, domain.PayrollPeriod{
		TenantID:  tenant,
		StartDate: time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(s.T(), err, sentinel.ErrInvalidState)
}

func (s *PayrollSuite) TestBumpIsMonotonic() {
	s.finalize("p1")

	bumped, err := s.service.Bump(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, bumped.Revision)

	bumped, err = s.service.Bump(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, bumped.Revision)
}

func (s *PayrollSuite) TestBumpUnknownPeriod() {
	_, err := s.service.Bump(s.ctx, tenant, "nope")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PayrollSuite) TestConfirmStampsCurrentRevision() {
	s.finalize("p1")

	confirmation, err := s.service.Confirm(s.ctx, tenant, "p1", "emp1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, confirmation.Revision)
	assert.Equal(s.T(), requestcontext.Now(s.ctx), confirmation.ConfirmedAt)
}

func (s *PayrollSuite) TestBumpPreservesPriorConfirmations() {
	period := s.finalize("p1")

	_, err := s.service.Confirm(s.ctx, tenant, "p1", "emp1")
	require.NoError(s.T(), err)

	period, err = s.service.Bump(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)

	_, err = s.service.Confirm(s.ctx, tenant, "p1", "emp1")
	require.NoError(s.T(), err)

	confirmations, err := s.store.ListConfirmations(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	require.Len(s.T(), confirmations, 2, "rev1 confirmation survives the bump")

	current := payroll.Current(period, confirmations)
	require.Len(s.T(), current, 1)
	assert.Equal(s.T(), 2, current[0].Revision)
}

func (s *PayrollSuite) TestConfirmSameRevisionTwiceOverwrites() {
	s.finalize("p1")

	_, err := s.service.Confirm(s.ctx, tenant, "p1", "emp1")
	require.NoError(s.T(), err)
	_, err = s.service.Confirm(s.ctx, tenant, "p1", "emp1")
	require.NoError(s.T(), err)

	confirmations, err := s.store.ListConfirmations(s.ctx, tenant, "p1")
	require.NoError(s.T(), err)
	assert.Len(s.T(), confirmations, 1)
}

func (s *PayrollSuite) TestConfirmUnknownPeriod() {
	_, err := s.service.Confirm(s.ctx, tenant, "nope", "emp1")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PayrollSuite) TestTenantsAreIsolated() {
	s.finalize("p1")

	_, err := s.store.GetPeriod(s.ctx, "globex", "p1")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func TestPayrollSuite(t *testing.T) {
	suite.Run(t, new(PayrollSuite))
}

func TestConfirmationKeyRoundTrip(t *testing.T) {
	key := payroll.ConfirmationKey("emp1", 2)
	assert.Equal(t, "emp1__rev2", key)

	employeeID, revision, err := payroll.ParseConfirmationKey(key)
	require.NoError(t, err)
	assert.Equal(t, "emp1", employeeID)
	assert.Equal(t, 2, revision)
}

func TestParseConfirmationKeyEmployeeContainingSeparator(t *testing.T) {
	employeeID, revision, err := payroll.ParseConfirmationKey("odd__revname__rev3")
	require.NoError(t, err)
	assert.Equal(t, "odd__revname", employeeID)
	assert.Equal(t, 3, revision)
}

func TestParseConfirmationKeyMalformed(t *testing.T) {
	for _, key := range []string{"", "emp1", "__rev2", "emp1__rev", "emp1__rev0", "emp1__revx"} {
		_, _, err := payroll.ParseConfirmationKey(key)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState, "key %q", key)
	}
}
